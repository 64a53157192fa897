package smartflow

import (
	"slices"
	"strings"
)

// Flow is a routing decision graph: stored condition and destination nodes,
// the connections between them, and the default destination URL. The
// DefaultSource and DefaultDestination endpoints always exist implicitly.
//
// A Flow is not safe for concurrent use; callers serialize access.
type Flow struct {
	nodes     map[NodeID]*Node
	nodeOrder []NodeID

	conns     map[ConnectionID]*Connection
	connOrder []ConnectionID
	// byPort holds the first connection, by insertion order, for each
	// (from, port) pair.
	byPort map[portKey]ConnectionID

	nextNode   NodeID
	nextConn   ConnectionID
	defaultURL string

	catalog *Catalog
	layout  Layout
}

type portKey struct {
	from NodeRef
	port Port
}

// Option configures a Flow.
type Option func(*Flow)

// WithCatalog sets the catalog used to derive condition labels.
func WithCatalog(c *Catalog) Option {
	return func(f *Flow) { f.catalog = c }
}

// WithLayout sets the placement policy for new nodes.
func WithLayout(l Layout) Option {
	return func(f *Flow) { f.layout = l }
}

// New returns an empty flow.
func New(opts ...Option) *Flow {
	f := &Flow{
		nodes:    make(map[NodeID]*Node),
		conns:    make(map[ConnectionID]*Connection),
		byPort:   make(map[portKey]ConnectionID),
		nextNode: 1,
		nextConn: 1,
		catalog:  DefaultCatalog(),
		layout:   DefaultGridLayout(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AddConditionNode creates a condition node. The node label is derived from
// the metadata; a condition with the same label must not already exist.
func (f *Flow) AddConditionNode(meta ConditionMetadata) (NodeID, error) {
	meta.Criteria = strings.TrimSpace(meta.Criteria)
	if meta.Criteria == "" || !meta.Operator.Valid() {
		return 0, ErrInvalidCondition
	}
	label := f.catalog.ConditionLabel(meta)
	for _, id := range f.nodeOrder {
		if n := f.nodes[id]; n.Kind == Condition && n.Label == label {
			return 0, ErrDuplicateCondition
		}
	}
	meta.Label = label
	return f.place(&Node{Kind: Condition, Label: label, Condition: &meta}), nil
}

// AddDestinationNode creates a destination node. The label is the trimmed
// name, else the trimmed URL, else "Destination".
func (f *Flow) AddDestinationNode(name string, meta DestinationMetadata) NodeID {
	meta.URL = strings.TrimSpace(meta.URL)
	label := strings.TrimSpace(name)
	if label == "" {
		label = meta.URL
	}
	if label == "" {
		label = "Destination"
	}
	return f.place(&Node{Kind: Destination, Label: label, Destination: &meta})
}

func (f *Flow) place(n *Node) NodeID {
	n.ID = f.nextNode
	f.nextNode++
	n.X, n.Y = f.layout.Place(len(f.nodeOrder))
	f.insertNode(n)
	return n.ID
}

func (f *Flow) insertNode(n *Node) {
	f.nodes[n.ID] = n
	f.nodeOrder = append(f.nodeOrder, n.ID)
	if n.ID >= f.nextNode {
		f.nextNode = n.ID + 1
	}
}

// RemoveNode deletes the node and every connection touching it. Removing an
// absent id is a no-op.
func (f *Flow) RemoveNode(id NodeID) {
	if _, ok := f.nodes[id]; !ok {
		return
	}
	delete(f.nodes, id)
	f.nodeOrder = slices.DeleteFunc(f.nodeOrder, func(v NodeID) bool { return v == id })

	ref := Ref(id)
	var doomed []ConnectionID
	for _, cid := range f.connOrder {
		if c := f.conns[cid]; c.From == ref || c.To == ref {
			doomed = append(doomed, cid)
		}
	}
	for _, cid := range doomed {
		f.RemoveConnection(cid)
	}
}

// MoveNode updates a node's placement.
func (f *Flow) MoveNode(id NodeID, x, y float64) error {
	n, ok := f.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.X, n.Y = x, y
	return nil
}

// AddConnection connects from to to through port.
//
// If a connection already runs in the reverse direction (to -> from) the
// attempt is discarded and ok is false. Otherwise any existing connection
// for the same (from, port) pair is replaced; the new connection gets a
// fresh id.
func (f *Flow) AddConnection(from, to NodeRef, port Port) (c Connection, ok bool, err error) {
	if !port.Valid() {
		return Connection{}, false, ErrInvalidPort
	}
	if err := f.checkRef(from); err != nil {
		return Connection{}, false, err
	}
	if err := f.checkRef(to); err != nil {
		return Connection{}, false, err
	}
	if f.hasReverse(from, to) {
		return Connection{}, false, nil
	}
	for {
		old, found := f.byPort[portKey{from, port}]
		if !found {
			break
		}
		f.RemoveConnection(old)
	}
	return *f.appendConnection(from, to, port), true, nil
}

func (f *Flow) checkRef(r NodeRef) error {
	if !r.IsValid() {
		return ErrInvalidRef
	}
	if id, ok := r.NodeID(); ok {
		if _, exists := f.nodes[id]; !exists {
			return ErrNodeNotFound
		}
	}
	return nil
}

func (f *Flow) hasReverse(from, to NodeRef) bool {
	for _, cid := range f.connOrder {
		if c := f.conns[cid]; c.From == to && c.To == from {
			return true
		}
	}
	return false
}

func (f *Flow) appendConnection(from, to NodeRef, port Port) *Connection {
	c := &Connection{ID: f.nextConn, From: from, To: to, Port: port}
	f.nextConn++
	f.conns[c.ID] = c
	f.connOrder = append(f.connOrder, c.ID)
	key := portKey{from, port}
	if _, taken := f.byPort[key]; !taken {
		f.byPort[key] = c.ID
	}
	return c
}

// RemoveConnection deletes a connection. Removing an absent id is a no-op.
func (f *Flow) RemoveConnection(id ConnectionID) {
	c, ok := f.conns[id]
	if !ok {
		return
	}
	delete(f.conns, id)
	f.connOrder = slices.DeleteFunc(f.connOrder, func(v ConnectionID) bool { return v == id })

	key := portKey{c.From, c.Port}
	if f.byPort[key] != id {
		return
	}
	delete(f.byPort, key)
	for _, cid := range f.connOrder {
		if other := f.conns[cid]; other.From == c.From && other.Port == c.Port {
			f.byPort[key] = cid
			break
		}
	}
}

// connectionFrom returns the first connection leaving ref through port.
func (f *Flow) connectionFrom(ref NodeRef, port Port) (*Connection, bool) {
	cid, ok := f.byPort[portKey{ref, port}]
	if !ok {
		return nil, false
	}
	return f.conns[cid], true
}

// anyConnectionFrom returns the first connection leaving ref through any port.
func (f *Flow) anyConnectionFrom(ref NodeRef) (*Connection, bool) {
	for _, cid := range f.connOrder {
		if c := f.conns[cid]; c.From == ref {
			return c, true
		}
	}
	return nil, false
}

// DefaultURL returns the fallback destination URL, empty if unset.
func (f *Flow) DefaultURL() string { return f.defaultURL }

// SetDefaultURL sets the fallback destination URL.
func (f *Flow) SetDefaultURL(url string) { f.defaultURL = strings.TrimSpace(url) }

// Clear removes all nodes and connections and the default URL. Id counters
// keep running so retired ids are never reused.
func (f *Flow) Clear() {
	clear(f.nodes)
	clear(f.conns)
	clear(f.byPort)
	f.nodeOrder = nil
	f.connOrder = nil
	f.defaultURL = ""
}

// Catalog returns the catalog the flow derives labels from.
func (f *Flow) Catalog() *Catalog { return f.catalog }

// Node returns a copy of the stored node.
func (f *Flow) Node(id NodeID) (Node, bool) {
	n, ok := f.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of all stored nodes in insertion order.
func (f *Flow) Nodes() []Node {
	out := make([]Node, 0, len(f.nodeOrder))
	for _, id := range f.nodeOrder {
		out = append(out, f.nodes[id].clone())
	}
	return out
}

// ConditionNodes returns copies of the condition nodes in insertion order.
func (f *Flow) ConditionNodes() []Node {
	var out []Node
	for _, id := range f.nodeOrder {
		if n := f.nodes[id]; n.Kind == Condition {
			out = append(out, n.clone())
		}
	}
	return out
}

// Connections returns all connections in insertion order.
func (f *Flow) Connections() []Connection {
	out := make([]Connection, 0, len(f.connOrder))
	for _, cid := range f.connOrder {
		out = append(out, *f.conns[cid])
	}
	return out
}

// DestinationURL returns the URL of a destination node, or "" for any
// other node or an absent id.
func (f *Flow) DestinationURL(id NodeID) string {
	n, ok := f.nodes[id]
	if !ok || n.Kind != Destination || n.Destination == nil {
		return ""
	}
	return n.Destination.URL
}

func (n *Node) clone() Node {
	c := *n
	if n.Condition != nil {
		m := *n.Condition
		c.Condition = &m
	}
	if n.Destination != nil {
		m := *n.Destination
		c.Destination = &m
	}
	return c
}
