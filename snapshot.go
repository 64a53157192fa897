package smartflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Snapshot record types for the two implicit endpoints.
const (
	TypeDefaultSource      = defaultSourceTag
	TypeDefaultDestination = defaultDestinationTag
)

// Labels of the synthetic endpoint records.
const (
	DefaultSourceLabel            = "QR Code Scanned"
	DefaultDestinationRecordLabel = "Destination"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Snapshot is a self-describing export of a flow. The first two node records
// describe the default source and default destination.
type Snapshot struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Nodes       []SnapshotNode       `json:"nodes"`
	Connections []SnapshotConnection `json:"connections"`
}

// Position is a node placement hint.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SnapshotNode is one node record. Type is "condition", "destination",
// "default-source" or "default-destination"; Metadata depends on Type.
type SnapshotNode struct {
	ID       NodeRef         `json:"id"`
	Type     string          `json:"type"`
	Label    string          `json:"label"`
	Position *Position       `json:"position,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// SnapshotConnection is one connection record. Connection ids are not
// exported; they are regenerated from position on import.
type SnapshotConnection struct {
	From NodeRef `json:"from"`
	To   NodeRef `json:"to"`
	Port Port    `json:"port"`
}

type defaultDestinationMetadata struct {
	URL *string `json:"url"`
}

// MarshalJSON writes an empty URL as null.
func (m DestinationMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		URL *string `json:"destinationUrl"`
	}{optional(m.URL)})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Snapshot exports the flow, stamped with now.
func (f *Flow) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		GeneratedAt: now.UTC().Truncate(time.Millisecond),
		Nodes:       make([]SnapshotNode, 0, len(f.nodeOrder)+2),
		Connections: make([]SnapshotConnection, 0, len(f.connOrder)),
	}
	s.Nodes = append(s.Nodes,
		SnapshotNode{ID: DefaultSource, Type: TypeDefaultSource, Label: DefaultSourceLabel},
		SnapshotNode{
			ID:       DefaultDestination,
			Type:     TypeDefaultDestination,
			Label:    DefaultDestinationRecordLabel,
			Metadata: mustJSON(defaultDestinationMetadata{URL: optional(f.defaultURL)}),
		},
	)
	for _, id := range f.nodeOrder {
		n := f.nodes[id]
		rec := SnapshotNode{
			ID:       Ref(n.ID),
			Type:     string(n.Kind),
			Label:    n.Label,
			Position: &Position{X: n.X, Y: n.Y},
		}
		switch {
		case n.Kind == Condition && n.Condition != nil:
			rec.Metadata = mustJSON(n.Condition)
		case n.Kind == Destination && n.Destination != nil:
			rec.Metadata = mustJSON(n.Destination)
		}
		s.Nodes = append(s.Nodes, rec)
	}
	for _, cid := range f.connOrder {
		c := f.conns[cid]
		s.Connections = append(s.Connections, SnapshotConnection{From: c.From, To: c.To, Port: c.Port})
	}
	return s
}

// mustJSON encodes metadata structs, which cannot fail to marshal.
func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("smartflow: encode metadata: %v", err))
	}
	return b
}

// FromSnapshot rebuilds a flow from a snapshot.
//
// Node records without a numeric id, with a type other than condition or
// destination, or with metadata that does not decode are dropped, as are
// connection records with an unusable endpoint or port. A condition also
// needs a criterion and a known operator. Connection ids are regenerated in record order and the
// id counters continue past the highest id kept.
func FromSnapshot(s Snapshot, opts ...Option) *Flow {
	f := New(opts...)
	originX, originY := f.layout.Place(0)

	for _, rec := range s.Nodes {
		if rec.ID.IsDefaultDestination() && rec.Type == TypeDefaultDestination {
			var meta defaultDestinationMetadata
			if json.Unmarshal(rec.Metadata, &meta) == nil && meta.URL != nil {
				f.defaultURL = *meta.URL
			}
			continue
		}
		id, ok := rec.ID.NodeID()
		if !ok {
			continue
		}
		if _, dup := f.nodes[id]; dup {
			continue
		}
		n := &Node{ID: id, Label: rec.Label, X: originX, Y: originY}
		if rec.Position != nil {
			n.X, n.Y = rec.Position.X, rec.Position.Y
		}
		switch Kind(rec.Type) {
		case Condition:
			// A condition without a criterion would match every request.
			meta := ConditionMetadata{Label: rec.Label}
			if json.Unmarshal(rec.Metadata, &meta) != nil ||
				strings.TrimSpace(meta.Criteria) == "" || !meta.Operator.Valid() {
				continue
			}
			n.Kind = Condition
			n.Condition = &meta
		case Destination:
			var meta DestinationMetadata
			if len(rec.Metadata) > 0 && json.Unmarshal(rec.Metadata, &meta) != nil {
				continue
			}
			n.Kind = Destination
			n.Destination = &meta
		default:
			continue
		}
		f.insertNode(n)
	}

	for _, rec := range s.Connections {
		if !rec.From.IsValid() || !rec.To.IsValid() || !rec.Port.Valid() {
			continue
		}
		f.appendConnection(rec.From, rec.To, rec.Port)
	}
	return f
}

// MarshalJSON writes generatedAt as an ISO-8601 UTC timestamp with
// millisecond precision.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	nodes, conns := s.Nodes, s.Connections
	if nodes == nil {
		nodes = []SnapshotNode{}
	}
	if conns == nil {
		conns = []SnapshotConnection{}
	}
	return json.Marshal(struct {
		GeneratedAt string               `json:"generatedAt"`
		Nodes       []SnapshotNode       `json:"nodes"`
		Connections []SnapshotConnection `json:"connections"`
	}{s.GeneratedAt.UTC().Format(timestampLayout), nodes, conns})
}

// UnmarshalJSON decodes records one by one; a record that does not decode
// is dropped instead of failing the document.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var doc struct {
		GeneratedAt string            `json:"generatedAt"`
		Nodes       []json.RawMessage `json:"nodes"`
		Connections []json.RawMessage `json:"connections"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*s = Snapshot{}
	if t, err := time.Parse(time.RFC3339Nano, doc.GeneratedAt); err == nil {
		s.GeneratedAt = t.UTC()
	}
	for _, raw := range doc.Nodes {
		var n SnapshotNode
		if json.Unmarshal(raw, &n) == nil {
			s.Nodes = append(s.Nodes, n)
		}
	}
	for _, raw := range doc.Connections {
		var c SnapshotConnection
		if json.Unmarshal(raw, &c) == nil {
			s.Connections = append(s.Connections, c)
		}
	}
	return nil
}

// DecodeSnapshot parses a snapshot document.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("smartflow: decode snapshot: %w", err)
	}
	return s, nil
}
