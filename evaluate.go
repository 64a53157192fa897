package smartflow

// MaxSteps bounds the number of nodes one evaluation may visit.
const MaxSteps = 100

// DefaultDestinationLabel labels the default destination when no URL is set.
const DefaultDestinationLabel = "Default Destination"

// Target is the routing target an evaluation resolves to. URL is empty
// when the target carries none.
type Target struct {
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}

// Outcome says how an evaluation ended.
type Outcome string

const (
	// ReachedDestination: a destination node was reached.
	ReachedDestination Outcome = "destination"
	// ReachedDefault: a connection led to the default destination.
	ReachedDefault Outcome = "default-destination"
	// CycleDetected: a node was about to be visited twice.
	CycleDetected Outcome = "cycle"
	// DeadEnd: the current node had no outgoing connection.
	DeadEnd Outcome = "dead-end"
	// BudgetExhausted: MaxSteps nodes were visited without resolving.
	BudgetExhausted Outcome = "budget"
)

// Evaluation is the result of walking the flow for one attribute assignment.
type Evaluation struct {
	Destination Target `json:"destination"`
	// Path is every endpoint visited, starting at the default source and
	// ending at the resolved target.
	Path    []NodeRef `json:"path"`
	Outcome Outcome   `json:"outcome"`
}

// Resolve returns the single destination attrs route to.
func (f *Flow) Resolve(attrs Attributes) Target {
	return f.Evaluate(attrs).Destination
}

// Evaluate walks the flow from the default source.
//
// At a condition node the connection on the port matching the comparison is
// followed; if that port is unwired any other outgoing connection is used.
// Cycles, dead ends and an exhausted step budget all fall back to the default
// destination. Evaluate does not check Valid.
func (f *Flow) Evaluate(attrs Attributes) Evaluation {
	var (
		current = DefaultSource
		visited = make(map[NodeRef]struct{})
		path    []NodeRef
		outcome = BudgetExhausted
	)
	for steps := 0; steps < MaxSteps; steps++ {
		if _, seen := visited[current]; seen {
			outcome = CycleDetected
			break
		}
		visited[current] = struct{}{}
		path = append(path, current)

		c, ok := f.next(current, attrs)
		if !ok {
			outcome = DeadEnd
			break
		}

		target := c.To
		if target.IsDefaultDestination() {
			return Evaluation{
				Destination: f.defaultDestination(),
				Path:        append(path, target),
				Outcome:     ReachedDefault,
			}
		}
		if id, numeric := target.NodeID(); numeric {
			n, exists := f.nodes[id]
			if !exists {
				outcome = DeadEnd
				break
			}
			if n.Kind == Destination {
				d := Target{Label: n.Label}
				if n.Destination != nil {
					d.URL = n.Destination.URL
				}
				return Evaluation{Destination: d, Path: append(path, target), Outcome: ReachedDestination}
			}
		}
		current = target
	}
	return Evaluation{Destination: f.defaultDestination(), Path: path, Outcome: outcome}
}

// next picks the connection to follow out of current.
func (f *Flow) next(current NodeRef, attrs Attributes) (*Connection, bool) {
	if current.IsDefaultSource() {
		return f.anyConnectionFrom(DefaultSource)
	}
	id, ok := current.NodeID()
	if !ok {
		return nil, false
	}
	n, exists := f.nodes[id]
	if !exists || n.Kind != Condition || n.Condition == nil {
		return nil, false
	}
	port := Danger
	if n.Condition.matches(attrs) {
		port = Success
	}
	if c, ok := f.connectionFrom(current, port); ok {
		return c, true
	}
	// Lenient fallback kept for exploratory simulation of incomplete flows.
	return f.anyConnectionFrom(current)
}

func (f *Flow) defaultDestination() Target {
	if f.defaultURL == "" {
		return Target{Label: DefaultDestinationLabel}
	}
	return Target{Label: f.defaultURL, URL: f.defaultURL}
}
