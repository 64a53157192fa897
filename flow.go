package smartflow

// Kind is the type of a stored node.
type Kind string

const (
	Condition   Kind = "condition"
	Destination Kind = "destination"
)

// Operator compares an observed attribute to a condition's expected value.
type Operator string

const (
	Is    Operator = "is"
	IsNot Operator = "is-not"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	return op == Is || op == IsNot
}

// Port is the outgoing edge slot a connection leaves from.
type Port string

const (
	Success Port = "success"
	Danger  Port = "danger"
)

// Valid reports whether p is a known port.
func (p Port) Valid() bool {
	return p == Success || p == Danger
}

// ConditionMetadata configures a condition node. Criteria is the attribute
// key looked up at evaluation time, Value the expected value. Label is the
// derived display text and is filled in when the node is created.
type ConditionMetadata struct {
	Criteria string   `json:"criteria"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	Label    string   `json:"label"`
}

// matches reports whether attrs satisfy the condition. A missing attribute
// compares as the empty string.
func (m ConditionMetadata) matches(attrs Attributes) bool {
	actual := attrs[m.Criteria]
	if m.Operator == IsNot {
		return actual != m.Value
	}
	return actual == m.Value
}

// DestinationMetadata configures a destination node. An empty URL means the
// node carries no URL.
type DestinationMetadata struct {
	URL string `json:"destinationUrl"`
}

// Node is a stored flow node. X and Y are placement hints only.
// Exactly one of Condition / Destination is set, matching Kind.
type Node struct {
	ID          NodeID               `json:"id"`
	Kind        Kind                 `json:"type"`
	Label       string               `json:"label"`
	X           float64              `json:"x"`
	Y           float64              `json:"y"`
	Condition   *ConditionMetadata   `json:"condition,omitempty"`
	Destination *DestinationMetadata `json:"destination,omitempty"`
}

// ConnectionID identifies a connection within a flow.
type ConnectionID int

// Connection is a directed edge leaving From through Port.
type Connection struct {
	ID   ConnectionID `json:"id"`
	From NodeRef      `json:"from"`
	To   NodeRef      `json:"to"`
	Port Port         `json:"port"`
}

// Attributes maps attribute keys (criteria) to observed values.
type Attributes map[string]string
