package smartflow

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// NodeID identifies a stored node within a flow. Valid ids are positive.
type NodeID int

type refKind uint8

const (
	refInvalid refKind = iota
	refNumeric
	refDefaultSource
	refDefaultDestination
)

const (
	defaultSourceTag      = "default-source"
	defaultDestinationTag = "default-destination"
)

// NodeRef is a connection endpoint: a stored node, the implicit default
// source, or the implicit default destination. The zero value is invalid.
type NodeRef struct {
	kind refKind
	id   NodeID
}

// DefaultSource is the implicit entry point of every flow.
var DefaultSource = NodeRef{kind: refDefaultSource}

// DefaultDestination is the implicit fallback terminal of every flow.
var DefaultDestination = NodeRef{kind: refDefaultDestination}

// Ref returns a reference to the stored node id. Non-positive ids give an
// invalid ref.
func Ref(id NodeID) NodeRef {
	if id <= 0 {
		return NodeRef{}
	}
	return NodeRef{kind: refNumeric, id: id}
}

// NodeID reports the stored node id, if r refers to one.
func (r NodeRef) NodeID() (NodeID, bool) {
	return r.id, r.kind == refNumeric
}

// Equal reports whether r and other name the same endpoint. go-cmp uses it
// to compare refs without reaching into unexported fields.
func (r NodeRef) Equal(other NodeRef) bool { return r == other }

// IsValid reports whether r names an endpoint at all.
func (r NodeRef) IsValid() bool { return r.kind != refInvalid }

// IsDefaultSource reports whether r is the implicit entry point.
func (r NodeRef) IsDefaultSource() bool { return r.kind == refDefaultSource }

// IsDefaultDestination reports whether r is the implicit fallback terminal.
func (r NodeRef) IsDefaultDestination() bool { return r.kind == refDefaultDestination }

// String returns the id, or the singleton tag, or "invalid".
func (r NodeRef) String() string {
	switch r.kind {
	case refNumeric:
		return strconv.Itoa(int(r.id))
	case refDefaultSource:
		return defaultSourceTag
	case refDefaultDestination:
		return defaultDestinationTag
	default:
		return "invalid"
	}
}

// ParseRef parses the textual form produced by String.
func ParseRef(s string) (NodeRef, error) {
	switch s {
	case defaultSourceTag:
		return DefaultSource, nil
	case defaultDestinationTag:
		return DefaultDestination, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return NodeRef{}, ErrInvalidRef
	}
	return Ref(NodeID(n)), nil
}

// MarshalJSON encodes numeric refs as integers and singletons as their tag.
func (r NodeRef) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case refNumeric:
		return []byte(strconv.Itoa(int(r.id))), nil
	case refDefaultSource, refDefaultDestination:
		return json.Marshal(r.String())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON never fails: anything that is not a positive integer or a
// singleton tag decodes to the invalid ref, so a single foreign record does
// not reject a whole document.
func (r *NodeRef) UnmarshalJSON(data []byte) error {
	*r = NodeRef{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		switch s {
		case defaultSourceTag:
			*r = DefaultSource
		case defaultDestinationTag:
			*r = DefaultDestination
		}
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	*r = Ref(NodeID(n))
	return nil
}
