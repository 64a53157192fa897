package smartflow

import "fmt"

// Valid reports whether the flow can be simulated or saved: it has at least
// one condition, every condition has both a success and a danger connection,
// and the default source has an outgoing connection.
//
// No cycle or reachability analysis is done. A condition wired back to
// itself on both ports is valid.
func (f *Flow) Valid() bool {
	return len(f.Problems()) == 0
}

// Problems lists why the flow is not valid, in node order. It is empty for a
// valid flow.
func (f *Flow) Problems() []string {
	var problems []string
	conditions := 0
	for _, id := range f.nodeOrder {
		n := f.nodes[id]
		if n.Kind != Condition {
			continue
		}
		conditions++
		for _, port := range []Port{Success, Danger} {
			if _, ok := f.connectionFrom(Ref(id), port); !ok {
				problems = append(problems, fmt.Sprintf("condition %q has no %s connection", n.Label, port))
			}
		}
	}
	if conditions == 0 {
		problems = append(problems, "flow has no conditions")
	}
	if _, ok := f.anyConnectionFrom(DefaultSource); !ok {
		problems = append(problems, "default source is not connected")
	}
	return problems
}
