package smartflow

import (
	"maps"
	"time"
)

// SimulationPayload is the attribute assignment a simulation ran with.
type SimulationPayload struct {
	GeneratedAt time.Time  `json:"generatedAt"`
	Attributes  Attributes `json:"attributes"`
}

// Simulation is the record of one simulated request.
type Simulation struct {
	Timestamp   time.Time         `json:"timestamp"`
	Payload     SimulationPayload `json:"payload"`
	Destination Target            `json:"destination"`
	Path        []NodeRef         `json:"path"`
	Outcome     Outcome           `json:"outcome"`
}

// Simulate evaluates attrs against a valid flow. Unlike Evaluate it refuses
// flows that fail Valid, returning ErrInvalidFlow.
func (f *Flow) Simulate(attrs Attributes, now time.Time) (Simulation, error) {
	if !f.Valid() {
		return Simulation{}, ErrInvalidFlow
	}
	attrs = maps.Clone(attrs)
	if attrs == nil {
		attrs = Attributes{}
	}
	ev := f.Evaluate(attrs)
	return Simulation{
		Timestamp:   now,
		Payload:     SimulationPayload{GeneratedAt: now, Attributes: attrs},
		Destination: ev.Destination,
		Path:        ev.Path,
		Outcome:     ev.Outcome,
	}, nil
}
