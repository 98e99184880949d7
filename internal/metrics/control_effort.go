package metrics

import "math"

// ControlEffort accumulates the total variation of the requested
// control signal. For an incremental controller this is the sum of
// increment magnitudes, a direct read on how hard the loop works the
// actuator.
type ControlEffort struct {
	sum     float64
	prevV   float64
	started bool
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (m *ControlEffort) Name() string { return "control_effort" }

func (m *ControlEffort) Observe(t, r, u, v, y float64) {
	if m.started {
		m.sum += math.Abs(v - m.prevV)
	}
	m.prevV = v
	m.started = true
}

func (m *ControlEffort) Value() float64 { return m.sum }

func (m *ControlEffort) Reset() {
	m.sum = 0
	m.prevV = 0
	m.started = false
}
