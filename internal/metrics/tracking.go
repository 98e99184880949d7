package metrics

import "math"

// IAE integrates the absolute tracking error |r - y| over a run.
type IAE struct {
	sum     float64
	prevT   float64
	started bool
}

func NewIAE() *IAE {
	return &IAE{}
}

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(t, r, u, v, y float64) {
	if m.started {
		m.sum += math.Abs(r-y) * (t - m.prevT)
	}
	m.prevT = t
	m.started = true
}

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() {
	m.sum = 0
	m.prevT = 0
	m.started = false
}

// ISE integrates the squared tracking error over a run. Squaring
// penalizes large excursions harder than IAE does.
type ISE struct {
	sum     float64
	prevT   float64
	started bool
}

func NewISE() *ISE {
	return &ISE{}
}

func (m *ISE) Name() string { return "ise" }

func (m *ISE) Observe(t, r, u, v, y float64) {
	if m.started {
		e := r - y
		m.sum += e * e * (t - m.prevT)
	}
	m.prevT = t
	m.started = true
}

func (m *ISE) Value() float64 { return m.sum }

func (m *ISE) Reset() {
	m.sum = 0
	m.prevT = 0
	m.started = false
}
