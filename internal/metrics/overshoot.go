package metrics

// Overshoot records the worst excursion of the output beyond the
// reference, as a fraction of the reference span from the first
// observed output. Meaningful for step-like references.
type Overshoot struct {
	worst   float64
	initial float64
	started bool
}

func NewOvershoot() *Overshoot {
	return &Overshoot{}
}

func (m *Overshoot) Name() string { return "overshoot" }

func (m *Overshoot) Observe(t, r, u, v, y float64) {
	if !m.started {
		m.initial = y
		m.started = true
	}
	span := r - m.initial
	if span == 0 {
		return
	}
	beyond := (y - r) / span
	if beyond > m.worst {
		m.worst = beyond
	}
}

func (m *Overshoot) Value() float64 { return m.worst }

func (m *Overshoot) Reset() {
	m.worst = 0
	m.initial = 0
	m.started = false
}
