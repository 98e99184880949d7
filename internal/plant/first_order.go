package plant

// FirstOrder simulates the lag K / (tau s + 1), advanced with an
// implicit Euler step:
//
//	y' = (tau y + dt K u) / (tau + dt)
//
// The implicit update is unconditionally stable, so the plant tolerates
// any positive step size.
type FirstOrder struct {
	K   float64 // steady-state gain
	Tau float64 // time constant

	y float64
}

// NewFirstOrder returns a unit-gain lag with the given time constant.
func NewFirstOrder(tau float64) *FirstOrder {
	return &FirstOrder{K: 1, Tau: tau}
}

// Reset overwrites the plant output.
func (p *FirstOrder) Reset(y ...float64) {
	p.y = 0
	if len(y) > 0 {
		p.y = y[0]
	}
}

// Advance steps the state from t to t+dt under constant input u.
func (p *FirstOrder) Advance(dt, u float64) {
	p.y = (p.Tau*p.y + dt*p.K*u) / (p.Tau + dt)
}

// Output returns the process signal y.
func (p *FirstOrder) Output() float64 {
	return p.y
}

// State returns the state vector.
func (p *FirstOrder) State() []float64 {
	return []float64{p.y}
}
