package plant

// ThirdOrder simulates the transfer function
//
//	y(s)/u(s) = b0 / (s^3 + a2 s^2 + a1 s + a0)
//
// in controllable canonical state-space form
//
//	d/dt [y0 y1 y2] = [y1, y2, -a0 y0 - a1 y1 - a2 y2 + b0 u]
//
// advanced by a semi-implicit Euler step. Treating the state implicitly
// and the input explicitly yields a constant-coefficient linear solve
// per step, done here in closed cofactor/determinant form so each
// Advance is a handful of multiplies.
type ThirdOrder struct {
	A [3]float64 // denominator coefficients a0, a1, a2
	B float64    // numerator coefficient b0

	y [3]float64
}

// NewThirdOrder returns the plant with the Astrom and Murray Figure
// 10.2 coefficients: a = (1, 3, 3), b0 = 1.
func NewThirdOrder() *ThirdOrder {
	return &ThirdOrder{A: [3]float64{1, 3, 3}, B: 1}
}

// Reset overwrites the plant state, zero-filling omitted components.
func (p *ThirdOrder) Reset(y ...float64) {
	p.y = [3]float64{}
	copy(p.y[:], y)
}

// Advance steps the state from t to t+dt under constant input u.
func (p *ThirdOrder) Advance(dt, u float64) {
	h := dt
	a0, a1, a2 := p.A[0], p.A[1], p.A[2]

	r0 := p.y[0]
	r1 := p.y[1]
	r2 := p.y[2] + h*p.B*u

	det := h*(h*(a0*h+a1)+a2) + 1
	p.y[0] = ((h*(a2+a1*h)+1)*r0 + h*(a2*h+1)*r1 + h*h*r2) / det
	p.y[1] = (-a0*h*h*r0 + (a2*h+1)*r1 + h*r2) / det
	p.y[2] = (-a0*h*r0 - h*(a1+a0*h)*r1 + r2) / det
}

// Output returns the observable process signal y0.
func (p *ThirdOrder) Output() float64 {
	return p.y[0]
}

// State returns a copy of the full state vector.
func (p *ThirdOrder) State() []float64 {
	return []float64{p.y[0], p.y[1], p.y[2]}
}
