package loop

import "math"

// Constant is a fixed setpoint.
type Constant float64

func (c Constant) At(t float64) float64 {
	return float64(c)
}

// StepChange switches the setpoint once, at time Time.
type StepChange struct {
	Before float64
	After  float64
	Time   float64
}

func (s StepChange) At(t float64) float64 {
	if t < s.Time {
		return s.Before
	}
	return s.After
}

// Square alternates between Low and High with the given period,
// starting high.
type Square struct {
	Low    float64
	High   float64
	Period float64
}

func (s Square) At(t float64) float64 {
	if math.Mod(t, s.Period) < s.Period/2 {
		return s.High
	}
	return s.Low
}
