package helm

import (
	"fmt"
	"math"
)

// Measurement carries one process observation into Steady. The zero
// value means no fresh sample arrived this cycle.
type Measurement struct {
	Value float64
	OK    bool
}

// Sample wraps a fresh process observation.
func Sample(v float64) Measurement {
	return Measurement{Value: v, OK: true}
}

// None is the absent measurement.
var None = Measurement{}

// State holds the tuning parameters and transient memory of one
// incremental PID controller instance.
//
// Kp has units of actuator-signal per process-signal. Td, Tf, and Ti
// have units of time; Tt has units of time scaled by Kp's units. Time
// units are fixed by the dt argument to Steady.
type State struct {
	Kp float64 // unified gain applied to P, I, and D action
	Td float64 // derivative time scale; zero disables derivative action
	Tf float64 // derivative filter time scale; +Inf disables filtering
	Ti float64 // integral time scale; +Inf disables integral action
	Tt float64 // automatic reset time scale; +Inf disables reset

	y      float64 // last process observation
	f      float64 // last filtered observation
	seeded bool    // transients hold meaningful values
}

// New returns a controller with Reset applied.
func New() *State {
	h := &State{}
	return h.Reset()
}

// Reset restores the neutral tuning: unit gain with derivative,
// filtering, integral, and automatic reset action all disabled.
// Transient memory is left alone. Returns h to permit chaining.
func (h *State) Reset() *State {
	h.Kp = 1
	h.Td = 0
	h.Tf = math.Inf(1)
	h.Ti = math.Inf(1)
	h.Tt = math.Inf(1)
	return h
}

// Tune sets the time-scale parameterization from the common kp, ki,
// kd, and kt gains. A zero ki, kd, or kt disables the corresponding
// action. The derivative filter time scale is taken as Td/10; Astrom
// and Murray p.308 suggests a divisor of 2--20. Returns h to permit
// chaining.
func (h *State) Tune(kp, ki, kd, kt float64) *State {
	h.Kp = kp
	if kd != 0 {
		h.Td = kd / kp
		h.Tf = h.Td / 10
	} else {
		h.Td = 0
		h.Tf = math.Inf(1)
	}
	if ki != 0 {
		h.Ti = kp / ki
	} else {
		h.Ti = math.Inf(1)
	}
	if kt != 0 {
		h.Tt = kp / kt
	} else {
		h.Tt = math.Inf(1)
	}
	return h
}

// Approach clears transient memory so the next Steady call produces no
// kick. It must be called once before the first Steady call and again
// whenever control returns to automatic after a period of manual
// control. Invalid tuning is a programming error and panics: continuing
// with a nonpositive time scale would divide by zero inside Steady.
// Returns h to permit chaining.
func (h *State) Approach() *State {
	if h.Td < 0 || !(h.Tf > 0) || !(h.Ti > 0) || !(h.Tt > 0) {
		panic(fmt.Sprintf(
			"helm: invalid tuning: Td=%g Tf=%g Ti=%g Tt=%g (need Td >= 0 and Tf, Ti, Tt > 0)",
			h.Td, h.Tf, h.Ti, h.Tt))
	}
	h.seeded = false
	return h
}

// Steady finds the incremental change to control signal v necessary to
// steady the unsteady process observation y.
//
//	dt  time since the previous sample
//	r   reference value, often called the setpoint
//	u   actuator signal currently observed
//	v   actuator signal currently requested
//	y   observed process output to drive toward r
//
// When y carries no sample the state is untouched and the increment is
// zero: the controller refuses to drive blind. The first accepted
// sample after Approach seeds the transients so that both difference
// terms start from zero.
func (h *State) Steady(dt, r, u, v float64, y Measurement) float64 {
	if !y.OK {
		return 0
	}

	if !h.seeded {
		h.y = y.Value
		h.f = y.Value
		h.seeded = true
	}

	a := dt / (h.Tf + dt)      // convex combination weight
	df := a * (y.Value - h.f)  // filtered backward difference
	dy := y.Value - h.y        // backward difference

	dv := (r-y.Value)/h.Ti + (u-v)/h.Tt // integral and automatic reset
	dv *= dt
	dv += (h.Td / h.Tf) * (df - dy) // derivative on filtered measurement
	dv -= dy                        // proportional action, taking dr = 0
	dv *= h.Kp

	h.y = y.Value
	h.f += df
	return dv
}

// Seeded reports whether the transients hold values from an accepted
// sample. Approach returns the controller to the unseeded condition.
func (h *State) Seeded() bool {
	return h.seeded
}

// LastMeasurement returns the most recent accepted observation.
func (h *State) LastMeasurement() (float64, bool) {
	return h.y, h.seeded
}

// LastFiltered returns the most recent filtered observation.
func (h *State) LastFiltered() (float64, bool) {
	return h.f, h.seeded
}
