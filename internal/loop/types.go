package loop

import "fmt"

// Plant is a simulated process driven by an actuator signal. Plants
// advance their own state so each can use whatever integration scheme
// suits its dynamics.
type Plant interface {
	Advance(dt, u float64)
	Output() float64
	State() []float64
}

// Actuator turns the requested control signal into the signal actually
// applied to the plant.
type Actuator interface {
	Apply(dt, v float64) float64
}

// Reference supplies the setpoint trajectory.
type Reference interface {
	At(t float64) float64
}

// Metric accumulates a scalar figure of merit over one run.
type Metric interface {
	Name() string
	Observe(t, r, u, v, y float64)
	Value() float64
	Reset()
}

// Observer is notified of every step of a run.
type Observer interface {
	OnStep(t, r, u, v, y float64)
}

// Config parameterizes one closed-loop run.
type Config struct {
	Dt       float64
	Duration float64
	Seed     int64

	// Dropout is the probability, per step, that the sensor yields no
	// sample. The controller holds its state on those steps.
	Dropout float64

	// Initial is the control signal in effect before the loop engages.
	Initial float64

	// ManualFrom and ManualTo delimit a window of manual control during
	// which the requested signal is held. Equal values disable the
	// window. The controller re-approaches when automatic control
	// resumes, so the transfer back is bumpless.
	ManualFrom float64
	ManualTo   float64
}

// Result collects the trajectory of one run. All slices share indices.
type Result struct {
	Times    []float64
	Refs     []float64
	Outputs  []float64
	Controls []float64 // control signal v requested
	Applied  []float64 // actuator signal u in effect
	States   [][]float64
	Metrics  map[string]float64
	Steps    int
}

// StepError reports a failure at a specific point in a run.
type StepError struct {
	Time    float64
	Step    int
	Message string
}

func (e StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
