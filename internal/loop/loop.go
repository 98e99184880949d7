package loop

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/RhysU/helm/internal/helm"
)

// Loop closes the actuator/process/sensor triad around an incremental
// controller. The loop owns the running control signal: each step it
// adds the controller's increment to v, pushes v through the actuator,
// and advances the plant under the applied signal u.
//
// A Loop is not safe for concurrent use; run one loop per goroutine.
type Loop struct {
	ctrl      *helm.State
	plant     Plant
	act       Actuator
	ref       Reference
	metrics   []Metric
	observers []Observer
}

// New assembles a loop. A nil actuator means Direct.
func New(ctrl *helm.State, plant Plant, act Actuator, ref Reference) *Loop {
	if act == nil {
		act = Direct{}
	}
	return &Loop{
		ctrl:  ctrl,
		plant: plant,
		act:   act,
		ref:   ref,
	}
}

func (l *Loop) AddMetric(m Metric)     { l.metrics = append(l.metrics, m) }
func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

func (l *Loop) validate(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", cfg.Duration)
	}
	if cfg.Dropout < 0 || cfg.Dropout > 1 {
		return fmt.Errorf("dropout must lie in [0, 1], got %g", cfg.Dropout)
	}
	if cfg.ManualTo < cfg.ManualFrom {
		return fmt.Errorf("manual window ends (%g) before it begins (%g)", cfg.ManualTo, cfg.ManualFrom)
	}
	return nil
}

// Run drives the loop for cfg.Duration and returns the trajectory.
// Each sample the plant is observed, the controller suggests an
// increment, the actuator applies the accumulated signal, and the plant
// advances. The recorded rows hold the values in effect at each sample
// time, before the plant advances.
func (l *Loop) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Times:    make([]float64, 0, steps),
		Refs:     make([]float64, 0, steps),
		Outputs:  make([]float64, 0, steps),
		Controls: make([]float64, 0, steps),
		Applied:  make([]float64, 0, steps),
		States:   make([][]float64, 0, steps),
		Metrics:  make(map[string]float64),
	}

	for _, m := range l.metrics {
		m.Reset()
	}

	err := l.run(ctx, cfg, steps, func(t, r, u, v float64, x []float64) bool {
		result.Times = append(result.Times, t)
		result.Refs = append(result.Refs, r)
		result.Outputs = append(result.Outputs, x[0])
		result.Controls = append(result.Controls, v)
		result.Applied = append(result.Applied, u)
		result.States = append(result.States, x)
		result.Steps++
		return true
	})
	if err != nil {
		return result, err
	}

	for _, m := range l.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// RunWithCallback drives the loop, handing each step to the callback
// instead of accumulating a Result. Returning false stops the run.
func (l *Loop) RunWithCallback(ctx context.Context, cfg Config, callback func(t, r, u, v float64, x []float64) bool) error {
	if err := l.validate(cfg); err != nil {
		return err
	}
	return l.run(ctx, cfg, int(cfg.Duration/cfg.Dt), callback)
}

func (l *Loop) run(ctx context.Context, cfg Config, steps int, record func(t, r, u, v float64, x []float64) bool) error {
	rng := rand.New(rand.NewSource(cfg.Seed))

	v := cfg.Initial
	u := l.act.Apply(0, v)
	t := 0.0
	manual := false

	l.ctrl.Approach()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r := l.ref.At(t)
		observed := l.plant.Output()
		if math.IsNaN(observed) || math.IsInf(observed, 0) {
			return StepError{Time: t, Step: i, Message: "plant output is not finite"}
		}

		y := helm.Sample(observed)
		if cfg.Dropout > 0 && rng.Float64() < cfg.Dropout {
			y = helm.None
		}

		if inManual(cfg, t) {
			manual = true
		} else {
			if manual {
				// Back from manual control: clear transients so the
				// first automatic increment carries no kick.
				l.ctrl.Approach()
				manual = false
			}
			v += l.ctrl.Steady(cfg.Dt, r, u, v, y)
		}

		u = l.act.Apply(cfg.Dt, v)

		for _, m := range l.metrics {
			m.Observe(t, r, u, v, observed)
		}
		for _, o := range l.observers {
			o.OnStep(t, r, u, v, observed)
		}

		if !record(t, r, u, v, l.plant.State()) {
			return nil
		}

		l.plant.Advance(cfg.Dt, u)
		t += cfg.Dt
	}
	return nil
}

func inManual(cfg Config, t float64) bool {
	return cfg.ManualTo > cfg.ManualFrom && t >= cfg.ManualFrom && t < cfg.ManualTo
}
