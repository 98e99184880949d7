package loop_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/RhysU/helm/internal/helm"
	"github.com/RhysU/helm/internal/loop"
	"github.com/RhysU/helm/internal/plant"
)

// brokenPlant reports a non-finite output, as a diverged simulation would.
type brokenPlant struct{}

func (brokenPlant) Advance(dt, u float64) {}
func (brokenPlant) Output() float64       { return math.NaN() }
func (brokenPlant) State() []float64      { return []float64{math.NaN()} }

var _ = Describe("Loop", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("config validation", func() {
		It("rejects a non-positive dt", func() {
			l := loop.New(helm.New(), plant.NewFirstOrder(1), nil, loop.Constant(0))
			_, err := l.Run(ctx, loop.Config{Dt: 0, Duration: 1})
			Expect(err).To(MatchError(ContainSubstring("dt must be positive")))
		})

		It("rejects a non-positive duration", func() {
			l := loop.New(helm.New(), plant.NewFirstOrder(1), nil, loop.Constant(0))
			_, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: -1})
			Expect(err).To(MatchError(ContainSubstring("duration must be positive")))
		})

		It("rejects a dropout outside [0, 1]", func() {
			l := loop.New(helm.New(), plant.NewFirstOrder(1), nil, loop.Constant(0))
			_, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: 1, Dropout: 1.5})
			Expect(err).To(MatchError(ContainSubstring("dropout")))
		})

		It("rejects an inverted manual window", func() {
			l := loop.New(helm.New(), plant.NewFirstOrder(1), nil, loop.Constant(0))
			_, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: 1, ManualFrom: 2, ManualTo: 1})
			Expect(err).To(MatchError(ContainSubstring("manual window")))
		})

		It("stops when the context is canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			l := loop.New(helm.New(), plant.NewFirstOrder(1), nil, loop.Constant(0))
			_, err := l.Run(canceled, loop.Config{Dt: 0.01, Duration: 1})
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("increment accumulation", func() {
		It("carries exactly the residual telescoped over the trajectory", func() {
			// With integral, reset, and derivative action disabled the
			// increments telescope: v_i = initial - Kp*(y_i - y_0).
			h := helm.New()
			h.Kp = 2

			p := plant.NewFirstOrder(1)
			l := loop.New(h, p, nil, loop.Constant(1))

			res, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: 5, Initial: 1})
			Expect(err).NotTo(HaveOccurred())

			for i := range res.Controls {
				want := 1 - 2*(res.Outputs[i]-res.Outputs[0])
				Expect(res.Controls[i]).To(BeNumerically("~", want, 1e-9))
			}
		})
	})

	Describe("steady state", func() {
		It("leaves a settled process untouched", func() {
			h := helm.New().Tune(2.0, 0.8, 0.6, 0.3)

			p := plant.NewFirstOrder(1)
			p.Reset(1)
			l := loop.New(h, p, nil, loop.Constant(1))

			res, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: 2, Initial: 1})
			Expect(err).NotTo(HaveOccurred())

			for i := range res.Controls {
				Expect(res.Controls[i]).To(Equal(1.0))
				Expect(res.Outputs[i]).To(Equal(1.0))
			}
		})
	})

	Describe("sensor dropout", func() {
		It("holds the control signal when every sample is lost", func() {
			h := helm.New().Tune(2.0, 1.0, 0, 0)
			l := loop.New(h, plant.NewFirstOrder(1), nil, loop.Constant(1))

			res, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: 2, Dropout: 1, Initial: 0.5})
			Expect(err).NotTo(HaveOccurred())

			for _, v := range res.Controls {
				Expect(v).To(Equal(0.5))
			}
		})
	})

	Describe("manual control window", func() {
		It("re-engages without a kick", func() {
			h := helm.New()
			h.Kp = 3 // proportional only: re-engagement must be silent

			p := plant.NewFirstOrder(1)
			l := loop.New(h, p, nil, loop.Constant(1))

			// Take the helm away before the process settles so the
			// output keeps moving while the signal is held.
			cfg := loop.Config{
				Dt:         0.01,
				Duration:   6,
				Initial:    1,
				ManualFrom: 0.2,
				ManualTo:   3,
			}
			res, err := l.Run(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			// Locate the first automatic step after the window.
			idx := -1
			for i, t := range res.Times {
				if t >= cfg.ManualTo {
					idx = i
					break
				}
			}
			Expect(idx).To(BeNumerically(">", 0))

			// The process kept moving while the operator held the
			// signal, yet handing back produces no jump at all.
			Expect(res.Outputs[idx]).NotTo(BeNumerically("~", res.Outputs[idx-200], 1e-6))
			Expect(res.Controls[idx]).To(Equal(res.Controls[idx-1]))
		})
	})

	Describe("PI control of a first-order lag", func() {
		It("tracks the setpoint", func() {
			h := helm.New().Tune(1.0, 0.5, 0, 0)
			l := loop.New(h, plant.NewFirstOrder(1), nil, loop.Constant(1))

			res, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: 40})
			Expect(err).NotTo(HaveOccurred())

			final := res.Outputs[len(res.Outputs)-1]
			Expect(final).To(BeNumerically("~", 1.0, 0.05))
		})

		It("follows a setpoint step without losing the earlier hold", func() {
			h := helm.New().Tune(1.0, 0.5, 0, 0)
			ref := loop.StepChange{Before: 0.5, After: 1.0, Time: 40}
			l := loop.New(h, plant.NewFirstOrder(1), nil, ref)

			res, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: 80})
			Expect(err).NotTo(HaveOccurred())

			var beforeIdx int
			for i, t := range res.Times {
				if t >= 40 {
					break
				}
				beforeIdx = i
			}
			Expect(res.Outputs[beforeIdx]).To(BeNumerically("~", 0.5, 0.05))
			Expect(res.Outputs[len(res.Outputs)-1]).To(BeNumerically("~", 1.0, 0.05))
		})
	})

	Describe("actuator saturation", func() {
		It("winds up without automatic reset and stays bounded with it", func() {
			run := func(kt float64) *loop.Result {
				h := helm.New().Tune(1.0, 0.5, 0, kt)
				sat := loop.Saturation{Min: -0.5, Max: 0.5}
				l := loop.New(h, plant.NewFirstOrder(1), sat, loop.Constant(1))
				res, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: 40})
				Expect(err).NotTo(HaveOccurred())
				return res
			}

			maxAbs := func(xs []float64) float64 {
				m := 0.0
				for _, x := range xs {
					m = math.Max(m, math.Abs(x))
				}
				return m
			}

			// The setpoint is unreachable under the clamp, so without
			// reset the integral keeps climbing for the whole run.
			Expect(maxAbs(run(0).Controls)).To(BeNumerically(">", 5))
			Expect(maxAbs(run(1).Controls)).To(BeNumerically("<", 2))
		})
	})

	Describe("divergence detection", func() {
		It("fails with a step error when the plant output blows up", func() {
			l := loop.New(helm.New(), brokenPlant{}, nil, loop.Constant(0))

			_, err := l.Run(ctx, loop.Config{Dt: 0.01, Duration: 1})

			var stepErr loop.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(0))
			Expect(stepErr.Error()).To(ContainSubstring("not finite"))
		})
	})

	Describe("RunWithCallback", func() {
		It("stops early when the callback declines more data", func() {
			h := helm.New()
			l := loop.New(h, plant.NewFirstOrder(1), nil, loop.Constant(0))

			calls := 0
			err := l.RunWithCallback(ctx, loop.Config{Dt: 0.01, Duration: 10},
				func(t, r, u, v float64, x []float64) bool {
					calls++
					return calls < 10
				})
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal(10))
		})
	})
})
