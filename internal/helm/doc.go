// Package helm implements an incremental, discrete-time PID controller
// suitable for embedding inside a sampled control loop.
//
// The controller follows Chapter 10 of Astrom and Murray, "Feedback
// Systems", and features:
//
//   - incremental output for bumpless manual-to-automatic transitions
//   - derivative on measurement to avoid kick on setpoint changes
//   - first-order low-pass filtering of the derivative signal
//   - automatic reset against integral windup on actuator saturation
//   - a unified gain with all physical time scales exposed
//   - tolerance for a varying sample interval
//
// Let f be a low-pass filtered version of process output y with filter
// time scale Tf. Per sample the controller computes
//
//	alpha = dt / (Tf + dt)
//	df    = alpha * (y - f)
//	dy    = y - yPrev
//	dv    = Kp * [ dt*( (r-y)/Ti + (u-v)/Tt ) + (Td/Tf)*(df - dy) - dy ]
//
// where r is the reference, u the actuator signal observed, and v the
// actuator signal requested. The returned dv is the change to apply to
// the caller's control signal, not its absolute value. Only yPrev and f
// persist across samples.
//
// A [State] is owned by exactly one caller and performs no internal
// synchronization.
//
//	h := helm.New().Tune(kp, ki, kd, kt)
//	h.Approach()
//	for {
//		y := measure()
//		v += h.Steady(dt, r, u, v, helm.Sample(y))
//		u = actuate(v)
//	}
package helm
