package loop

// Direct applies the requested signal unchanged.
type Direct struct{}

func (Direct) Apply(dt, v float64) float64 {
	return v
}

// Saturation clamps the requested signal to [Min, Max]. Pair it with a
// finite automatic reset time scale on the controller to keep the
// integral term from winding up against the limits.
type Saturation struct {
	Min float64
	Max float64
}

func (s Saturation) Apply(dt, v float64) float64 {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// RateLimit bounds how fast the applied signal may slew toward the
// requested one, in signal units per time unit.
type RateLimit struct {
	Slew float64

	u       float64
	engaged bool
}

func (r *RateLimit) Apply(dt, v float64) float64 {
	if !r.engaged {
		r.u = v
		r.engaged = true
		return r.u
	}
	limit := r.Slew * dt
	switch {
	case v > r.u+limit:
		r.u += limit
	case v < r.u-limit:
		r.u -= limit
	default:
		r.u = v
	}
	return r.u
}
