package analysis

import "math"

// Response summarizes a step response trajectory.
type Response struct {
	RiseTime         float64 // 10% to 90% of the span, NaN if never reached
	Overshoot        float64 // worst excursion beyond target over the span
	SettlingTime     float64 // last exit from the 2% band, NaN if never settled
	SteadyStateError float64 // |target - final output|
}

// StepResponse characterizes how outputs approach target over times.
// The span is measured from the first output sample. Both slices must
// share indices; an empty trajectory yields a zero Response.
func StepResponse(times, outputs []float64, target float64) Response {
	if len(times) == 0 || len(times) != len(outputs) {
		return Response{}
	}

	initial := outputs[0]
	span := target - initial
	if span == 0 {
		return Response{SteadyStateError: math.Abs(target - outputs[len(outputs)-1])}
	}

	resp := Response{
		RiseTime:         math.NaN(),
		SettlingTime:     math.NaN(),
		SteadyStateError: math.Abs(target - outputs[len(outputs)-1]),
	}

	t10, t90 := math.NaN(), math.NaN()
	for i, y := range outputs {
		frac := (y - initial) / span
		if math.IsNaN(t10) && frac >= 0.1 {
			t10 = times[i]
		}
		if math.IsNaN(t90) && frac >= 0.9 {
			t90 = times[i]
			break
		}
	}
	if !math.IsNaN(t10) && !math.IsNaN(t90) {
		resp.RiseTime = t90 - t10
	}

	for _, y := range outputs {
		if beyond := (y - target) / span; beyond > resp.Overshoot {
			resp.Overshoot = beyond
		}
	}

	band := 0.02 * math.Abs(span)
	settled := times[0]
	inBand := false
	for i, y := range outputs {
		if math.Abs(y-target) > band {
			inBand = false
			continue
		}
		if !inBand {
			settled = times[i]
			inBand = true
		}
	}
	if inBand {
		resp.SettlingTime = settled
	}

	return resp
}
