package tune

import (
	"context"
	"math"
)

// Evaluate scores one candidate parameter set; lower is better. A
// typical implementation runs a closed loop and returns a tracking
// metric such as IAE.
type Evaluate func(params map[string]float64) (float64, error)

// GridSearch exhaustively sweeps the cartesian product of candidate
// values for each named parameter.
type GridSearch struct {
	names  []string
	values [][]float64
}

// NewGridSearch pairs each parameter name with its candidate values.
func NewGridSearch(names []string, values [][]float64) *GridSearch {
	return &GridSearch{names: names, values: values}
}

// Search returns the best-scoring parameter set. Candidates whose
// evaluation fails are skipped; cancellation stops the sweep and
// returns the best result found so far along with the context error.
func (g *GridSearch) Search(ctx context.Context, eval Evaluate) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.sweep(ctx, 0, make(map[string]float64), eval, &best, &bestParams)
	return bestParams, best, err
}

func (g *GridSearch) sweep(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval Evaluate,
	best *float64,
	bestParams *map[string]float64,
) error {
	if depth == len(g.names) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		score, err := eval(current)
		if err != nil {
			return nil
		}
		if score < *best {
			*best = score
			picked := make(map[string]float64, len(current))
			for k, v := range current {
				picked[k] = v
			}
			*bestParams = picked
		}
		return nil
	}

	for _, val := range g.values[depth] {
		current[g.names[depth]] = val
		if err := g.sweep(ctx, depth+1, current, eval, best, bestParams); err != nil {
			return err
		}
	}
	delete(current, g.names[depth])
	return nil
}
