package tune

import (
	"context"
	"errors"
	"testing"
)

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch(
		[]string{"kp", "ki"},
		[][]float64{{1, 2, 3}, {0.5, 1.0, 1.5}},
	)

	eval := func(p map[string]float64) (float64, error) {
		dkp := p["kp"] - 2
		dki := p["ki"] - 1
		return dkp*dkp + dki*dki, nil
	}

	params, score, err := g.Search(context.Background(), eval)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if params["kp"] != 2 || params["ki"] != 1 {
		t.Errorf("best params = %v, want kp=2 ki=1", params)
	}
	if score != 0 {
		t.Errorf("best score = %g, want 0", score)
	}
}

func TestGridSearchSkipsFailedCandidates(t *testing.T) {
	g := NewGridSearch([]string{"kp"}, [][]float64{{1, 2, 3}})

	eval := func(p map[string]float64) (float64, error) {
		if p["kp"] == 1 {
			return 0, errors.New("loop diverged")
		}
		return p["kp"], nil
	}

	params, score, err := g.Search(context.Background(), eval)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if params["kp"] != 2 || score != 2 {
		t.Errorf("best = %v score %g, want kp=2 score 2", params, score)
	}
}

func TestGridSearchHonorsCancellation(t *testing.T) {
	g := NewGridSearch([]string{"kp"}, [][]float64{{1, 2, 3}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := g.Search(ctx, func(map[string]float64) (float64, error) {
		t.Error("eval should not run after cancellation")
		return 0, nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
