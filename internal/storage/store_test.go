package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/RhysU/helm/internal/config"
	"github.com/RhysU/helm/internal/loop"
)

func sampleResult() *loop.Result {
	return &loop.Result{
		Times:    []float64{0, 0.01, 0.02},
		Refs:     []float64{1, 1, 1},
		Outputs:  []float64{0, 0.1, 0.2},
		Controls: []float64{0.5, 0.6, 0.7},
		Applied:  []float64{0.5, 0.6, 0.7},
		States: [][]float64{
			{0, 0, 0},
			{0.1, 0.05, 0.01},
			{0.2, 0.08, 0.02},
		},
		Metrics: map[string]float64{"iae": 0.25},
		Steps:   3,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg := config.Default()
	runID, err := st.Save(cfg, sampleResult())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.ID != runID {
		t.Errorf("ID = %q, want %q", meta.ID, runID)
	}
	if meta.Config != *cfg {
		t.Errorf("config mismatch: got %+v", meta.Config)
	}
	if meta.Metrics["iae"] != 0.25 {
		t.Errorf("metrics = %v, want iae 0.25", meta.Metrics)
	}

	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("LoadTrajectory: %v", err)
	}
	if len(tr.Times) != 3 {
		t.Fatalf("loaded %d rows, want 3", len(tr.Times))
	}
	if math.Abs(tr.Controls[2]-0.7) > 1e-9 {
		t.Errorf("Controls[2] = %g, want 0.7", tr.Controls[2])
	}
	if len(tr.States[1]) != 3 || math.Abs(tr.States[1][0]-0.1) > 1e-9 {
		t.Errorf("States[1] = %v, want [0.1 0.05 0.01]", tr.States[1])
	}

	outputs := tr.Outputs()
	if math.Abs(outputs[2]-0.2) > 1e-9 {
		t.Errorf("Outputs()[2] = %g, want 0.2", outputs[2])
	}
}

func TestListEmptyBaseDir(t *testing.T) {
	st := New(t.TempDir() + "/never-created")

	runs, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs, want 0", len(runs))
	}
}

func TestListReturnsSavedRuns(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Save(config.Default(), sampleResult()); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Save(config.Default(), sampleResult()); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}
}

func TestLoadUnknownRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("run_missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := st.Save(config.Default(), sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, meta, tr); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc["id"] != runID {
		t.Errorf("exported id = %v, want %q", doc["id"], runID)
	}
	if _, ok := doc["times"]; !ok {
		t.Error("export missing times")
	}
}
