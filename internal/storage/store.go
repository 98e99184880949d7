package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/RhysU/helm/internal/config"
	"github.com/RhysU/helm/internal/loop"
)

// Store persists closed-loop runs, one directory per run holding
// metadata.json and trajectory.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata records how a run was produced and how it scored.
type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Config    config.Config      `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Trajectory holds the recorded signals of one run.
type Trajectory struct {
	Times    []float64
	Refs     []float64
	Applied  []float64
	Controls []float64
	States   [][]float64
}

// Outputs returns the observable plant signal y0.
func (tr *Trajectory) Outputs() []float64 {
	outputs := make([]float64, len(tr.States))
	for i, s := range tr.States {
		if len(s) > 0 {
			outputs[i] = s[0]
		}
	}
	return outputs
}

// Save writes one run and returns its generated id.
func (s *Store) Save(cfg *config.Config, result *loop.Result) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Config:    *cfg,
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(result.States) == 0 {
		return runID, nil
	}

	header := []string{"time", "r", "u", "v"}
	for i := range result.States[0] {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range result.Times {
		row := []string{
			strconv.FormatFloat(result.Times[i], 'f', 6, 64),
			strconv.FormatFloat(result.Refs[i], 'f', 6, 64),
			strconv.FormatFloat(result.Applied[i], 'f', 6, 64),
			strconv.FormatFloat(result.Controls[i], 'f', 6, 64),
		}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns the metadata of every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue // unreadable runs are skipped, not fatal
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory reads one run's recorded signals.
func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return &Trajectory{}, nil
	}

	tr := &Trajectory{}
	for _, record := range records[1:] {
		if len(record) < 4 {
			continue
		}
		fields := make([]float64, 0, len(record))
		ok := true
		for _, cell := range record {
			val, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				ok = false
				break
			}
			fields = append(fields, val)
		}
		if !ok {
			continue
		}
		tr.Times = append(tr.Times, fields[0])
		tr.Refs = append(tr.Refs, fields[1])
		tr.Applied = append(tr.Applied, fields[2])
		tr.Controls = append(tr.Controls, fields[3])
		tr.States = append(tr.States, fields[4:])
	}
	return tr, nil
}

// ExportJSON writes one run as a single JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, tr *Trajectory) error {
	doc := struct {
		RunMetadata
		Times    []float64   `json:"times"`
		Refs     []float64   `json:"refs"`
		Applied  []float64   `json:"applied"`
		Controls []float64   `json:"controls"`
		States   [][]float64 `json:"states"`
	}{
		RunMetadata: *meta,
		Times:       tr.Times,
		Refs:        tr.Refs,
		Applied:     tr.Applied,
		Controls:    tr.Controls,
		States:      tr.States,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
