// Package telemetry writes per-step solver diagnostics to CSV for offline
// analysis of a run.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/liquidlab/internal/config"
	"github.com/san-kum/liquidlab/internal/field"
	"github.com/san-kum/liquidlab/internal/solver"
)

// StepStats is one CSV row of solver diagnostics.
type StepStats struct {
	Step       uint64  `csv:"step"`
	MassR      float64 `csv:"mass_r"`
	MassG      float64 `csv:"mass_g"`
	MassB      float64 `csv:"mass_b"`
	TargetR    float64 `csv:"target_r"`
	TargetG    float64 `csv:"target_g"`
	TargetB    float64 `csv:"target_b"`
	Residual   float64 `csv:"residual"`
	Iterations int     `csv:"iterations"`
	StepMS     float64 `csv:"step_ms"`
}

func statsFromReport(r solver.StepReport) StepStats {
	return StepStats{
		Step:       r.Step,
		MassR:      r.Mass[field.ChannelR],
		MassG:      r.Mass[field.ChannelG],
		MassB:      r.Mass[field.ChannelB],
		TargetR:    r.Target[field.ChannelR],
		TargetG:    r.Target[field.ChannelG],
		TargetB:    r.Target[field.ChannelB],
		Residual:   r.Residual,
		Iterations: r.Iterations,
		StepMS:     float64(r.Duration.Microseconds()) / 1000.0,
	}
}

// Recorder streams step records into <dir>/steps.csv. A nil Recorder is a
// valid no-op, so callers pass it around unconditionally.
type Recorder struct {
	dir           string
	stepFile      *os.File
	headerWritten bool
}

// NewRecorder opens the output directory. Returns nil if dir is empty
// (recording disabled).
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "steps.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating steps.csv: %w", err)
	}
	return &Recorder{dir: dir, stepFile: f}, nil
}

// RecordStep appends one step's diagnostics.
func (r *Recorder) RecordStep(report solver.StepReport) error {
	if r == nil {
		return nil
	}
	records := []StepStats{statsFromReport(report)}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.stepFile); err != nil {
			return fmt.Errorf("writing step stats: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.stepFile); err != nil {
		return fmt.Errorf("writing step stats: %w", err)
	}
	return nil
}

// WriteConfig saves the run's configuration alongside the CSV so a run
// directory is self-describing.
func (r *Recorder) WriteConfig(cfg *config.Config) error {
	if r == nil {
		return nil
	}
	return config.Save(filepath.Join(r.dir, "config.yaml"), cfg)
}

func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.stepFile.Close()
}
