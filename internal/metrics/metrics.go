// Package metrics aggregates per-step solver diagnostics over a run.
package metrics

import (
	"math"

	"github.com/san-kum/liquidlab/internal/solver"
)

// Metric consumes one StepReport per step and reduces it to a scalar.
type Metric interface {
	Name() string
	Observe(r solver.StepReport)
	Value() float64
	Reset()
}

// MassDrift tracks the worst relative deviation of per-channel dye mass
// from the conservation target.
type MassDrift struct {
	name     string
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(r solver.StepReport) {
	m.samples++
	for c := range r.Mass {
		target := r.Target[c]
		if target == 0 {
			continue
		}
		drift := math.Abs(r.Mass[c]-target) / math.Abs(target)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.maxDrift = 0
	m.samples = 0
}
