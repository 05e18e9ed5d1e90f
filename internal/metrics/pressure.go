package metrics

import "github.com/san-kum/liquidlab/internal/solver"

// Residual averages the pressure-solve residual across steps and keeps the
// worst single step.
type Residual struct {
	name    string
	total   float64
	max     float64
	samples int
}

func NewResidual() *Residual {
	return &Residual{name: "residual"}
}

func (m *Residual) Name() string { return m.name }

func (m *Residual) Observe(r solver.StepReport) {
	m.total += r.Residual
	if r.Residual > m.max {
		m.max = r.Residual
	}
	m.samples++
}

func (m *Residual) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

// Max returns the worst residual seen since the last Reset.
func (m *Residual) Max() float64 { return m.max }

func (m *Residual) Reset() {
	m.total = 0
	m.max = 0
	m.samples = 0
}

// Convergence measures how often the pressure solve exits before hitting
// the iteration cap. 1.0 means every step converged early.
type Convergence struct {
	name    string
	cap     int
	early   int
	samples int
}

func NewConvergence(maxIterations int) *Convergence {
	return &Convergence{name: "convergence", cap: maxIterations}
}

func (m *Convergence) Name() string { return m.name }

func (m *Convergence) Observe(r solver.StepReport) {
	m.samples++
	if r.Iterations < m.cap {
		m.early++
	}
}

func (m *Convergence) Value() float64 {
	if m.samples == 0 {
		return 1.0
	}
	return float64(m.early) / float64(m.samples)
}

func (m *Convergence) Reset() {
	m.early = 0
	m.samples = 0
}

// StepTime averages wall-clock step duration in milliseconds.
type StepTime struct {
	name    string
	total   float64
	samples int
}

func NewStepTime() *StepTime {
	return &StepTime{name: "step_ms"}
}

func (m *StepTime) Name() string { return m.name }

func (m *StepTime) Observe(r solver.StepReport) {
	m.total += float64(r.Duration.Microseconds()) / 1000.0
	m.samples++
}

func (m *StepTime) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *StepTime) Reset() {
	m.total = 0
	m.samples = 0
}
