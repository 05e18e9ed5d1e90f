package solver

import (
	"math"
	"testing"

	"github.com/san-kum/liquidlab/internal/elements"
	"github.com/san-kum/liquidlab/internal/field"
)

func newState(t *testing.T, w, h int) *State {
	t.Helper()
	s, err := New(w, h, DefaultParams())
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return s
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		mut    func(*Params)
		wantOK bool
	}{
		{"minimum grid", 3, 3, nil, true},
		{"normal", 128, 96, nil, true},
		{"grid too small", 2, 100, nil, false},
		{"zero iterations", 64, 64, func(p *Params) { p.MaxIterations = 0 }, false},
		{"negative iterations", 64, 64, func(p *Params) { p.MaxIterations = -3 }, false},
		{"negative viscosity", 64, 64, func(p *Params) { p.Viscosity = -1 }, false},
		{"negative diffusion", 64, 64, func(p *Params) { p.DiffusionRate = -1 }, false},
		{"negative tolerance", 64, 64, func(p *Params) { p.Tolerance = -1 }, false},
		{"negative dt", 64, 64, func(p *Params) { p.Dt = -0.1 }, false},
	}
	for _, tt := range tests {
		params := DefaultParams()
		if tt.mut != nil {
			tt.mut(&params)
		}
		_, err := New(tt.w, tt.h, params)
		if (err == nil) != tt.wantOK {
			t.Errorf("%s: err = %v, want ok %v", tt.name, err, tt.wantOK)
		}
	}
}

func TestStep_NegativeDt(t *testing.T) {
	s := newState(t, 16, 16)
	if err := s.Step(-0.1); err == nil {
		t.Error("expected error for negative dt")
	}
}

func TestStep_ZeroDtIsNoOp(t *testing.T) {
	s := newState(t, 32, 32)
	s.InjectDye(elements.Vec2{X: 16, Y: 16}, 3, elements.Color{R: 1}, 5)
	if err := s.Step(0.1); err != nil {
		t.Fatal(err)
	}

	before := s.Mass()
	velBefore := s.vel.Clone()
	dyeBefore := s.dye.Clone()

	if err := s.Step(0); err != nil {
		t.Fatalf("zero dt step: %v", err)
	}
	if s.StepCount() != 1 {
		t.Errorf("step count advanced on zero dt: %d", s.StepCount())
	}
	if s.Mass() != before {
		t.Error("mass changed on zero dt")
	}
	for i := range velBefore.VX {
		if s.vel.VX[i] != velBefore.VX[i] || s.vel.VY[i] != velBefore.VY[i] {
			t.Fatal("velocity changed on zero dt")
		}
	}
	for c := 0; c < field.NumChannels; c++ {
		for i := range dyeBefore.C[c] {
			if s.dye.C[c][i] != dyeBefore.C[c][i] {
				t.Fatal("dye changed on zero dt")
			}
		}
	}
}

func TestStep_MassConservation(t *testing.T) {
	s := newState(t, 100, 100)
	s.AddElement(elements.NewDyeSource(elements.Vec2{X: 50, Y: 50}, 3, elements.Color{R: 1}, 5))
	s.AddElement(elements.NewAttractor(elements.Vec2{X: 70, Y: 50}, 10, 5))
	s.AddElement(elements.NewForce(elements.Vec2{X: 30, Y: 50}, 8, elements.Vec2{X: 1, Y: 0.5}, 2))

	for i := 0; i < 50; i++ {
		if err := s.Step(0.1); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		report := s.Report()
		actual := s.Mass() // recomputed from the field, not the report
		for c := 0; c < field.NumChannels; c++ {
			target := report.Target[c]
			if target == 0 {
				if actual[c] != 0 {
					t.Fatalf("step %d channel %d: mass %g with zero target", i, c, actual[c])
				}
				continue
			}
			drift := math.Abs(actual[c]-target) / target
			if drift > 1e-5 {
				t.Fatalf("step %d channel %d: relative drift %g exceeds 1e-5", i, c, drift)
			}
		}
	}

	// the persistent source keeps injecting, so red mass must have grown
	if s.Mass()[field.ChannelR] <= 0 {
		t.Error("expected accumulated red dye")
	}
}

func TestStep_InjectionAccounting(t *testing.T) {
	s := newState(t, 64, 64)

	s.InjectDye(elements.Vec2{X: 32, Y: 32}, 4, elements.Color{R: 1, G: 0, B: 0}, 3)
	if err := s.Step(0.1); err != nil {
		t.Fatal(err)
	}

	r := s.Report()
	if r.Target[field.ChannelR] <= 0 {
		t.Fatal("injection did not reach the conservation target")
	}
	if math.Abs(s.Mass()[field.ChannelR]-r.Target[field.ChannelR]) > 1e-9 {
		t.Errorf("mass %g != target %g", s.Mass()[field.ChannelR], r.Target[field.ChannelR])
	}

	// transient input is consumed: the next step injects nothing new
	target := r.Target[field.ChannelR]
	if err := s.Step(0.1); err != nil {
		t.Fatal(err)
	}
	if got := s.Report().Target[field.ChannelR]; math.Abs(got-target) > 1e-9 {
		t.Errorf("second-step target %g, want unchanged %g", got, target)
	}
}

func TestStep_BoundaryVelocityStaysZero(t *testing.T) {
	s := newState(t, 48, 48)
	// forces pushing straight at the walls
	s.AddElement(elements.NewForce(elements.Vec2{X: 3, Y: 24}, 6, elements.Vec2{X: -1, Y: 0}, 4))
	s.AddElement(elements.NewForce(elements.Vec2{X: 24, Y: 44}, 6, elements.Vec2{X: 0, Y: 1}, 4))

	for i := 0; i < 10; i++ {
		if err := s.Step(0.1); err != nil {
			t.Fatal(err)
		}
	}

	g := s.Grid()
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if !g.IsBoundary(x, y) {
				continue
			}
			vx, vy := s.vel.At(x, y)
			if vx != 0 || vy != 0 {
				t.Fatalf("boundary cell (%d,%d) = (%g,%g), want zero", x, y, vx, vy)
			}
		}
	}
}

func TestStep_InvalidFieldReturnsError(t *testing.T) {
	s := newState(t, 16, 16)
	s.vel.VX[s.Grid().Index(8, 8)] = math.NaN()
	if err := s.Step(0.1); err == nil {
		t.Error("expected error for NaN velocity")
	}
}

func TestStep_NaNForceFailsSoft(t *testing.T) {
	s := newState(t, 32, 32)
	s.ApplyForce(elements.Vec2{X: 16, Y: 16}, 4, elements.Vec2{X: 1, Y: 0}, math.NaN())

	// degenerate input must surface as the step error, never a panic
	if err := s.Step(0.1); err == nil {
		t.Error("expected error for NaN force strength")
	}
}

func TestElements_Lifecycle(t *testing.T) {
	s := newState(t, 32, 32)
	id := s.AddElement(elements.NewDyeSource(elements.Vec2{X: 16, Y: 16}, 3, elements.Color{G: 1}, 2))
	if len(s.Elements()) != 1 {
		t.Fatal("element not added")
	}

	if err := s.Step(0.1); err != nil {
		t.Fatal(err)
	}
	massWith := s.Mass()[field.ChannelG]
	if massWith <= 0 {
		t.Fatal("persistent source injected nothing")
	}

	if !s.RemoveElement(id) {
		t.Fatal("remove failed")
	}
	if err := s.Step(0.1); err != nil {
		t.Fatal(err)
	}
	if got := s.Mass()[field.ChannelG]; math.Abs(got-massWith) > 1e-9 {
		t.Errorf("mass kept growing after removal: %g -> %g", massWith, got)
	}
}

func TestClear(t *testing.T) {
	s := newState(t, 32, 32)
	s.InjectDye(elements.Vec2{X: 16, Y: 16}, 3, elements.Color{B: 1}, 4)
	if err := s.Step(0.1); err != nil {
		t.Fatal(err)
	}
	s.Clear()
	if s.Mass() != [field.NumChannels]float64{} {
		t.Error("clear left dye behind")
	}
	if !s.vel.IsValid() {
		t.Error("clear corrupted velocity")
	}
}

func TestResize_ScalesElements(t *testing.T) {
	s := newState(t, 100, 100)
	s.AddElement(elements.NewAttractor(elements.Vec2{X: 50, Y: 50}, 5, 3))
	if err := s.Step(0.1); err != nil {
		t.Fatal(err)
	}

	if err := s.Resize(200, 200); err != nil {
		t.Fatal(err)
	}
	if s.Grid().Width != 200 {
		t.Errorf("width %d, want 200", s.Grid().Width)
	}
	if s.StepCount() != 0 {
		t.Error("step count should reset on resize")
	}

	items := s.Elements()
	if len(items) != 1 {
		t.Fatalf("elements lost on resize: %d", len(items))
	}
	if items[0].Pos.X != 100 || items[0].Pos.Y != 100 || items[0].Radius != 10 {
		t.Errorf("element not scaled: pos (%g,%g) radius %g", items[0].Pos.X, items[0].Pos.Y, items[0].Radius)
	}

	if err := s.Resize(2, 2); err == nil {
		t.Error("expected error for sub-minimum resize")
	}
}

func TestDyeSnapshot_Isolated(t *testing.T) {
	s := newState(t, 32, 32)
	s.AddElement(elements.NewDyeSource(elements.Vec2{X: 16, Y: 16}, 3, elements.Color{R: 1}, 4))
	if err := s.Step(0.1); err != nil {
		t.Fatal(err)
	}

	snap := s.DyeSnapshot()
	defer s.ReleaseSnapshot(snap)
	before := snap.ChannelSum(field.ChannelR)

	for i := 0; i < 5; i++ {
		if err := s.Step(0.1); err != nil {
			t.Fatal(err)
		}
	}
	if snap.ChannelSum(field.ChannelR) != before {
		t.Error("snapshot mutated by later steps")
	}
}
