package elements

import (
	"math"
	"testing"

	"github.com/san-kum/liquidlab/internal/field"
)

func newEngine(t *testing.T, w, h int) (Engine, field.Grid) {
	t.Helper()
	g, err := field.NewGrid(w, h, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(g), g
}

func TestApplyForce_Falloff(t *testing.T) {
	e, g := newEngine(t, 32, 32)
	vel := field.NewVelocity(g)

	e.ApplyForce(vel, Vec2{X: 16, Y: 16}, 4, Vec2{X: 1, Y: 0}, 2)

	// zero distance gets the full contribution
	vx, vy := vel.At(16, 16)
	if vx != 2 || vy != 0 {
		t.Errorf("center = (%f,%f), want (2,0)", vx, vy)
	}

	// half the radius gets 1 - 0.25 of it
	vx, _ = vel.At(18, 16)
	if math.Abs(vx-2*0.75) > 1e-12 {
		t.Errorf("half radius = %f, want %f", vx, 2*0.75)
	}

	// outside the radius untouched
	vx, vy = vel.At(21, 16)
	if vx != 0 || vy != 0 {
		t.Errorf("outside radius = (%f,%f), want zero", vx, vy)
	}
}

func TestApplyForce_Accumulates(t *testing.T) {
	e, g := newEngine(t, 32, 32)
	vel := field.NewVelocity(g)

	e.ApplyForce(vel, Vec2{X: 16, Y: 16}, 4, Vec2{X: 1, Y: 0}, 2)
	e.ApplyForce(vel, Vec2{X: 16, Y: 16}, 4, Vec2{X: 0, Y: 1}, 3)

	vx, vy := vel.At(16, 16)
	if vx != 2 || vy != 3 {
		t.Errorf("overlapping forces = (%f,%f), want (2,3)", vx, vy)
	}
}

func TestApplyForce_ClampsPosition(t *testing.T) {
	e, g := newEngine(t, 32, 32)
	vel := field.NewVelocity(g)

	// position far outside the grid must not panic and must land clamped
	e.ApplyForce(vel, Vec2{X: -100, Y: 16}, 3, Vec2{X: 1, Y: 0}, 1)
	vx, _ := vel.At(0, 16)
	if vx != 1 {
		t.Errorf("clamped force center = %f, want 1", vx)
	}
}

func TestInjectDye_Accounting(t *testing.T) {
	e, g := newEngine(t, 32, 32)
	dye := field.NewDye(g)

	injected := e.InjectDye(dye, Vec2{X: 16, Y: 16}, 3, Color{R: 1, G: 0, B: 0.5}, 2)

	sums := dye.ChannelSums()
	for c := 0; c < field.NumChannels; c++ {
		if math.Abs(sums[c]-injected[c]) > 1e-12 {
			t.Errorf("channel %d: field sum %f != reported injection %f", c, sums[c], injected[c])
		}
	}
	if injected[field.ChannelR] <= 0 {
		t.Error("expected positive red injection")
	}
	if injected[field.ChannelG] != 0 {
		t.Errorf("green injection %f, want 0", injected[field.ChannelG])
	}
}

func TestInjectDye_NegativeClampsAtZero(t *testing.T) {
	e, g := newEngine(t, 32, 32)
	dye := field.NewDye(g)

	// removal from an empty field removes nothing and reports nothing
	injected := e.InjectDye(dye, Vec2{X: 16, Y: 16}, 3, Color{R: 1, G: 0, B: 0}, -2)
	if injected[field.ChannelR] != 0 {
		t.Errorf("reported %f removed from empty field, want 0", injected[field.ChannelR])
	}
	if sum := dye.ChannelSum(field.ChannelR); sum != 0 {
		t.Errorf("field sum %f, want 0", sum)
	}

	// partial removal reports exactly what came out
	dye.Set(16, 16, 0.1, 0, 0)
	injected = e.InjectDye(dye, Vec2{X: 16, Y: 16}, 3, Color{R: 1, G: 0, B: 0}, -2)
	if math.Abs(injected[field.ChannelR]+0.1) > 1e-12 {
		t.Errorf("reported %f, want -0.1", injected[field.ChannelR])
	}
}

func TestApplyAttractor_Decay(t *testing.T) {
	e, g := newEngine(t, 64, 64)
	vel := field.NewVelocity(g)

	const strength = 5.0
	const radius = 10.0
	center := Vec2{X: 32, Y: 32}
	e.ApplyAttractor(vel, center, radius, strength)

	// magnitude at distance r (inside dead zone..sponge) is s/(2*pi*r^2),
	// pointed toward the center
	for _, r := range []float64{3, 5, 7} {
		vx, vy := vel.At(32+int(r), 32)
		want := strength / (2 * math.Pi * r * r)
		if math.Abs(vx+want) > 1e-12 {
			t.Errorf("r=%v: vx = %f, want %f", r, vx, -want)
		}
		if vy != 0 {
			t.Errorf("r=%v: vy = %f, want 0", r, vy)
		}
	}

	// strictly decaying with distance
	m3 := mag(vel.At(35, 32))
	m5 := mag(vel.At(37, 32))
	m7 := mag(vel.At(39, 32))
	if !(m3 > m5 && m5 > m7) {
		t.Errorf("attractor pull not decaying: %f, %f, %f", m3, m5, m7)
	}
}

func TestApplyAttractor_DeadZoneAndRange(t *testing.T) {
	e, g := newEngine(t, 64, 64)
	vel := field.NewVelocity(g)
	e.ApplyAttractor(vel, Vec2{X: 32, Y: 32}, 10, 5)

	// dead zone: r <= 2 stays still
	if m := mag(vel.At(32, 32)); m != 0 {
		t.Errorf("center moved: %f", m)
	}
	if m := mag(vel.At(33, 32)); m != 0 {
		t.Errorf("dead zone moved: %f", m)
	}

	// outside the radius untouched
	if m := mag(vel.At(43, 32)); m != 0 {
		t.Errorf("outside radius moved: %f", m)
	}
}

func TestApplyAttractor_SpongeDampsVelocity(t *testing.T) {
	e, g := newEngine(t, 64, 64)
	vel := field.NewVelocity(g)

	// preload velocity in the sponge band (inner edge at r=8)
	vel.Set(41, 32, 1, 0) // r = 9

	// zero strength adds no pull but the band still damps
	e.ApplyAttractor(vel, Vec2{X: 32, Y: 32}, 10, 0)
	vx, _ := vel.At(41, 32)
	if vx >= 1 {
		t.Errorf("sponge band did not damp: %f", vx)
	}
	if vx <= 0 {
		t.Errorf("sponge band over-damped: %f", vx)
	}
}

func TestApplyDispatch(t *testing.T) {
	e, g := newEngine(t, 32, 32)
	vel := field.NewVelocity(g)
	dye := field.NewDye(g)

	inj := e.Apply(NewDyeSource(Vec2{X: 16, Y: 16}, 3, Color{R: 1}, 2), vel, dye)
	if inj[field.ChannelR] <= 0 {
		t.Error("dye source dispatch injected nothing")
	}

	inj = e.Apply(NewForce(Vec2{X: 16, Y: 16}, 3, Vec2{X: 1, Y: 0}, 1), vel, dye)
	if inj != [field.NumChannels]float64{} {
		t.Error("force dispatch reported dye injection")
	}
	if vx, _ := vel.At(16, 16); vx == 0 {
		t.Error("force dispatch did not move velocity")
	}
}

func mag(vx, vy float64) float64 {
	return math.Hypot(vx, vy)
}
