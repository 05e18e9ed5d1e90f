package solver

import (
	"testing"

	"github.com/san-kum/liquidlab/internal/field"
)

func TestDiffuseDye_Smooths(t *testing.T) {
	g, _ := field.NewGrid(32, 32, 1.0)
	dye := field.NewDye(g)
	x0 := field.NewDye(g)
	work := field.NewDye(g)

	dye.Set(16, 16, 10, 0, 0)

	diffuseDye(dye, x0, work, 0.1, 0.0001, 4)

	peak, _, _ := dye.At(16, 16)
	if peak >= 10 {
		t.Errorf("peak %g did not decrease", peak)
	}
	neighbor, _, _ := dye.At(17, 16)
	if neighbor <= 0 {
		t.Error("dye did not spread to neighbor")
	}
	for _, buf := range dye.C {
		for i, v := range buf {
			if v < 0 {
				t.Fatalf("cell %d negative after diffusion: %g", i, v)
			}
		}
	}
}

func TestDiffuseDye_ZeroRateIsNoOp(t *testing.T) {
	g, _ := field.NewGrid(16, 16, 1.0)
	dye := field.NewDye(g)
	x0 := field.NewDye(g)
	work := field.NewDye(g)
	dye.Set(8, 8, 3, 1, 0)

	diffuseDye(dye, x0, work, 0.1, 0, 4)

	r, gg, b := dye.At(8, 8)
	if r != 3 || gg != 1 || b != 0 {
		t.Errorf("zero-rate diffusion changed field: (%g,%g,%g)", r, gg, b)
	}
}

func TestDiffuseVelocity_DampsShear(t *testing.T) {
	g, _ := field.NewGrid(32, 32, 1.0)
	vel := field.NewVelocity(g)
	x0 := field.NewVelocity(g)
	work := field.NewVelocity(g)

	// opposing rows, the sharpest shear the grid can hold
	for x := 1; x < g.Width-1; x++ {
		vel.Set(x, 15, 1, 0)
		vel.Set(x, 16, -1, 0)
	}

	diffuseVelocity(vel, x0, work, 0.1, 0.001, 4)

	vx, _ := vel.At(16, 15)
	if vx >= 1 || vx <= 0 {
		t.Errorf("shear row not damped toward zero: %g", vx)
	}
	if !vel.IsValid() {
		t.Fatal("diffusion produced NaN/Inf")
	}

	// walls stay walls
	if vx, vy := vel.At(0, 15); vx != 0 || vy != 0 {
		t.Error("boundary velocity leaked")
	}
}

func TestDiffuseVelocity_StableAtLargeCoefficient(t *testing.T) {
	g, _ := field.NewGrid(32, 32, 1.0)
	vel := field.NewVelocity(g)
	x0 := field.NewVelocity(g)
	work := field.NewVelocity(g)
	vel.Set(16, 16, 100, -100)

	// implicit formulation must not blow up no matter how stiff
	diffuseVelocity(vel, x0, work, 1.0, 10.0, 8)

	if !vel.IsValid() {
		t.Fatal("implicit diffusion diverged")
	}
	vx, _ := vel.At(16, 16)
	if vx >= 100 {
		t.Errorf("stiff diffusion did not damp the spike: %g", vx)
	}
}
