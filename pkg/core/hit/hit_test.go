package hit

import (
	"errors"
	"math"
	"testing"

	"github.com/sanonone/calohits/pkg/core/status"
	"gonum.org/v1/gonum/spatial/r3"
)

func validParams() Params {
	return Params{
		Position:            r3.Vec{X: 1800, Y: 10, Z: -250},
		CellSizeU:           5,
		CellSizeV:           5,
		Region:              Barrel,
		Type:                ECal,
		HadronicEnergy:      0.02,
		MipEquivalentEnergy: 1.1,
		Layer:               7,
	}
}

func TestNewValidHit(t *testing.T) {
	h, err := New(validParams())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !h.Available() {
		t.Errorf("fresh hits must start available")
	}
	if h.Layer() != 7 || h.Region() != Barrel || h.Type() != ECal {
		t.Errorf("attributes not stored: %v", h)
	}
	if h.DensityWeight() != 0 || h.IsIsolated() || h.IsPossibleMip() {
		t.Errorf("derived fields must start zeroed")
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"nan position", func(p *Params) { p.Position.X = math.NaN() }},
		{"infinite position", func(p *Params) { p.Position.Z = math.Inf(-1) }},
		{"zero cell size", func(p *Params) { p.CellSizeU = 0 }},
		{"negative cell size", func(p *Params) { p.CellSizeV = -1 }},
		{"unknown region", func(p *Params) { p.Region = Region(9) }},
		{"unknown type", func(p *Params) { p.Type = Type(9) }},
		{"negative energy", func(p *Params) { p.HadronicEnergy = -0.1 }},
		{"nan energy", func(p *Params) { p.MipEquivalentEnergy = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := New(p)
			if !errors.Is(err, status.ErrInvalidParameter) {
				t.Fatalf("expected invalid parameter, got %v", err)
			}
		})
	}
}

func TestSetDensityWeightValidation(t *testing.T) {
	h, _ := New(validParams())

	if err := h.SetDensityWeight(12.5); err != nil {
		t.Fatalf("valid weight rejected: %v", err)
	}
	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		if err := h.SetDensityWeight(bad); err == nil {
			t.Errorf("weight %g should be rejected", bad)
		}
	}
	if h.DensityWeight() != 12.5 {
		t.Errorf("rejected write must not change the stored weight, got %g", h.DensityWeight())
	}
}

func TestSurroundingEnergyAccumulates(t *testing.T) {
	h, _ := New(validParams())
	h.AddSurroundingEnergy(0.5)
	h.AddSurroundingEnergy(0.25)
	if h.SurroundingEnergy() != 0.75 {
		t.Errorf("got %g, want 0.75", h.SurroundingEnergy())
	}
}

func TestListHelpers(t *testing.T) {
	a, _ := New(validParams())
	b, _ := New(validParams())
	l := List{a}

	if !l.Contains(a) || l.Contains(b) {
		t.Errorf("Contains must use pointer identity")
	}

	b.SetIsolated(true)
	got := List{a, b}.Filter(func(h *Hit) bool { return h.IsIsolated() })
	if len(got) != 1 || got[0] != b {
		t.Errorf("Filter returned %v", got)
	}
}

func TestPerpendicularDistance(t *testing.T) {
	pos := r3.Vec{Z: 100}

	if d := PerpendicularDistance(pos, r3.Vec{X: -1}); math.Abs(d-1) > 1e-12 {
		t.Errorf("got %g, want 1", d)
	}
	if d := PerpendicularDistance(pos, r3.Vec{Z: 30}); d != 0 {
		t.Errorf("separation along the position line should give 0, got %g", d)
	}
}

func TestOpeningAngle(t *testing.T) {
	if a := OpeningAngle(r3.Vec{X: 1}, r3.Vec{Y: 2}); math.Abs(a-math.Pi/2) > 1e-12 {
		t.Errorf("got %g, want pi/2", a)
	}
	if a := OpeningAngle(r3.Vec{}, r3.Vec{Y: 2}); a != 0 {
		t.Errorf("zero vector should give 0, got %g", a)
	}
}
