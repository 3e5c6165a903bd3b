// Package hit models calorimeter and muon-system energy deposits.
//
// A *Hit is referenced by pointer everywhere in this module: two hits with the
// same attributes are still two different hits. Geometry and energies are set
// once at construction; the derived classification fields (density weight,
// possible-mip, isolated, surrounding energy) and the baseline availability
// flag are written later by the feature engine and the availability stack.
package hit

import (
	"fmt"
	"math"

	"github.com/sanonone/calohits/pkg/core/status"
	"gonum.org/v1/gonum/spatial/r3"
)

// Region is the coarse detector region a hit was recorded in.
type Region uint8

const (
	Barrel Region = iota
	Endcap
)

func (r Region) String() string {
	switch r {
	case Barrel:
		return "barrel"
	case Endcap:
		return "endcap"
	default:
		return fmt.Sprintf("Region(%d)", uint8(r))
	}
}

// Type identifies the subdetector that produced the hit.
type Type uint8

const (
	ECal Type = iota
	HCal
	Muon
)

func (t Type) String() string {
	switch t {
	case ECal:
		return "ecal"
	case HCal:
		return "hcal"
	case Muon:
		return "muon"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Params carries the construction-time attributes of a hit.
type Params struct {
	Position r3.Vec
	// CellSizeU is the cell extent along the depth-like axis in the barrel
	// (Z) or along X in the endcap. CellSizeV is the transverse extent.
	CellSizeU float64
	CellSizeV float64

	Region Region
	Type   Type

	HadronicEnergy        float64
	ElectromagneticEnergy float64
	MipEquivalentEnergy   float64

	Layer   uint32
	Digital bool
}

// Hit is a single energy deposit.
type Hit struct {
	position  r3.Vec
	cellSizeU float64
	cellSizeV float64
	region    Region
	hitType   Type

	hadronicEnergy        float64
	electromagneticEnergy float64
	mipEquivalentEnergy   float64

	layer   uint32
	digital bool

	densityWeight     float64
	surroundingEnergy float64
	possibleMip       bool
	isolated          bool

	available bool
}

// New validates p and returns a hit that starts out available.
func New(p Params) (*Hit, error) {
	const op = "hit.New"

	if !finiteVec(p.Position) {
		return nil, status.New(op, status.InvalidParameter, "position %v is not finite", p.Position)
	}
	if !(p.CellSizeU > 0) || !(p.CellSizeV > 0) || math.IsInf(p.CellSizeU, 0) || math.IsInf(p.CellSizeV, 0) {
		return nil, status.New(op, status.InvalidParameter, "cell sizes must be positive, got %g x %g", p.CellSizeU, p.CellSizeV)
	}
	if p.Region > Endcap {
		return nil, status.New(op, status.InvalidParameter, "unknown region %s", p.Region)
	}
	if p.Type > Muon {
		return nil, status.New(op, status.InvalidParameter, "unknown hit type %s", p.Type)
	}
	for _, e := range []float64{p.HadronicEnergy, p.ElectromagneticEnergy, p.MipEquivalentEnergy} {
		if !validNonNegative(e) {
			return nil, status.New(op, status.InvalidParameter, "energy %g must be finite and non-negative", e)
		}
	}

	return &Hit{
		position:              p.Position,
		cellSizeU:             p.CellSizeU,
		cellSizeV:             p.CellSizeV,
		region:                p.Region,
		hitType:               p.Type,
		hadronicEnergy:        p.HadronicEnergy,
		electromagneticEnergy: p.ElectromagneticEnergy,
		mipEquivalentEnergy:   p.MipEquivalentEnergy,
		layer:                 p.Layer,
		digital:               p.Digital,
		available:             true,
	}, nil
}

func (h *Hit) Position() r3.Vec { return h.position }
func (h *Hit) CellSizeU() float64 { return h.cellSizeU }
func (h *Hit) CellSizeV() float64 { return h.cellSizeV }
func (h *Hit) Region() Region { return h.region }
func (h *Hit) Type() Type { return h.hitType }
func (h *Hit) HadronicEnergy() float64 { return h.hadronicEnergy }
func (h *Hit) ElectromagneticEnergy() float64 { return h.electromagneticEnergy }
func (h *Hit) MipEquivalentEnergy() float64 { return h.mipEquivalentEnergy }
func (h *Hit) Layer() uint32 { return h.layer }
func (h *Hit) IsDigital() bool { return h.digital }
func (h *Hit) DensityWeight() float64 { return h.densityWeight }
func (h *Hit) SurroundingEnergy() float64 { return h.surroundingEnergy }
func (h *Hit) IsPossibleMip() bool { return h.possibleMip }
func (h *Hit) IsIsolated() bool { return h.isolated }

// Available returns the baseline availability flag. While a speculative
// session is open the availability stack, not this flag, is authoritative.
func (h *Hit) Available() bool { return h.available }

// SetAvailable writes the baseline availability flag.
func (h *Hit) SetAvailable(available bool) { h.available = available }

// SetDensityWeight stores the density weight. Non-finite or negative values
// are rejected.
func (h *Hit) SetDensityWeight(w float64) error {
	if !validNonNegative(w) {
		return status.New("hit.SetDensityWeight", status.InvalidParameter, "density weight %g must be finite and non-negative", w)
	}
	h.densityWeight = w
	return nil
}

// AddSurroundingEnergy accumulates e into the surrounding energy.
func (h *Hit) AddSurroundingEnergy(e float64) {
	h.surroundingEnergy += e
}

func (h *Hit) SetPossibleMip(v bool) { h.possibleMip = v }
func (h *Hit) SetIsolated(v bool) { h.isolated = v }

func (h *Hit) String() string {
	return fmt.Sprintf("hit{%s/%s layer=%d pos=(%.2f, %.2f, %.2f)}",
		h.hitType, h.region, h.layer, h.position.X, h.position.Y, h.position.Z)
}

func finiteVec(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func validNonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}
