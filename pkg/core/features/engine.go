// Package features computes per-hit topological features from the hits in
// neighbouring layers: density weight, surrounding energy, isolation and the
// possible-mip flag.
//
// The Engine holds no per-hit state. Results are written onto the hits
// themselves and read later by particle-identification code.
package features

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/sanonone/calohits/pkg/core/hit"
	"github.com/sanonone/calohits/pkg/core/layers"
	"github.com/sanonone/calohits/pkg/core/status"
	"gonum.org/v1/gonum/spatial/r3"
)

// surroundingEnergyCells is the half-width, in cells, of the window used to
// collect surrounding energy.
const surroundingEnergyCells = 1.5

// isolationSearchFactor scales MaxSeparation for the isolation neighbour scan.
const isolationSearchFactor = 10

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine evaluates hit features with a fixed Config.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	maxSeparationSquared float64
	mipCells             float64
}

// New validates cfg and returns an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:                  cfg,
		logger:               slog.Default(),
		maxSeparationSquared: cfg.MaxSeparation * cfg.MaxSeparation,
		mipCells:             float64(cfg.MipCellsForNearbyHit) + 0.5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// DensityWeightContribution sums 100 / r^p over the hits of one layer lying
// within MaxSeparation of h, where r is the distance of the neighbour from
// h's line of sight. A neighbour on the line of sight makes the term
// undefined and is reported as a fatal error.
func (e *Engine) DensityWeightContribution(h *hit.Hit, hits hit.List) (float64, error) {
	const op = "features.DensityWeightContribution"

	position := h.Position()
	positionMagnitude := r3.Norm(position)
	contribution := 0.0

	for _, other := range hits {
		if other == h {
			continue
		}
		separation := r3.Sub(position, other.Position())
		if r3.Norm2(separation) > e.maxSeparationSquared {
			continue
		}
		if positionMagnitude == 0 {
			return 0, status.Fatalf(op, status.Failure, "%v sits at the origin", h)
		}

		r := r3.Norm(r3.Cross(position, separation)) / positionMagnitude
		rN := 1.0
		for i := uint(0); i < e.cfg.DensityWeightPower; i++ {
			rN *= r
		}
		if rN == 0 {
			return 0, status.Fatalf(op, status.Failure, "%v lies on the line of sight of %v", other, h)
		}
		contribution += 100 / rN
	}

	return contribution, nil
}

// SurroundingEnergyContribution sums the hadronic energy of the hits of one
// layer within 1.5 cells of h.
func (e *Engine) SurroundingEnergyContribution(h *hit.Hit, hits hit.List) float64 {
	position := h.Position()
	contribution := 0.0

	for _, other := range hits {
		if other == h {
			continue
		}
		separation := r3.Sub(position, other.Position())
		if r3.Norm(separation) > e.cfg.MaxSeparation {
			continue
		}
		if withinCells(h, separation, surroundingEnergyCells) {
			contribution += other.HadronicEnergy()
		}
	}

	return contribution
}

// IsolationNeighborCount counts the hits of one layer, within ten times
// MaxSeparation of h, whose distance from h's line of sight is below the
// isolation cut for h's subdetector.
func (e *Engine) IsolationNeighborCount(h *hit.Hit, hits hit.List) uint {
	position := h.Position()
	cut := e.cfg.IsolationCutDistanceHCal
	if h.Type() == hit.ECal {
		cut = e.cfg.IsolationCutDistanceECal
	}

	var nearby uint
	for _, other := range hits {
		if other == h {
			continue
		}
		separation := r3.Sub(position, other.Position())
		if r3.Norm(separation) > isolationSearchFactor*e.cfg.MaxSeparation {
			continue
		}
		if hit.PerpendicularDistance(position, separation) < cut {
			nearby++
		}
	}

	return nearby
}

// MipNeighborCount counts the hits of one layer within MaxSeparation of h and
// within MipCellsForNearbyHit+0.5 cells of it.
func (e *Engine) MipNeighborCount(h *hit.Hit, hits hit.List) uint {
	position := h.Position()

	var nearby uint
	for _, other := range hits {
		if other == h {
			continue
		}
		separation := r3.Sub(position, other.Position())
		if r3.Norm(separation) > e.cfg.MaxSeparation {
			continue
		}
		if withinCells(h, separation, e.mipCells) {
			nearby++
		}
	}

	return nearby
}

// ComputeHitProperties evaluates every feature of h against the layers of
// idx surrounding h's layer and stores the results on h.
//
// Density weight uses layers within DensityWeightLayers of h, isolation
// counting (unless the simple scheme is configured) layers within
// IsolationLayers. Surrounding energy and the possible-mip flag only look at
// h's own layer.
func (e *Engine) ComputeHitProperties(h *hit.Hit, idx *layers.Index) error {
	const op = "features.ComputeHitProperties"

	layer := h.Layer()
	densityMin, densityMax := layerWindow(layer, e.cfg.DensityWeightLayers)
	isolationMin, isolationMax := layerWindow(layer, e.cfg.IsolationLayers)
	countIsolation := !e.cfg.UseSimpleIsolationScheme

	densityWeight := 0.0
	var isolationNearby uint
	isolated := true
	var sweepErr error

	idx.Ascend(min(densityMin, isolationMin), max(densityMax, isolationMax), func(l uint32, hits hit.List) bool {
		if densityMin <= l && l <= densityMax {
			c, err := e.DensityWeightContribution(h, hits)
			if err != nil {
				sweepErr = err
				return false
			}
			densityWeight += c
		}

		if countIsolation && isolated && isolationMin <= l && l <= isolationMax {
			isolationNearby += e.IsolationNeighborCount(h, hits)
			isolated = isolationNearby < e.cfg.IsolationMaxNearbyHits
		}

		if l == layer {
			e.classifyOwnLayer(h, hits)
		}
		return true
	})
	if sweepErr != nil {
		return sweepErr
	}

	if countIsolation && isolated {
		h.SetIsolated(true)
	}

	if err := h.SetDensityWeight(densityWeight); err != nil {
		return status.Fatalf(op, status.Failure, "storing density weight on %v: %v", h, err)
	}
	return nil
}

func (e *Engine) classifyOwnLayer(h *hit.Hit, hits hit.List) {
	h.AddSurroundingEnergy(e.SurroundingEnergyContribution(h, hits))

	if h.Type() == hit.Muon {
		h.SetPossibleMip(true)
		return
	}

	position := h.Position()
	var angularCorrection float64
	if h.Region() == hit.Barrel {
		angularCorrection = r3.Norm(position) / math.Hypot(position.X, position.Y)
	} else {
		angularCorrection = r3.Norm(position) / math.Abs(position.Z)
	}

	mipLike := h.MipEquivalentEnergy() <= e.cfg.MipLikeMipCut*angularCorrection || h.IsDigital()
	if mipLike && e.MipNeighborCount(h, hits) <= e.cfg.MipMaxNearbyHits {
		h.SetPossibleMip(true)
	}
}

// ApplySimpleIsolationScheme flags as isolated every hit whose density weight
// is below the cut for its subdetector.
func (e *Engine) ApplySimpleIsolationScheme(hits hit.List) {
	for _, h := range hits {
		cut := e.cfg.IsolationDensityWeightCutHCal
		if h.Type() == hit.ECal {
			cut = e.cfg.IsolationDensityWeightCutECal
		}
		if h.DensityWeight() < cut {
			h.SetIsolated(true)
		}
	}
}

// CalculateProperties runs ComputeHitProperties over every hit of idx in
// ascending layer order, then the simple isolation scheme when configured.
// It stops at the first error.
func (e *Engine) CalculateProperties(idx *layers.Index) error {
	hits := idx.Hits()
	for _, h := range hits {
		if err := e.ComputeHitProperties(h, idx); err != nil {
			return fmt.Errorf("computing properties of %v: %w", h, err)
		}
	}

	if e.cfg.UseSimpleIsolationScheme {
		e.ApplySimpleIsolationScheme(hits)
	}

	e.logger.Debug("hit properties calculated", "hits", len(hits), "layers", idx.NLayers())
	return nil
}

// withinCells applies the region-dependent neighbour window. In the barrel
// the window is cells*U along Z and cells*V in the transverse plane; in the
// endcap it is cells*U along X and cells*V along Y.
func withinCells(h *hit.Hit, separation r3.Vec, cells float64) bool {
	dX := math.Abs(separation.X)
	dY := math.Abs(separation.Y)

	if h.Region() == hit.Barrel {
		dZ := math.Abs(separation.Z)
		dPhi := math.Hypot(dX, dY)
		return dZ < cells*h.CellSizeU() && dPhi < cells*h.CellSizeV()
	}
	return dX < cells*h.CellSizeU() && dY < cells*h.CellSizeV()
}

// layerWindow returns [layer-n, layer+n], clamped to the uint32 range.
func layerWindow(layer, n uint32) (uint32, uint32) {
	lo := uint32(0)
	if layer > n {
		lo = layer - n
	}
	hi := uint32(math.MaxUint32)
	if layer <= math.MaxUint32-n {
		hi = layer + n
	}
	return lo, hi
}
