package main

import (
	"math"
	"math/rand"

	"github.com/sanonone/calohits/pkg/core/hit"
	"gonum.org/v1/gonum/spatial/r3"
)

// Toy detector: a barrel cylinder and two endcap discs. Lengths in mm.
const (
	barrelInnerRadius = 1800.0
	endcapInnerZ      = 2400.0
	endcapOuterRadius = 1700.0
	ecalLayers        = 30
	ecalThickness     = 6.0
	hcalThickness     = 25.0
	ecalCellSize      = 5.0
	hcalCellSize      = 30.0
	muonCellSize      = 30.0
	showerSpread      = 12.0
)

type generator struct {
	rng     *rand.Rand
	nLayers uint32
}

func newGenerator(seed int64, nLayers uint32) *generator {
	if nLayers == 0 {
		nLayers = 1
	}
	return &generator{rng: rand.New(rand.NewSource(seed)), nLayers: nLayers}
}

// event builds a synthetic list of barrel showers, scattered noise (barrel
// and endcap) and a couple of muon-system hits.
func (g *generator) event(showers, hitsPerShower, noise int) (hit.List, error) {
	var hits hit.List

	for s := 0; s < showers; s++ {
		phi := g.rng.Float64() * 2 * math.Pi
		z := (g.rng.Float64()*2 - 1) * 1500
		depth := min(g.nLayers, ecalLayers+8)

		for i := 0; i < hitsPerShower; i++ {
			layer := uint32(g.rng.Intn(int(depth)))
			radius := layerRadius(layer)
			dPhi := g.rng.NormFloat64() * showerSpread / radius
			h, err := g.barrelHit(radius, phi+dPhi, z+g.rng.NormFloat64()*showerSpread, layer)
			if err != nil {
				return nil, err
			}
			hits = append(hits, h)
		}
	}

	for i := 0; i < noise; i++ {
		layer := uint32(g.rng.Intn(int(g.nLayers)))
		var (
			h   *hit.Hit
			err error
		)
		if i%4 == 3 {
			h, err = g.endcapHit(layer)
		} else {
			h, err = g.barrelHit(layerRadius(layer), g.rng.Float64()*2*math.Pi, (g.rng.Float64()*2-1)*2000, layer)
		}
		if err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}

	for i := uint32(0); i < 2; i++ {
		layer := g.nLayers + i
		phi := g.rng.Float64() * 2 * math.Pi
		radius := layerRadius(g.nLayers) + 300 + float64(i)*50
		h, err := hit.New(hit.Params{
			Position:            r3.Vec{X: radius * math.Cos(phi), Y: radius * math.Sin(phi), Z: g.rng.NormFloat64() * 500},
			CellSizeU:           muonCellSize,
			CellSizeV:           muonCellSize,
			Region:              hit.Barrel,
			Type:                hit.Muon,
			MipEquivalentEnergy: 1,
			Layer:               layer,
			Digital:             true,
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}

	return hits, nil
}

func (g *generator) barrelHit(radius, phi, z float64, layer uint32) (*hit.Hit, error) {
	hitType, cell := typeForLayer(layer)
	mip := g.rng.ExpFloat64() * 3
	return hit.New(hit.Params{
		Position:            r3.Vec{X: radius * math.Cos(phi), Y: radius * math.Sin(phi), Z: z},
		CellSizeU:           cell,
		CellSizeV:           cell,
		Region:              hit.Barrel,
		Type:                hitType,
		HadronicEnergy:      mip * 0.01,
		MipEquivalentEnergy: mip,
		Layer:               layer,
	})
}

func (g *generator) endcapHit(layer uint32) (*hit.Hit, error) {
	hitType, cell := typeForLayer(layer)
	side := 1.0
	if g.rng.Intn(2) == 0 {
		side = -1
	}
	r := math.Sqrt(g.rng.Float64()) * endcapOuterRadius
	phi := g.rng.Float64() * 2 * math.Pi
	mip := g.rng.ExpFloat64() * 3
	return hit.New(hit.Params{
		Position:            r3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: side * (endcapInnerZ + layerDepth(layer))},
		CellSizeU:           cell,
		CellSizeV:           cell,
		Region:              hit.Endcap,
		Type:                hitType,
		HadronicEnergy:      mip * 0.01,
		MipEquivalentEnergy: mip,
		Layer:               layer,
	})
}

func typeForLayer(layer uint32) (hit.Type, float64) {
	if layer < ecalLayers {
		return hit.ECal, ecalCellSize
	}
	return hit.HCal, hcalCellSize
}

func layerDepth(layer uint32) float64 {
	if layer < ecalLayers {
		return float64(layer) * ecalThickness
	}
	return ecalLayers*ecalThickness + float64(layer-ecalLayers)*hcalThickness
}

func layerRadius(layer uint32) float64 {
	return barrelInnerRadius + layerDepth(layer)
}
