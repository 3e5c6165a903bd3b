package features

import (
	"math"

	"github.com/sanonone/calohits/pkg/core/status"
)

// Config holds the tunables of the neighbour feature engine. Values are read
// once when the Engine is built.
type Config struct {
	// Hits further apart than this (3D distance) never interact. Isolation
	// counting uses ten times this radius.
	MaxSeparation float64 `yaml:"max_separation"`

	// Density weight: sum of 100 / r^DensityWeightPower over the layers
	// within DensityWeightLayers of the hit.
	DensityWeightPower  uint   `yaml:"density_weight_power"`
	DensityWeightLayers uint32 `yaml:"density_weight_layers"`

	// Counting isolation scheme.
	IsolationLayers          uint32  `yaml:"isolation_layers"`
	IsolationCutDistanceECal float64 `yaml:"isolation_cut_distance_ecal"`
	IsolationCutDistanceHCal float64 `yaml:"isolation_cut_distance_hcal"`
	IsolationMaxNearbyHits   uint    `yaml:"isolation_max_nearby_hits"`

	// Simple isolation scheme: compare the density weight against a cut.
	UseSimpleIsolationScheme      bool    `yaml:"use_simple_isolation_scheme"`
	IsolationDensityWeightCutECal float64 `yaml:"isolation_density_weight_cut_ecal"`
	IsolationDensityWeightCutHCal float64 `yaml:"isolation_density_weight_cut_hcal"`

	// Possible-mip classification.
	MipLikeMipCut        float64 `yaml:"mip_like_mip_cut"`
	MipCellsForNearbyHit uint    `yaml:"mip_cells_for_nearby_hit"`
	MipMaxNearbyHits     uint    `yaml:"mip_max_nearby_hits"`
}

// DefaultConfig returns the standard reconstruction settings (lengths in mm,
// energies in mip units).
func DefaultConfig() Config {
	return Config{
		MaxSeparation:                 100,
		DensityWeightPower:            2,
		DensityWeightLayers:           2,
		IsolationLayers:               2,
		IsolationCutDistanceECal:      25,
		IsolationCutDistanceHCal:      200,
		IsolationMaxNearbyHits:        2,
		UseSimpleIsolationScheme:      false,
		IsolationDensityWeightCutECal: 0.5,
		IsolationDensityWeightCutHCal: 0.3,
		MipLikeMipCut:                 5,
		MipCellsForNearbyHit:          2,
		MipMaxNearbyHits:              1,
	}
}

// Validate checks that every length and cut is usable.
func (c Config) Validate() error {
	const op = "features.Config"

	positive := map[string]float64{
		"max_separation":              c.MaxSeparation,
		"isolation_cut_distance_ecal": c.IsolationCutDistanceECal,
		"isolation_cut_distance_hcal": c.IsolationCutDistanceHCal,
	}
	for name, v := range positive {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return status.New(op, status.InvalidParameter, "%s must be positive, got %g", name, v)
		}
	}

	nonNegative := map[string]float64{
		"isolation_density_weight_cut_ecal": c.IsolationDensityWeightCutECal,
		"isolation_density_weight_cut_hcal": c.IsolationDensityWeightCutHCal,
		"mip_like_mip_cut":                  c.MipLikeMipCut,
	}
	for name, v := range nonNegative {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return status.New(op, status.InvalidParameter, "%s must be non-negative, got %g", name, v)
		}
	}
	return nil
}
