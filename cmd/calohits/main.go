package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sanonone/calohits/pkg/config"
	"github.com/sanonone/calohits/pkg/core/features"
	"github.com/sanonone/calohits/pkg/core/hit"
	"github.com/sanonone/calohits/pkg/event"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML settings file (defaults are used when empty)")
	nShowers := flag.Int("showers", 4, "Number of synthetic showers to generate")
	hitsPerShower := flag.Int("hits", 40, "Hits per synthetic shower")
	nNoise := flag.Int("noise", 20, "Number of isolated noise hits")
	nLayers := flag.Uint("layers", 48, "Number of calorimeter layers")
	seed := flag.Int64("seed", 1, "Random seed for the synthetic event")

	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Cannot load settings: %v", err)
	}
	logger, err := settings.Log.NewLogger(os.Stderr)
	if err != nil {
		log.Fatalf("Cannot build logger: %v", err)
	}

	engine, err := features.New(settings.Features, features.WithLogger(logger))
	if err != nil {
		log.Fatalf("Invalid feature settings: %v", err)
	}

	gen := newGenerator(*seed, uint32(*nLayers))
	hits, err := gen.event(*nShowers, *hitsPerShower, *nNoise)
	if err != nil {
		log.Fatalf("Cannot generate event: %v", err)
	}

	ev, err := event.New(hits, engine, event.WithLogger(logger))
	if err != nil {
		log.Fatalf("Cannot create event: %v", err)
	}
	if err := ev.CalculateHitProperties(); err != nil {
		log.Fatalf("Feature sweep failed: %v", err)
	}

	if err := reserveIsolatedHits(ev); err != nil {
		log.Fatalf("Speculative pass failed: %v", err)
	}

	s := ev.Summary()
	fmt.Printf("event %s\n", ev.ID())
	fmt.Printf("  hits:         %d in %d layers\n", s.Hits, s.Layers)
	fmt.Printf("  isolated:     %d\n", s.Isolated)
	fmt.Printf("  possible mip: %d\n", s.PossibleMip)
	fmt.Printf("  available:    %d\n", s.Available)
}

// reserveIsolatedHits runs a small speculative pass: one hypothesis keeps
// every hit, the other sets the isolated ones aside. The second is committed.
func reserveIsolatedHits(ev *event.Event) error {
	stack := ev.Availability()
	universe := ev.Index().Hits()

	if err := stack.OpenRoot("isolation-pass", universe); err != nil {
		return err
	}
	if err := stack.OpenBranch("keep-all"); err != nil {
		return err
	}
	if err := stack.OpenBranch("drop-isolated"); err != nil {
		return err
	}

	isolated := universe.Filter(func(h *hit.Hit) bool { return h.IsIsolated() })
	if err := stack.SetListAvailability(isolated, false); err != nil {
		return err
	}
	if err := stack.Apply("drop-isolated"); err != nil {
		return fmt.Errorf("committing drop-isolated: %w", err)
	}
	return nil
}
