package main

import (
	"testing"

	"github.com/sanonone/calohits/pkg/core/features"
	"github.com/sanonone/calohits/pkg/core/hit"
	"github.com/sanonone/calohits/pkg/event"
)

func TestGeneratorProducesExpectedHits(t *testing.T) {
	g := newGenerator(7, 48)
	hits, err := g.event(3, 25, 12)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if want := 3*25 + 12 + 2; len(hits) != want {
		t.Fatalf("got %d hits, want %d", len(hits), want)
	}

	var muons, endcap int
	for _, h := range hits {
		if h.Type() == hit.Muon {
			muons++
			if h.Layer() < 48 {
				t.Errorf("muon hit in calorimeter layer %d", h.Layer())
			}
		}
		if h.Region() == hit.Endcap {
			endcap++
		}
	}
	if muons != 2 {
		t.Errorf("got %d muon hits, want 2", muons)
	}
	if endcap != 3 {
		t.Errorf("got %d endcap hits, want 3", endcap)
	}
}

func TestSyntheticEventPipeline(t *testing.T) {
	engine, err := features.New(features.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	hits, err := newGenerator(3, 48).event(4, 40, 20)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := event.New(hits, engine)
	if err != nil {
		t.Fatal(err)
	}
	if err := ev.CalculateHitProperties(); err != nil {
		t.Fatalf("CalculateHitProperties: %v", err)
	}
	if err := reserveIsolatedHits(ev); err != nil {
		t.Fatalf("reserveIsolatedHits: %v", err)
	}

	s := ev.Summary()
	if s.Available != s.Hits-s.Isolated {
		t.Errorf("available=%d, want hits-isolated=%d", s.Available, s.Hits-s.Isolated)
	}
	for _, h := range hits {
		if h.Type() == hit.Muon && !h.IsPossibleMip() {
			t.Errorf("muon hit %v not flagged as possible mip", h)
		}
	}
	if ev.Availability().Depth() != 0 {
		t.Errorf("session left open")
	}
}
