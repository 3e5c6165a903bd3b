// Package event ties the calohits components to one reconstruction event.
//
// An Event owns its hits, the layer index built from them and the
// availability stack used by clustering passes. Nothing is shared between
// events, so each event can be processed and discarded on its own.
//
// Basic usage:
//
//	engine, _ := features.New(settings.Features)
//	ev, err := event.New(hits, engine, event.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := ev.CalculateHitProperties(); err != nil {
//	    return err
//	}
//	stack := ev.Availability()
package event

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sanonone/calohits/pkg/core/availability"
	"github.com/sanonone/calohits/pkg/core/features"
	"github.com/sanonone/calohits/pkg/core/hit"
	"github.com/sanonone/calohits/pkg/core/layers"
	"github.com/sanonone/calohits/pkg/metrics"
)

// Option configures an Event.
type Option func(*Event)

// WithLogger sets the logger of the event and of its availability stack.
func WithLogger(l *slog.Logger) Option {
	return func(e *Event) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithID overrides the generated event identifier.
func WithID(id string) Option {
	return func(e *Event) {
		if id != "" {
			e.id = id
		}
	}
}

// Event is the per-event context.
type Event struct {
	id           string
	hits         hit.List
	index        *layers.Index
	availability *availability.Stack
	features     *features.Engine
	logger       *slog.Logger
}

// Summary is a snapshot of an event's hit classification.
type Summary struct {
	Hits        int
	Layers      int
	Isolated    int
	PossibleMip int
	Available   int
}

// New indexes hits by layer and prepares an idle availability stack. The
// same hit must not appear twice.
func New(hits hit.List, engine *features.Engine, opts ...Option) (*Event, error) {
	e := &Event{
		id:       uuid.New().String(),
		hits:     hits,
		features: engine,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("event", e.id)

	idx, err := layers.Build(hits)
	if err != nil {
		return nil, fmt.Errorf("event %s: indexing hits: %w", e.id, err)
	}
	e.index = idx
	e.availability = availability.New(availability.WithLogger(e.logger))

	return e, nil
}

// ID returns the event identifier.
func (e *Event) ID() string { return e.id }

// Hits returns the hits of the event.
func (e *Event) Hits() hit.List { return e.hits }

// Index returns the layer index built from the hits.
func (e *Event) Index() *layers.Index { return e.index }

// Availability returns the event's availability stack.
func (e *Event) Availability() *availability.Stack { return e.availability }

// CalculateHitProperties runs the feature sweep over every hit of the event.
// Errors from the sweep are fatal for the event.
func (e *Event) CalculateHitProperties() error {
	start := time.Now()

	if err := e.features.CalculateProperties(e.index); err != nil {
		e.logger.Error("hit property calculation failed", "error", err)
		return fmt.Errorf("event %s: %w", e.id, err)
	}

	elapsed := time.Since(start)
	summary := e.Summary()

	metrics.FeatureSweepDuration.Observe(elapsed.Seconds())
	metrics.HitsProcessed.Add(float64(summary.Hits))
	metrics.HitsFlagged.WithLabelValues("isolated").Add(float64(summary.Isolated))
	metrics.HitsFlagged.WithLabelValues("possible_mip").Add(float64(summary.PossibleMip))

	e.logger.Info("hit properties calculated",
		"hits", summary.Hits,
		"layers", summary.Layers,
		"isolated", summary.Isolated,
		"possible_mip", summary.PossibleMip,
		"duration", elapsed,
	)
	return nil
}

// Summary counts the event's hits by classification. Availability is read
// through the stack, so it reflects the active hypothesis when one is open.
func (e *Event) Summary() Summary {
	s := Summary{
		Hits:   len(e.hits),
		Layers: e.index.NLayers(),
	}
	for _, h := range e.hits {
		if h.IsIsolated() {
			s.Isolated++
		}
		if h.IsPossibleMip() {
			s.PossibleMip++
		}
		if e.availability.IsAvailable(h) {
			s.Available++
		}
	}
	return s
}
