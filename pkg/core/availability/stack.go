// Package availability tracks which hits a clustering pass may still use,
// including speculative "what if" hypotheses that can be nested, branched and
// finally committed.
//
// With no session open (depth 0) the baseline flag stored on each hit is
// authoritative. OpenRoot starts a session over a fixed universe of hits;
// OpenBranch adds sibling hypotheses at the same level; Apply picks one
// snapshot of the level and resolves it, either merging it into the parent
// level or, for the outermost level, writing it through to the hits and
// tearing the whole session down.
//
// Every snapshot of a session covers exactly the universe it was seeded from.
// A Stack owns all of its snapshots; none is reachable from outside.
//
// A Stack has a single cursor and is not safe for concurrent use.
package availability

import (
	"log/slog"
	"sort"

	"github.com/sanonone/calohits/pkg/core/hit"
	"github.com/sanonone/calohits/pkg/core/layers"
	"github.com/sanonone/calohits/pkg/core/status"
	"github.com/sanonone/calohits/pkg/metrics"
)

// Initial values written into fresh snapshots. A root starts with nothing
// granted, a branch starts with everything granted.
const (
	rootSeed   = false
	branchSeed = true
)

type snapshot struct {
	name  string
	avail map[*hit.Hit]bool
}

// Option configures a Stack.
type Option func(*Stack)

// WithLogger sets the logger used for session transitions.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stack) {
		if l != nil {
			s.logger = l
		}
	}
}

// Stack is the availability versioning context of one reconstruction event.
type Stack struct {
	depth   int
	current *snapshot

	// ancestors[i] is the snapshot that was current when nesting level i+2
	// was opened.
	ancestors []*snapshot
	// generations[i] lists the snapshot names created at nesting level i+1.
	generations [][]string
	snapshots   map[string]*snapshot

	logger *slog.Logger
}

// New returns an idle stack.
func New(opts ...Option) *Stack {
	s := &Stack{
		snapshots: make(map[string]*snapshot),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Depth is the number of open, unresolved nesting levels.
func (s *Stack) Depth() int { return s.depth }

// CurrentName returns the name of the active snapshot, or "" when idle.
func (s *Stack) CurrentName() string {
	if s.current == nil {
		return ""
	}
	return s.current.name
}

// Names lists every registered snapshot name in lexical order.
func (s *Stack) Names() []string {
	out := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsAvailable reports whether h may be used under the active hypothesis.
// Hits outside the session universe are reported as unavailable.
func (s *Stack) IsAvailable(h *hit.Hit) bool {
	if s.depth == 0 {
		return h.Available()
	}
	v, ok := s.current.avail[h]
	return ok && v
}

// AreAllAvailable reports whether every hit of hits is available.
func (s *Stack) AreAllAvailable(hits hit.List) bool {
	for _, h := range hits {
		if !s.IsAvailable(h) {
			return false
		}
	}
	return true
}

// Inspect reads h from the named snapshot without changing the cursor.
func (s *Stack) Inspect(name string, h *hit.Hit) (bool, error) {
	snap, ok := s.snapshots[name]
	if !ok {
		return false, status.New("availability.Inspect", status.NotFound, "snapshot %q is not registered", name)
	}
	return snap.avail[h], nil
}

// SetAvailability writes the availability of h under the active hypothesis,
// or on the hit itself when idle.
func (s *Stack) SetAvailability(h *hit.Hit, available bool) error {
	if h == nil {
		return status.New("availability.SetAvailability", status.InvalidParameter, "nil hit")
	}
	if s.depth == 0 {
		h.SetAvailable(available)
		return nil
	}
	if _, ok := s.current.avail[h]; !ok {
		return status.New("availability.SetAvailability", status.NotFound, "%v is outside snapshot %q", h, s.current.name)
	}
	s.current.avail[h] = available
	return nil
}

// SetListAvailability is SetAvailability for a list. Inside a session every
// hit is checked before anything is written.
func (s *Stack) SetListAvailability(hits hit.List, available bool) error {
	const op = "availability.SetListAvailability"

	for _, h := range hits {
		if h == nil {
			return status.New(op, status.InvalidParameter, "nil hit")
		}
		if s.depth > 0 {
			if _, ok := s.current.avail[h]; !ok {
				return status.New(op, status.NotFound, "%v is outside snapshot %q", h, s.current.name)
			}
		}
	}

	for _, h := range hits {
		if s.depth == 0 {
			h.SetAvailable(available)
		} else {
			s.current.avail[h] = available
		}
	}
	return nil
}

// OpenRoot starts a nesting level whose snapshot covers universe, every
// entry initialised to false. When a session is already open, the active
// snapshot is saved and restored when the new level is applied.
func (s *Stack) OpenRoot(name string, universe hit.List) error {
	const op = "availability.OpenRoot"

	if _, ok := s.snapshots[name]; ok {
		return status.New(op, status.AlreadyExists, "snapshot %q already registered", name)
	}

	avail := make(map[*hit.Hit]bool, len(universe))
	for _, h := range universe {
		if h == nil {
			return status.New(op, status.InvalidParameter, "nil hit in universe")
		}
		if _, dup := avail[h]; dup {
			return status.New(op, status.Failure, "%v appears twice in universe of %q", h, name)
		}
		avail[h] = rootSeed
	}

	if s.depth > 0 {
		s.ancestors = append(s.ancestors, s.current)
	}

	snap := &snapshot{name: name, avail: avail}
	s.snapshots[name] = snap
	s.generations = append(s.generations, []string{name})
	s.current = snap
	s.depth++

	metrics.AvailabilitySessionsOpened.WithLabelValues("root").Inc()
	metrics.AvailabilityDepth.Set(float64(s.depth))
	s.logger.Debug("availability root opened", "name", name, "depth", s.depth, "hits", len(avail))
	return nil
}

// OpenBranch adds a sibling hypothesis at the current level. The branch
// covers the same hits as the active snapshot, all set to true, and becomes
// the active snapshot.
func (s *Stack) OpenBranch(name string) error {
	const op = "availability.OpenBranch"

	if s.depth == 0 {
		return status.New(op, status.NotAllowed, "no session open")
	}
	if _, ok := s.snapshots[name]; ok {
		return status.New(op, status.AlreadyExists, "snapshot %q already registered", name)
	}

	avail := make(map[*hit.Hit]bool, len(s.current.avail))
	for h := range s.current.avail {
		avail[h] = branchSeed
	}

	snap := &snapshot{name: name, avail: avail}
	s.snapshots[name] = snap
	top := len(s.generations) - 1
	s.generations[top] = append(s.generations[top], name)
	s.current = snap

	metrics.AvailabilitySessionsOpened.WithLabelValues("branch").Inc()
	s.logger.Debug("availability branch opened", "name", name, "depth", s.depth, "siblings", len(s.generations[top]))
	return nil
}

// Apply resolves the innermost nesting level with the named snapshot.
//
// At the outermost level the snapshot is written to every hit's baseline
// flag and the session is torn down. At inner levels the snapshot is merged
// into the snapshot that was active before the level opened, which becomes
// current again, and every snapshot of the level is discarded.
func (s *Stack) Apply(name string) error {
	const op = "availability.Apply"

	if s.depth == 0 {
		return status.New(op, status.NotAllowed, "no session open")
	}
	snap, ok := s.snapshots[name]
	if !ok {
		return status.New(op, status.NotFound, "snapshot %q is not registered", name)
	}

	s.depth--
	if s.depth == 0 {
		for h, v := range snap.avail {
			h.SetAvailable(v)
		}
		if err := s.teardown(); err != nil {
			return err
		}
		metrics.AvailabilityApplies.WithLabelValues("root").Inc()
		metrics.AvailabilityDepth.Set(0)
		s.logger.Debug("availability session committed", "name", name, "hits", len(snap.avail))
		return nil
	}

	parent := s.ancestors[len(s.ancestors)-1]
	s.ancestors = s.ancestors[:len(s.ancestors)-1]
	s.current = parent

	for h := range snap.avail {
		if _, ok := parent.avail[h]; !ok {
			s.abort()
			return status.Fatalf(op, status.Failure, "%v of %q missing from parent snapshot %q", h, name, parent.name)
		}
	}
	for h, v := range snap.avail {
		parent.avail[h] = v
	}

	if err := s.discardTopGeneration(); err != nil {
		s.abort()
		return err
	}

	metrics.AvailabilityApplies.WithLabelValues("nested").Inc()
	metrics.AvailabilityDepth.Set(float64(s.depth))
	s.logger.Debug("availability level merged", "name", name, "into", parent.name, "depth", s.depth)
	return nil
}

// RemoveUnavailable returns the hits of hits that are currently available.
func (s *Stack) RemoveUnavailable(hits hit.List) hit.List {
	return hits.Filter(s.IsAvailable)
}

// RemoveUnavailableFromIndex drops every currently unavailable hit from idx.
func (s *Stack) RemoveUnavailableFromIndex(idx *layers.Index) error {
	var unavailable hit.List
	idx.Scan(func(_ uint32, hits hit.List) bool {
		for _, h := range hits {
			if !s.IsAvailable(h) {
				unavailable = append(unavailable, h)
			}
		}
		return true
	})
	return idx.RemoveList(unavailable)
}

func (s *Stack) discardTopGeneration() error {
	top := s.generations[len(s.generations)-1]
	for _, name := range top {
		if _, ok := s.snapshots[name]; !ok {
			return status.Fatalf("availability.Apply", status.NotFound, "snapshot %q listed in generation but not registered", name)
		}
		delete(s.snapshots, name)
	}
	s.generations = s.generations[:len(s.generations)-1]
	return nil
}

func (s *Stack) teardown() error {
	clear(s.snapshots)
	s.generations = nil
	s.ancestors = nil

	if len(s.snapshots) != 0 || len(s.generations) != 0 || len(s.ancestors) != 0 {
		return status.Fatalf("availability.Apply", status.Failure, "session registries not empty after teardown")
	}

	s.current = nil
	s.depth = 0
	return nil
}

// abort ends a session whose invariants are broken without touching the
// baseline flags on the hits.
func (s *Stack) abort() {
	clear(s.snapshots)
	s.generations = nil
	s.ancestors = nil
	s.current = nil
	s.depth = 0
	metrics.AvailabilityDepth.Set(0)
	s.logger.Error("availability session aborted after consistency failure")
}
