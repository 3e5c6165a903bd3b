package layers

import (
	"errors"
	"slices"
	"testing"

	"github.com/sanonone/calohits/pkg/core/hit"
	"github.com/sanonone/calohits/pkg/core/status"
	"gonum.org/v1/gonum/spatial/r3"
)

func newHit(t *testing.T, layer uint32) *hit.Hit {
	t.Helper()
	h, err := hit.New(hit.Params{
		Position:  r3.Vec{X: 1500, Z: float64(layer)},
		CellSizeU: 10,
		CellSizeV: 10,
		Type:      hit.HCal,
		Layer:     layer,
	})
	if err != nil {
		t.Fatalf("hit.New: %v", err)
	}
	return h
}

func TestLayersAscendRegardlessOfInsertOrder(t *testing.T) {
	var hits hit.List
	for _, layer := range []uint32{9, 2, 30, 2, 0, 9} {
		hits = append(hits, newHit(t, layer))
	}

	idx, err := Build(hits)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got, want := idx.Layers(), []uint32{0, 2, 9, 30}; !slices.Equal(got, want) {
		t.Errorf("Layers() = %v, want %v", got, want)
	}
	if idx.Len() != 6 || idx.NLayers() != 4 {
		t.Errorf("Len=%d NLayers=%d", idx.Len(), idx.NLayers())
	}

	flat := idx.Hits()
	for i := 1; i < len(flat); i++ {
		if flat[i-1].Layer() > flat[i].Layer() {
			t.Fatalf("Hits() not ascending at %d: %d > %d", i, flat[i-1].Layer(), flat[i].Layer())
		}
	}

	inner, _ := idx.InnerLayer()
	outer, _ := idx.OuterLayer()
	if inner != 0 || outer != 30 {
		t.Errorf("inner=%d outer=%d", inner, outer)
	}
}

func TestAscendRange(t *testing.T) {
	idx := New()
	for _, layer := range []uint32{1, 3, 4, 8, 12} {
		if err := idx.Add(newHit(t, layer)); err != nil {
			t.Fatal(err)
		}
	}

	var visited []uint32
	idx.Ascend(2, 8, func(layer uint32, hits hit.List) bool {
		visited = append(visited, layer)
		if len(hits) != 1 {
			t.Errorf("layer %d has %d hits", layer, len(hits))
		}
		return true
	})
	if want := []uint32{3, 4, 8}; !slices.Equal(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}

	visited = visited[:0]
	idx.Ascend(0, 100, func(layer uint32, _ hit.List) bool {
		visited = append(visited, layer)
		return layer < 4
	})
	if want := []uint32{1, 3, 4}; !slices.Equal(visited, want) {
		t.Errorf("early stop visited %v, want %v", visited, want)
	}
}

func TestAddDuplicateAndRemove(t *testing.T) {
	idx := New()
	a := newHit(t, 5)
	b := newHit(t, 5)

	if err := idx.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(a); !errors.Is(err, status.ErrAlreadyExists) {
		t.Fatalf("duplicate add: got %v", err)
	}
	if err := idx.Add(b); err != nil {
		t.Fatal(err)
	}

	if err := idx.Remove(a); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if idx.Contains(a) || !idx.Contains(b) {
		t.Errorf("membership wrong after remove")
	}
	if err := idx.Remove(a); !errors.Is(err, status.ErrNotFound) {
		t.Errorf("second remove: got %v", err)
	}

	if err := idx.Remove(b); err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.Layer(5); ok {
		t.Errorf("empty layer should be dropped")
	}
	if _, err := idx.InnerLayer(); !errors.Is(err, status.ErrNotInitialized) {
		t.Errorf("InnerLayer on empty index: got %v", err)
	}
}
