// Package layers groups hits by depth layer.
//
// An Index is an ordered map from layer number to the hits recorded in that
// layer. Iteration across layers is always ascending, which the feature sweep
// relies on for its layer windows. Within a layer the order is insertion order
// but callers must not depend on it.
//
// Index is not safe for concurrent use.
package layers

import (
	"github.com/sanonone/calohits/pkg/core/hit"
	"github.com/sanonone/calohits/pkg/core/status"
	"github.com/tidwall/btree"
)

// bucket holds the hits of one layer. Buckets are stored by pointer so the
// hit slice can be edited in place without re-inserting into the tree.
type bucket struct {
	layer uint32
	hits  hit.List
}

func bucketLess(a, b *bucket) bool {
	return a.layer < b.layer
}

// Index is the layer -> hits mapping.
type Index struct {
	tree *btree.BTreeG[*bucket]
	// members tracks the layer each hit was filed under.
	members map[*hit.Hit]uint32
}

// New returns an empty index.
func New() *Index {
	return &Index{
		tree:    btree.NewBTreeGOptions(bucketLess, btree.Options{NoLocks: true}),
		members: make(map[*hit.Hit]uint32),
	}
}

// Build creates an index holding every hit of hits.
func Build(hits hit.List) (*Index, error) {
	idx := New()
	if err := idx.AddList(hits); err != nil {
		return nil, err
	}
	return idx, nil
}

// Add files h under its layer. Adding the same hit twice is an error.
func (idx *Index) Add(h *hit.Hit) error {
	if h == nil {
		return status.New("layers.Add", status.InvalidParameter, "nil hit")
	}
	if _, ok := idx.members[h]; ok {
		return status.New("layers.Add", status.AlreadyExists, "%v is already indexed", h)
	}

	b, ok := idx.tree.Get(&bucket{layer: h.Layer()})
	if !ok {
		b = &bucket{layer: h.Layer()}
		idx.tree.Set(b)
	}
	b.hits = append(b.hits, h)
	idx.members[h] = h.Layer()
	return nil
}

// AddList adds every hit of hits, stopping at the first failure.
func (idx *Index) AddList(hits hit.List) error {
	for _, h := range hits {
		if err := idx.Add(h); err != nil {
			return err
		}
	}
	return nil
}

// Remove drops h from the index. Layers left empty are removed.
func (idx *Index) Remove(h *hit.Hit) error {
	layer, ok := idx.members[h]
	if !ok {
		return status.New("layers.Remove", status.NotFound, "%v is not indexed", h)
	}

	b, ok := idx.tree.Get(&bucket{layer: layer})
	if !ok {
		return status.Fatalf("layers.Remove", status.Failure, "layer %d missing for indexed hit %v", layer, h)
	}
	for i, other := range b.hits {
		if other == h {
			last := len(b.hits) - 1
			b.hits[i] = b.hits[last]
			b.hits[last] = nil
			b.hits = b.hits[:last]
			break
		}
	}
	if len(b.hits) == 0 {
		idx.tree.Delete(b)
	}
	delete(idx.members, h)
	return nil
}

// RemoveList removes every hit of hits, stopping at the first failure.
func (idx *Index) RemoveList(hits hit.List) error {
	for _, h := range hits {
		if err := idx.Remove(h); err != nil {
			return err
		}
	}
	return nil
}

// Contains reports whether h is indexed.
func (idx *Index) Contains(h *hit.Hit) bool {
	_, ok := idx.members[h]
	return ok
}

// Layer returns the hits of one layer. The returned slice is owned by the
// index and must not be modified.
func (idx *Index) Layer(layer uint32) (hit.List, bool) {
	b, ok := idx.tree.Get(&bucket{layer: layer})
	if !ok {
		return nil, false
	}
	return b.hits, true
}

// Ascend calls fn for every populated layer in [minLayer, maxLayer], in
// ascending order, until fn returns false.
func (idx *Index) Ascend(minLayer, maxLayer uint32, fn func(layer uint32, hits hit.List) bool) {
	idx.tree.Ascend(&bucket{layer: minLayer}, func(b *bucket) bool {
		if b.layer > maxLayer {
			return false
		}
		return fn(b.layer, b.hits)
	})
}

// Scan calls fn for every populated layer in ascending order.
func (idx *Index) Scan(fn func(layer uint32, hits hit.List) bool) {
	idx.tree.Scan(func(b *bucket) bool {
		return fn(b.layer, b.hits)
	})
}

// Layers returns the populated layer numbers in ascending order.
func (idx *Index) Layers() []uint32 {
	out := make([]uint32, 0, idx.tree.Len())
	idx.tree.Scan(func(b *bucket) bool {
		out = append(out, b.layer)
		return true
	})
	return out
}

// Hits flattens the index in ascending layer order.
func (idx *Index) Hits() hit.List {
	out := make(hit.List, 0, len(idx.members))
	idx.tree.Scan(func(b *bucket) bool {
		out = append(out, b.hits...)
		return true
	})
	return out
}

// Len is the number of indexed hits.
func (idx *Index) Len() int { return len(idx.members) }

// NLayers is the number of populated layers.
func (idx *Index) NLayers() int { return idx.tree.Len() }

// InnerLayer returns the lowest populated layer.
func (idx *Index) InnerLayer() (uint32, error) {
	b, ok := idx.tree.Min()
	if !ok {
		return 0, status.New("layers.InnerLayer", status.NotInitialized, "index is empty")
	}
	return b.layer, nil
}

// OuterLayer returns the highest populated layer.
func (idx *Index) OuterLayer() (uint32, error) {
	b, ok := idx.tree.Max()
	if !ok {
		return 0, status.New("layers.OuterLayer", status.NotInitialized, "index is empty")
	}
	return b.layer, nil
}
