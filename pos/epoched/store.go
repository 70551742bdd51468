// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoched

import (
	"slices"
	"sort"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/thor"
)

var ErrOffsetBeyondPipeline = errors.New("offset beyond pipeline")

// Point is a value effective from Epoch until the next point of the same key.
type Point[V any] struct {
	Epoch thor.Epoch
	Value V
}

// Store maps keys to values that change over epochs. A read at epoch e returns the latest
// write at or before e, or the store default.
type Store[K comparable, V any] struct {
	name      string
	tl        *Timeline
	cmp       func(a, b K) int
	def       V
	isDefault func(V) bool
	data      map[K][]Point[V] // ascending by epoch
}

// New creates a store bound to tl. cmp orders keys for Keys.
func New[K comparable, V any](tl *Timeline, name string, cmp func(a, b K) int, def V) *Store[K, V] {
	s := &Store[K, V]{
		name: name,
		tl:   tl,
		cmp:  cmp,
		def:  def,
		data: make(map[K][]Point[V]),
	}
	tl.register(s)
	return s
}

// DropDefaults makes pruning forget keys whose only retained value satisfies isDefault.
func (s *Store[K, V]) DropDefaults(isDefault func(V) bool) *Store[K, V] {
	s.isDefault = isDefault
	return s
}

func (s *Store[K, V]) Name() string { return s.name }

// Len returns the number of keys held.
func (s *Store[K, V]) Len() int { return len(s.data) }

// Set writes v effective at current+offset.
func (s *Store[K, V]) Set(key K, offset uint64, v V) error {
	if offset > s.tl.pipeline {
		return errors.Wrapf(ErrOffsetBeyondPipeline, "%s: offset %d, pipeline %d", s.name, offset, s.tl.pipeline)
	}
	return s.SetAt(key, s.tl.current.Add(offset), v)
}

// SetAt writes v effective at epoch e. Later points are kept.
func (s *Store[K, V]) SetAt(key K, e thor.Epoch, v V) error {
	if err := s.checkHorizon(e); err != nil {
		return err
	}
	pts := s.data[key]
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Epoch >= e })
	if i < len(pts) && pts[i].Epoch == e {
		pts[i].Value = v
		return nil
	}
	s.data[key] = slices.Insert(pts, i, Point[V]{e, v})
	return nil
}

// Update replaces the value at current+offset with fn applied to it.
func (s *Store[K, V]) Update(key K, offset uint64, fn func(V) (V, error)) error {
	e := s.tl.current.Add(offset)
	v, err := fn(s.Get(key, e))
	if err != nil {
		return err
	}
	return s.Set(key, offset, v)
}

// Get returns the value of key at e.
func (s *Store[K, V]) Get(key K, e thor.Epoch) V {
	v, _ := s.Lookup(key, e)
	return v
}

// Lookup is Get that also reports whether a point was found.
// Epochs before the horizon always miss.
func (s *Store[K, V]) Lookup(key K, e thor.Epoch) (V, bool) {
	if e < s.tl.Horizon() {
		return s.def, false
	}
	pts := s.data[key]
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Epoch > e })
	if i == 0 {
		return s.def, false
	}
	return pts[i-1].Value, true
}

// Has reports whether any point is held for key.
func (s *Store[K, V]) Has(key K) bool {
	_, ok := s.data[key]
	return ok
}

// Keys returns all keys ordered by the store comparator.
func (s *Store[K, V]) Keys() []K {
	keys := make([]K, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, s.cmp)
	return keys
}

// Points returns a copy of the retained history of key.
func (s *Store[K, V]) Points(key K) []Point[V] {
	return slices.Clone(s.data[key])
}

// Load replaces the history of key. Points must be strictly ascending and within retention.
func (s *Store[K, V]) Load(key K, points []Point[V]) error {
	for i, p := range points {
		if err := s.checkHorizon(p.Epoch); err != nil {
			return err
		}
		if i > 0 && points[i-1].Epoch >= p.Epoch {
			return errors.Errorf("%s: points not ascending at epoch %d", s.name, p.Epoch)
		}
	}
	if len(points) == 0 {
		delete(s.data, key)
		return nil
	}
	s.data[key] = slices.Clone(points)
	return nil
}

// Rewrite applies fn to the value of key at every epoch from `from` on. A point is materialized
// at `from` first so that epochs before it are left untouched.
func (s *Store[K, V]) Rewrite(key K, from thor.Epoch, fn func(V) V) error {
	if err := s.checkHorizon(from); err != nil {
		return err
	}
	pts, ok := s.data[key]
	if !ok {
		return nil
	}
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Epoch >= from })
	if i > 0 && (i == len(pts) || pts[i].Epoch != from) {
		pts = slices.Insert(pts, i, Point[V]{from, pts[i-1].Value})
	}
	for j := i; j < len(pts); j++ {
		pts[j].Value = fn(pts[j].Value)
	}
	s.data[key] = pts
	return nil
}

// Delete forgets key entirely.
func (s *Store[K, V]) Delete(key K) {
	delete(s.data, key)
}

// Clone returns a deep copy bound to tl. Values are copied by assignment.
func (s *Store[K, V]) Clone(tl *Timeline) *Store[K, V] {
	c := New(tl, s.name, s.cmp, s.def)
	c.isDefault = s.isDefault
	for k, pts := range s.data {
		c.data[k] = slices.Clone(pts)
	}
	return c
}

func (s *Store[K, V]) checkHorizon(e thor.Epoch) error {
	if h := s.tl.Horizon(); e < h {
		return reverts.Errorf(reverts.ErrStaleWrite, "%s: epoch %d before horizon %d", s.name, e, h)
	}
	return nil
}

// prune keeps, per key, the latest point at or before the horizon (moved onto it) and everything after.
func (s *Store[K, V]) prune(horizon thor.Epoch) {
	for k, pts := range s.data {
		i := sort.Search(len(pts), func(i int) bool { return pts[i].Epoch > horizon })
		if i == 0 {
			continue
		}
		if i > 1 {
			pts = slices.Clone(pts[i-1:])
		}
		pts[0].Epoch = horizon
		if len(pts) == 1 && s.isDefault != nil && s.isDefault(pts[0].Value) {
			delete(s.data, k)
			continue
		}
		s.data[k] = pts
	}
}
