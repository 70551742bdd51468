// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoched

import (
	"github.com/vechain/stakeledger/thor"
)

type unit struct{}

// Value is a single epoched value, a Store with one implicit key.
type Value[V any] struct {
	store *Store[unit, V]
}

// NewValue creates a value bound to tl.
func NewValue[V any](tl *Timeline, name string, def V) *Value[V] {
	return &Value[V]{
		store: New(tl, name, func(unit, unit) int { return 0 }, def),
	}
}

func (v *Value[V]) Set(offset uint64, val V) error  { return v.store.Set(unit{}, offset, val) }
func (v *Value[V]) SetAt(e thor.Epoch, val V) error { return v.store.SetAt(unit{}, e, val) }
func (v *Value[V]) Get(e thor.Epoch) V              { return v.store.Get(unit{}, e) }
func (v *Value[V]) Lookup(e thor.Epoch) (V, bool)   { return v.store.Lookup(unit{}, e) }
func (v *Value[V]) Points() []Point[V]              { return v.store.Points(unit{}) }
func (v *Value[V]) Load(points []Point[V]) error    { return v.store.Load(unit{}, points) }
func (v *Value[V]) Clone(tl *Timeline) *Value[V]    { return &Value[V]{v.store.Clone(tl)} }
