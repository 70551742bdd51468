// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoched

import (
	"cmp"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/thor"
)

func newStore(tl *Timeline) *Store[string, uint64] {
	return New(tl, "test", cmp.Compare[string], uint64(0))
}

func TestStoreSetGet(t *testing.T) {
	tl := NewTimeline(0, 2, 4)
	s := newStore(tl)

	require.NoError(t, s.Set("a", 2, 100))
	require.NoError(t, s.Set("a", 0, 5))

	assert.Equal(t, uint64(5), s.Get("a", 0))
	assert.Equal(t, uint64(5), s.Get("a", 1))
	assert.Equal(t, uint64(100), s.Get("a", 2))
	assert.Equal(t, uint64(100), s.Get("a", 50), "values persist forward")
	assert.Equal(t, uint64(0), s.Get("b", 2), "default for unknown keys")

	_, ok := s.Lookup("b", 2)
	assert.False(t, ok)

	err := s.Set("a", 3, 1)
	assert.ErrorIs(t, err, ErrOffsetBeyondPipeline)

	require.NoError(t, s.Update("a", 2, func(v uint64) (uint64, error) { return v + 1, nil }))
	assert.Equal(t, uint64(101), s.Get("a", 2))
	assert.Equal(t, uint64(5), s.Get("a", 1), "update leaves earlier epochs")
}

func TestStorePruning(t *testing.T) {
	tl := NewTimeline(0, 1, 2)
	s := newStore(tl)

	require.NoError(t, s.Set("a", 0, 1))
	tl.Advance()
	require.NoError(t, s.Set("a", 0, 2))
	tl.Advance()
	require.NoError(t, s.Set("a", 0, 3))
	tl.Advance() // current 3, horizon 1

	assert.Equal(t, thor.Epoch(1), tl.Horizon())
	assert.Equal(t, []Point[uint64]{{1, 2}, {2, 3}}, s.Points("a"))
	assert.Equal(t, uint64(2), s.Get("a", 1))
	assert.Equal(t, uint64(0), s.Get("a", 0), "reads before the horizon miss")

	err := s.SetAt("a", 0, 9)
	assert.ErrorIs(t, err, reverts.ErrStaleWrite)
	assert.True(t, reverts.IsRevertErr(err))

	tl.Advance()
	tl.Advance() // current 5, horizon 3
	assert.Equal(t, []Point[uint64]{{3, 3}}, s.Points("a"))
	assert.Equal(t, uint64(3), s.Get("a", 5))
}

func TestStoreDropDefaults(t *testing.T) {
	tl := NewTimeline(0, 1, 1)
	s := newStore(tl).DropDefaults(func(v uint64) bool { return v == 0 })

	require.NoError(t, s.Set("a", 0, 10))
	require.NoError(t, s.Set("a", 1, 0))
	tl.Advance()
	assert.True(t, s.Has("a"))
	tl.Advance()
	tl.Advance()
	assert.False(t, s.Has("a"))
	assert.Equal(t, 0, s.Len())
}

func TestStoreRewrite(t *testing.T) {
	tl := NewTimeline(5, 2, 10)
	s := newStore(tl)

	require.NoError(t, s.SetAt("a", 2, 1000))
	require.NoError(t, s.SetAt("a", 6, 500))

	half := func(v uint64) uint64 { return v / 2 }
	require.NoError(t, s.Rewrite("a", 4, half))

	assert.Equal(t, []Point[uint64]{{2, 1000}, {4, 500}, {6, 250}}, s.Points("a"))
	assert.Equal(t, uint64(1000), s.Get("a", 3))
	assert.Equal(t, uint64(500), s.Get("a", 5))

	// no predecessor: every point is rewritten, nothing is materialized
	require.NoError(t, s.SetAt("b", 6, 10))
	require.NoError(t, s.Rewrite("b", 1, half))
	assert.Equal(t, []Point[uint64]{{6, 5}}, s.Points("b"))

	// unknown keys are left alone
	require.NoError(t, s.Rewrite("c", 1, half))
	assert.False(t, s.Has("c"))
}

func TestStoreKeysCloneLoad(t *testing.T) {
	tl := NewTimeline(0, 2, 4)
	s := newStore(tl)
	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, s.Set(k, 1, 1))
	}
	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())

	tl2 := tl.Clone()
	c := s.Clone(tl2)
	require.NoError(t, c.Set("a", 1, 7))
	assert.Equal(t, uint64(1), s.Get("a", 1), "clone is independent")

	tl2.Advance()
	assert.Equal(t, thor.Epoch(0), tl.Current())

	require.NoError(t, s.Load("d", []Point[uint64]{{0, 1}, {3, 4}}))
	assert.Equal(t, uint64(4), s.Get("d", 3))
	assert.Error(t, s.Load("d", []Point[uint64]{{3, 1}, {3, 4}}))

	s.Delete("d")
	assert.False(t, s.Has("d"))
}

func TestValue(t *testing.T) {
	tl := NewTimeline(0, 1, 1)
	v := NewValue(tl, "v", "none")

	assert.Equal(t, "none", v.Get(0))
	require.NoError(t, v.Set(1, "one"))
	require.NoError(t, v.SetAt(0, "zero"))
	assert.Equal(t, "zero", v.Get(0))
	assert.Equal(t, "one", v.Get(3))

	tl.Advance()
	tl.Advance()
	assert.Equal(t, []Point[string]{{1, "one"}}, v.Points())
}

type op struct {
	Key     uint8
	Offset  uint8
	Value   uint16
	Advance bool
}

// TestStoreMatchesModel replays random histories against a naive model that never prunes.
func TestStoreMatchesModel(t *testing.T) {
	const pipeline, lookback = 2, 3

	f := fuzz.New().NilChance(0).NumElements(50, 200)
	for round := range 20 {
		var ops []op
		f.Fuzz(&ops)

		tl := NewTimeline(0, pipeline, lookback)
		s := New(tl, "fuzz", cmp.Compare[uint8], uint16(0))
		model := make(map[uint8]map[thor.Epoch]uint16)

		read := func(k uint8, e thor.Epoch) uint16 {
			var best thor.Epoch
			var v uint16
			found := false
			for at, val := range model[k] {
				if at <= e && (!found || at > best) {
					best, v, found = at, val, true
				}
			}
			return v
		}

		for _, o := range ops {
			if o.Advance {
				tl.Advance()
				continue
			}
			k := o.Key % 4
			off := uint64(o.Offset) % (pipeline + 1)
			require.NoError(t, s.Set(k, off, o.Value))
			if model[k] == nil {
				model[k] = make(map[thor.Epoch]uint16)
			}
			model[k][tl.Current().Add(off)] = o.Value
		}

		for k := range uint8(4) {
			for e := tl.Horizon(); e <= tl.PipelineEpoch()+1; e++ {
				assert.Equal(t, read(k, e), s.Get(k, e), "round %d key %d epoch %d", round, k, e)
			}
		}
	}
}
