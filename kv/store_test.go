// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/lvldb"
)

func newStore(t *testing.T, pairs map[string]string) kv.Store {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for k, v := range pairs {
		require.NoError(t, db.Put([]byte(k), []byte(v)))
	}
	return db
}

func TestForEach(t *testing.T) {
	db := newStore(t, map[string]string{"v2": "b", "v1": "a", "b1": "bond", "w": "x"})

	var keys, vals []string
	err := kv.ForEach(kv.Bucket("v").NewStore(db), kv.Range{}, func(key, val []byte) error {
		keys = append(keys, string(key))
		vals = append(vals, string(val))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, keys)
	assert.Equal(t, []string{"a", "b"}, vals)

	stop := errors.New("stop")
	var n int
	err = kv.ForEach(db, kv.Range{}, func(_, _ []byte) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestBucketClear(t *testing.T) {
	db := newStore(t, map[string]string{"v1": "a", "v2": "b", "b1": "bond"})

	bulk := db.Bulk()
	n, err := kv.Bucket("v").Clear(db, bulk)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// not applied before the bulk is written
	has, err := db.Has([]byte("v1"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, bulk.Write())
	for key, want := range map[string]bool{"v1": false, "v2": false, "b1": true} {
		has, err := db.Has([]byte(key))
		require.NoError(t, err)
		assert.Equal(t, want, has, key)
	}
}

func TestBucketBulk(t *testing.T) {
	db := newStore(t, nil)

	bulk := kv.Bucket("r").NewBulk(db.Bulk())
	require.NoError(t, bulk.Put([]byte("1"), []byte("reward")))
	assert.Equal(t, 1, bulk.Len())
	require.NoError(t, bulk.Write())

	val, err := db.Get([]byte("r1"))
	require.NoError(t, err)
	assert.Equal(t, "reward", string(val))
}
