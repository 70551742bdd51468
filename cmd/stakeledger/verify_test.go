// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/logdb"
)

func TestVerifyHistory(t *testing.T) {
	s := parseTestScenario(t)
	store, db := newSinks(t)
	require.NoError(t, startRunner(t, s, store, db).Run(context.Background(), 0))

	assert.NoError(t, verifyHistory(context.Background(), io.Discard, s, db, store))
	// without the state the history is still checked
	assert.NoError(t, verifyHistory(context.Background(), io.Discard, s, db, nil))
}

func TestVerifyHistoryMismatch(t *testing.T) {
	s := parseTestScenario(t)
	store, db := newSinks(t)
	require.NoError(t, startRunner(t, s, store, db).Run(context.Background(), 0))

	other := parseTestScenario(t)
	other.Inflation = 2000

	err := verifyHistory(context.Background(), io.Discard, other, db, store)
	assert.ErrorIs(t, err, errHistoryMismatch)
	assert.ErrorContains(t, err, "at epoch 3")
}

func TestVerifyHistoryEmpty(t *testing.T) {
	s := parseTestScenario(t)
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, verifyHistory(context.Background(), io.Discard, s, db, nil))
}

func TestVerifyHistoryLongerThanScenario(t *testing.T) {
	s := parseTestScenario(t)
	store, db := newSinks(t)
	require.NoError(t, startRunner(t, s, store, db).Run(context.Background(), 0))

	short := parseTestScenario(t)
	short.Epochs = 5
	assert.ErrorContains(t, verifyHistory(context.Background(), io.Discard, short, db, store), "scenario ends at 5")
}

func TestJSONDiff(t *testing.T) {
	diff := jsonDiff([]int{1, 2, 3}, []int{1, 4, 3})
	assert.Contains(t, diff, "--- Expected")
	assert.Contains(t, diff, "+++ Actual")
	assert.Contains(t, diff, "-  2,")
	assert.Contains(t, diff, "+  4,")

	assert.Empty(t, jsonDiff(map[string]int{"a": 1}, map[string]int{"a": 1}))
}
