// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api/subscriptions"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/rewards"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakedb"
	"github.com/vechain/stakeledger/thor"
)

func newSinks(t *testing.T) (*stakedb.Store, *logdb.LogDB) {
	store, err := stakedb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store, db
}

// startRunner creates a runner for s, resuming from store when it holds a ledger.
func startRunner(t *testing.T, s *Scenario, store *stakedb.Store, db *logdb.LogDB) *runner {
	ledger, err := loadLedger(store, s)
	require.NoError(t, err)

	r := newRunner(s, ledger)
	require.NoError(t, r.withStore(store))
	require.NoError(t, r.withLogDB(db))
	return r
}

func TestRunnerRun(t *testing.T) {
	s := parseTestScenario(t)
	store, db := newSinks(t)
	r := startRunner(t, s, store, db)

	feed := subscriptions.NewFeed()
	ch := make(chan *pos.EpochReport, 16)
	feed.Subscribe(ch)
	r.withFeed(feed)

	var reports []*pos.EpochReport
	r.onReport = func(report *pos.EpochReport) { reports = append(reports, report) }

	require.NoError(t, r.Run(context.Background(), 0))
	assert.Equal(t, thor.Epoch(6), r.ledger.CurrentEpoch())
	require.Len(t, reports, 6)
	assert.Len(t, ch, 6)

	// the evidence submitted at epoch 2 is applied by the advance to 3
	require.Len(t, reports[2].Slashes, 1)
	assert.Equal(t, val2, reports[2].Slashes[0].Validator)
	assert.Equal(t, slashing.DuplicateVote, reports[2].Slashes[0].Type)

	// nothing is staked before the pipeline epoch, then every epoch pays the fixed inflation
	assert.Zero(t, reports[0].Distributed)
	assert.Zero(t, reports[1].Distributed)
	for _, report := range reports[2:] {
		assert.Equal(t, uint64(1000), report.Distributed, "epoch %d", report.Epoch)
	}
	amount, _ := r.inflation()
	assert.Equal(t, s.Inflation, amount)
	assert.Zero(t, r.supply)
	assert.Zero(t, r.ctrl)

	assert.NotZero(t, r.ledger.Rewards(val1))

	newest, ok, err := db.NewestEpoch()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, thor.Epoch(6), newest)

	slashes, err := db.FilterSlashes(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, slashes, 1)
	assert.Equal(t, thor.Epoch(3), slashes[0].Epoch)

	saved, err := store.Restore()
	require.NoError(t, err)
	expected, err := r.ledger.Root()
	require.NoError(t, err)
	actual, err := saved.Root()
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestRunnerFailsOnUnexpectedRevert(t *testing.T) {
	s := parseTestScenario(t)
	s.Actions = append(s.Actions, Action{Epoch: 5, Type: "unjail", Validator: &val1})

	store, db := newSinks(t)
	r := startRunner(t, s, store, db)

	err := r.Run(context.Background(), 0)
	assert.ErrorContains(t, err, "unjail at epoch 5")
	assert.Equal(t, thor.Epoch(5), r.ledger.CurrentEpoch())

	newest, _, err := db.NewestEpoch()
	require.NoError(t, err)
	assert.Equal(t, thor.Epoch(5), newest)
}

func supplyScenario(t *testing.T) *Scenario {
	s := parseTestScenario(t)
	s.Inflation = 0
	s.Supply = 100_000
	return s
}

func TestRunnerController(t *testing.T) {
	s := supplyScenario(t)
	store, db := newSinks(t)
	r := startRunner(t, s, store, db)
	require.NoError(t, r.Run(context.Background(), 0))

	// bounded by supply × max inflation rate / epochs per year
	p := s.LedgerParams()
	assert.NotZero(t, r.ctrl.Inflation)
	assert.LessOrEqual(t, r.ctrl.Inflation, r.supply*10/100/p.EpochsPerYear)
	assert.Greater(t, r.supply, s.Supply)
}

func TestRunnerKeepsStateOnFailedAdvance(t *testing.T) {
	s := supplyScenario(t)
	store, db := newSinks(t)
	r := startRunner(t, s, store, db)

	var (
		ctrl   rewards.ControllerState
		supply uint64
	)
	r.beforeAdvance = func(_ context.Context, closing thor.Epoch) error {
		if closing != 3 {
			return nil
		}
		ctrl, supply = r.ctrl, r.supply
		// the ledger is advanced behind the runner, so the runner's own advance is rejected
		_, err := r.ledger.OnEpochAdvance(closing+1, 0)
		return err
	}

	err := r.Run(context.Background(), 0)
	assert.ErrorIs(t, err, reverts.ErrInvalidEpoch)
	assert.NotZero(t, supply)
	assert.Equal(t, ctrl, r.ctrl)
	assert.Equal(t, supply, r.supply)
}

func TestRunnerResume(t *testing.T) {
	s := supplyScenario(t)

	// uninterrupted
	store, db := newSinks(t)
	whole := startRunner(t, s, store, db)
	require.NoError(t, whole.Run(context.Background(), 0))

	// stopped after epoch 3, then resumed
	store2, db2 := newSinks(t)
	first := *s
	first.Epochs = 3
	require.NoError(t, startRunner(t, &first, store2, db2).Run(context.Background(), 0))

	resumed := startRunner(t, s, store2, db2)
	assert.Equal(t, thor.Epoch(3), resumed.ledger.CurrentEpoch())
	assert.Greater(t, resumed.supply, s.Supply)
	require.NoError(t, resumed.Run(context.Background(), 0))

	expected, err := whole.ledger.Root()
	require.NoError(t, err)
	actual, err := resumed.ledger.Root()
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
	assert.Equal(t, whole.supply, resumed.supply)
	assert.Equal(t, whole.ctrl, resumed.ctrl)

	require.NoError(t, verifyHistory(context.Background(), io.Discard, s, db2, store2))
}

func TestRunnerDropsHistoryAhead(t *testing.T) {
	s := parseTestScenario(t)
	_, db := newSinks(t)

	// history written by a run whose state was never saved
	r := startRunner(t, s, mustMemStore(t), db)
	first := *s
	first.Epochs = 2
	r.scenario = &first
	require.NoError(t, r.Run(context.Background(), 0))

	newest, ok, err := db.NewestEpoch()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, thor.Epoch(2), newest)

	fresh := startRunner(t, s, mustMemStore(t), db)
	_, ok, err = db.NewestEpoch()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fresh.Run(context.Background(), 0))
	newest, _, err = db.NewestEpoch()
	require.NoError(t, err)
	assert.Equal(t, thor.Epoch(6), newest)
}

func mustMemStore(t *testing.T) *stakedb.Store {
	store, err := stakedb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunnerCancel(t *testing.T) {
	s := parseTestScenario(t)
	store, db := newSinks(t)
	r := startRunner(t, s, store, db)

	ctx, cancel := context.WithCancel(context.Background())
	r.beforeAdvance = func(_ context.Context, closing thor.Epoch) error {
		if closing == 2 {
			cancel()
		}
		return nil
	}
	err := r.Run(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, thor.Epoch(3), r.ledger.CurrentEpoch())
}
