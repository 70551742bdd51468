// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/subscriptions"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/rewards"
	"github.com/vechain/stakeledger/pos/stakedb"
	"github.com/vechain/stakeledger/thor"
)

const (
	supplyProp     = "supply"
	controllerProp = "controller"
)

// runner drives a ledger through a scenario. The store, log db and feed are optional sinks for
// every epoch advance.
type runner struct {
	scenario   *Scenario
	ledger     *pos.Ledger
	controller rewards.Controller
	ctrl       rewards.ControllerState
	supply     uint64
	// inflation follows the controller only when the scenario sets a supply
	useController bool

	store  *stakedb.Store
	logDB  *logdb.LogDB
	writer *logdb.Writer
	feed   *subscriptions.Feed

	// called before each advance with the epoch about to be closed
	beforeAdvance func(ctx context.Context, closing thor.Epoch) error
	onReport      func(report *pos.EpochReport)
}

func newRunner(s *Scenario, ledger *pos.Ledger) *runner {
	p := ledger.Params()
	return &runner{
		scenario: s,
		ledger:   ledger,
		controller: rewards.Controller{
			MaxInflationRate:  p.MaxInflationRate,
			TargetStakedRatio: p.TargetStakedRatio,
			PGain:             p.PGain,
			DGain:             p.DGain,
			EpochsPerYear:     p.EpochsPerYear,
		},
		supply:        s.Supply,
		useController: s.Supply > 0,
	}
}

// withStore makes the runner save the ledger after each advance, and picks up the supply and
// controller state a previous run saved.
func (r *runner) withStore(store *stakedb.Store) error {
	r.store = store
	supply, err := store.Property(supplyProp)
	if err != nil {
		return err
	}
	if len(supply) == 8 {
		r.supply = binary.BigEndian.Uint64(supply)
	}
	ctrl, err := store.Property(controllerProp)
	if err != nil {
		return err
	}
	if len(ctrl) > 0 {
		if err := rlp.DecodeBytes(ctrl, &r.ctrl); err != nil {
			return errors.Wrap(err, "decode controller state")
		}
	}
	return nil
}

// withLogDB makes the runner write each epoch report to db. Rows past the ledger's epoch, left by
// an interrupted run, are dropped.
func (r *runner) withLogDB(db *logdb.LogDB) error {
	r.logDB = db
	r.writer = db.NewWriter()

	newest, ok, err := db.NewestEpoch()
	if err != nil {
		return err
	}
	if current := r.ledger.CurrentEpoch(); ok && newest > current {
		logger.Warn("dropping history ahead of the ledger", "ledger", current, "history", newest)
		if err := r.writer.Truncate(current + 1); err != nil {
			return err
		}
		return r.writer.Commit()
	}
	return nil
}

func (r *runner) withFeed(feed *subscriptions.Feed) {
	r.feed = feed
}

// inflation returns the amount paid to the closing epoch's consensus set, with the controller
// state to keep once the advance succeeds.
func (r *runner) inflation() (uint64, rewards.ControllerState) {
	if !r.useController {
		return r.scenario.Inflation, r.ctrl
	}
	staked := r.ledger.TotalConsensusStake(r.ledger.CurrentEpoch())
	next := r.controller.Inflation(r.supply, staked, r.ctrl)
	return next.Inflation, next
}

// Run applies the scenario from the ledger's current epoch until its last epoch. interval is the
// minimum time between two advances.
func (r *runner) Run(ctx context.Context, interval time.Duration) error {
	if r.ledger.CurrentEpoch() == 0 && len(r.ledger.Validators()) == 0 {
		if err := r.scenario.Genesis(r.ledger); err != nil {
			return err
		}
	}

	var ticker <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		ticker = t.C
	}

	for uint64(r.ledger.CurrentEpoch()) < r.scenario.Epochs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := r.step(ctx); err != nil {
			return err
		}
		if ticker != nil && uint64(r.ledger.CurrentEpoch()) < r.scenario.Epochs {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker:
			}
		}
	}
	return nil
}

// step applies the actions of the current epoch and advances to the next one.
func (r *runner) step(ctx context.Context) (*pos.EpochReport, error) {
	closing := r.ledger.CurrentEpoch()
	for _, a := range r.scenario.ActionsAt(closing) {
		if err := a.Apply(r.ledger); err != nil {
			return nil, errors.WithMessagef(err, "%s at epoch %d", a.Type, closing)
		}
	}
	if r.beforeAdvance != nil {
		if err := r.beforeAdvance(ctx, closing); err != nil {
			return nil, err
		}
	}

	amount, ctrl := r.inflation()
	report, err := r.ledger.OnEpochAdvance(closing+1, amount)
	if err != nil {
		return nil, err
	}
	r.ctrl = ctrl
	if r.useController {
		r.supply += report.Distributed
	}

	if err := r.persist(report); err != nil {
		return nil, err
	}
	if r.feed != nil {
		r.feed.Publish(report)
	}
	if r.onReport != nil {
		r.onReport(report)
	}
	return report, nil
}

// persist writes the history before the state, so that a state on disk always has its history.
func (r *runner) persist(report *pos.EpochReport) error {
	if r.writer != nil {
		if err := r.writer.Write(report); err != nil {
			return errors.WithMessage(err, "write history")
		}
		if err := r.writer.Commit(); err != nil {
			return errors.Wrap(err, "commit history")
		}
	}
	if r.store == nil {
		return nil
	}

	ctrl, err := rlp.EncodeToBytes(&r.ctrl)
	if err != nil {
		return errors.Wrap(err, "encode controller state")
	}
	var supply [8]byte
	binary.BigEndian.PutUint64(supply[:], r.supply)

	return r.store.SaveWithProperties(r.ledger.Params(), r.ledger.Export(), map[string][]byte{
		supplyProp:     supply[:],
		controllerProp: ctrl,
	})
}
