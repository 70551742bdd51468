// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pos is an epoched proof-of-stake ledger. Bonds, validator state and commission changes
// take effect a fixed number of epochs (the pipeline) after they are submitted, evidence of
// misbehaviour slashes stake retroactively, and every epoch the candidates are re-ranked into the
// consensus set which is paid the epoch's inflation.
//
// A Ledger is a deterministic state machine: replicas applying the same operations in the same order
// end up with the same Root. Mutations are serialized; queries may run concurrently, or against a
// Snapshot from any goroutine.
package pos

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/pos/bonds"
	"github.com/vechain/stakeledger/pos/epoched"
	"github.com/vechain/stakeledger/pos/params"
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/rewards"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/pos/validation"
	"github.com/vechain/stakeledger/pos/valset"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "pos")

// ErrHalted is returned by every mutation once an epoch advance failed or an invariant was broken.
var ErrHalted = errors.New("ledger halted")

func SetLogger(l log.Logger) {
	logger = l
}

// core is the complete ledger state. Ledger guards one with a lock, Snapshot owns a private copy.
type core struct {
	params   *params.Params
	tl       *epoched.Timeline
	registry *validation.Registry
	bonds    *bonds.Ledger
	sets     *valset.Manager
	slashing *slashing.Engine
	pool     *rewards.Pool
}

func newCore(p *params.Params, current thor.Epoch) *core {
	tl := epoched.NewTimeline(current, p.PipelineLen, p.Lookback())
	c := &core{
		params:   p,
		tl:       tl,
		registry: validation.NewRegistry(tl),
		bonds:    bonds.New(tl, p.UnbondingLen, p.EvidenceWindow),
		slashing: slashing.New(tl, slashingConfig(p)),
		pool:     rewards.NewPool(),
	}
	c.sets = valset.New(tl, setLimits(p), c.bonds, c.registry)
	return c
}

func (c *core) clone() *core {
	tl := c.tl.Clone()
	cpy := &core{
		params:   c.params,
		tl:       tl,
		registry: c.registry.Clone(tl),
		bonds:    c.bonds.Clone(tl),
		slashing: c.slashing.Clone(tl),
		pool:     c.pool.Clone(),
	}
	cpy.sets = c.sets.Clone(tl, cpy.bonds, cpy.registry)
	return cpy
}

func slashingConfig(p *params.Params) slashing.Config {
	return slashing.Config{
		EvidenceWindow: p.EvidenceWindow,
		SlashWindow:    p.SlashWindow,
		MinRates: map[slashing.InfractionType]stakes.Dec{
			slashing.DuplicateVote:     p.DuplicateVoteMinRate,
			slashing.LightClientAttack: p.LightClientAttackMinRate,
		},
	}
}

func setLimits(p *params.Params) valset.Limits {
	return valset.Limits{
		MaxConsensus:     p.MaxConsensusValidators,
		MaxBelowCapacity: p.MaxBelowCapacityValidators,
		StakeThreshold:   p.ValidatorStakeThreshold,
	}
}

// Ledger is the stake ledger of one replica.
type Ledger struct {
	mu     sync.RWMutex
	c      *core
	halted error
}

// New creates an empty ledger at epoch 0.
func New(p *params.Params) (*Ledger, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := newCore(p.Copy(), 0)
	if err := c.sets.Seal(0); err != nil {
		return nil, err
	}
	c.sets.Warm(1, c.tl.PipelineEpoch())
	return &Ledger{c: c}, nil
}

// Params returns a copy of the ledger parameters.
func (l *Ledger) Params() *params.Params {
	return l.c.params.Copy()
}

// Halted returns the error the ledger halted on, nil while it is running.
func (l *Ledger) Halted() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.halted
}

// write runs a mutation under the write lock. Rejections leave the state as it was; any other
// error means the state can no longer be trusted and halts the ledger.
func (l *Ledger) write(op string, fn func(c *core) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.halted != nil {
		return errors.WithMessage(ErrHalted, l.halted.Error())
	}
	err := fn(l.c)
	l.c.sets.Invalidate()
	observeOp(op, err)
	if err != nil && !reverts.IsRevertErr(err) {
		l.halt(op, err)
	}
	return err
}

func (l *Ledger) halt(op string, err error) {
	l.halted = err
	metricHalted().Set(1)
	logger.Error("ledger halted", "op", op, "epoch", l.c.tl.Current(), "error", err)
}

// read runs a query under the read lock.
func (l *Ledger) read(fn func(c *core)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.c)
}
