// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/rewards"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/valset"
	"github.com/vechain/stakeledger/thor"
)

// EpochReport describes what an epoch advance did.
type EpochReport struct {
	Epoch       thor.Epoch       `json:"epoch"`
	Slashes     []slashing.Slash `json:"slashes"`
	Payouts     []rewards.Payout `json:"payouts"`
	Distributed uint64           `json:"distributed"`
	Update      []valset.Update  `json:"update"`
}

// OnEpochAdvance closes the current epoch and makes epoch the current one. epoch must directly follow
// the current epoch. Pending slashes are applied, inflation is paid to the closing epoch's consensus
// set and the new epoch's validator set is sealed.
//
// A failure past the epoch check halts the ledger: the advance may have been partially applied.
func (l *Ledger) OnEpochAdvance(epoch thor.Epoch, inflation uint64) (*EpochReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.halted != nil {
		return nil, errors.WithMessage(ErrHalted, l.halted.Error())
	}
	if current := l.c.tl.Current(); epoch != current+1 {
		err := reverts.Errorf(reverts.ErrInvalidEpoch, "advance to %d, current epoch %d", epoch, current)
		logger.Info("epoch advance rejected", "epoch", epoch, "error", err)
		return nil, err
	}

	logger.Info("🏠advancing epoch", "epoch", epoch, "inflation", inflation)
	start := time.Now()

	report, err := l.c.advance(inflation)
	if err != nil {
		l.halt("epoch_advance", err)
		return nil, err
	}

	observeAdvance(l.c, report, time.Since(start))
	logger.Info("advanced epoch",
		"epoch", report.Epoch,
		"slashes", len(report.Slashes),
		"distributed", report.Distributed,
		"consensus", len(l.c.sets.At(report.Epoch).Consensus),
		"updates", len(report.Update),
	)
	return report, nil
}

func (c *core) advance(inflation uint64) (*EpochReport, error) {
	closing := c.tl.Current()

	slashes, err := c.slashing.Process(c.bonds, c.sets)
	if err != nil {
		return nil, errors.Wrap(err, "process slashes")
	}

	payouts, err := c.distribute(closing, inflation)
	if err != nil {
		return nil, errors.Wrap(err, "distribute rewards")
	}

	epoch := c.tl.Advance()
	c.slashing.Prune()
	c.sets.Invalidate()
	if err := c.sets.Seal(epoch); err != nil {
		return nil, errors.Wrapf(err, "seal validator set %d", epoch)
	}
	c.sets.Warm(epoch+1, c.tl.PipelineEpoch())

	if err := c.checkInvariants(); err != nil {
		return nil, err
	}

	report := &EpochReport{
		Epoch:   epoch,
		Slashes: slashes,
		Payouts: payouts,
		Update:  c.sets.ValidatorSetUpdate(epoch + 1),
	}
	for _, p := range payouts {
		report.Distributed += p.Share
	}
	return report, nil
}

// distribute pays inflation to the consensus set of e, as sealed.
func (c *core) distribute(e thor.Epoch, inflation uint64) ([]rewards.Payout, error) {
	set := c.sets.At(e)
	validators := make([]rewards.Validator, 0, len(set.Consensus))
	for _, m := range set.Consensus {
		validators = append(validators, rewards.Validator{
			Address:    m.Address,
			Power:      m.Stake,
			Commission: c.registry.CommissionRate(m.Address, e),
			Delegators: c.bonds.Delegators(m.Address, e),
		})
	}
	payouts := rewards.Distribute(inflation, validators)
	if err := c.pool.Credit(payouts); err != nil {
		return nil, err
	}
	return payouts, nil
}
