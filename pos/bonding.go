// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/thor"
)

// Bond stakes amount from delegator with validator, effective at the pipeline epoch.
func (l *Ledger) Bond(delegator, validator thor.Address, amount uint64) error {
	logger.Debug("bonding", "delegator", delegator, "validator", validator, "amount", amount)

	err := l.write("bond", func(c *core) error {
		if err := c.registry.CheckBondable(validator); err != nil {
			return err
		}
		return c.bonds.Bond(delegator, validator, amount)
	})
	if err != nil {
		logger.Info("bond failed", "delegator", delegator, "validator", validator, "error", err)
		return err
	}

	logger.Info("bonded", "delegator", delegator, "validator", validator, "amount", amount)
	return nil
}

// Unbond removes amount of the delegator's stake from the validator at the pipeline epoch.
// It can be withdrawn once the unbonding period has passed.
func (l *Ledger) Unbond(delegator, validator thor.Address, amount uint64) error {
	logger.Debug("unbonding", "delegator", delegator, "validator", validator, "amount", amount)

	var withdrawable thor.Epoch
	err := l.write("unbond", func(c *core) error {
		if !c.registry.Exists(validator) {
			return reverts.Errorf(reverts.ErrUnknownValidator, "%s", validator)
		}
		created, err := c.bonds.Unbond(delegator, validator, amount)
		if err != nil {
			return err
		}
		withdrawable = created[0].Key.Withdrawable
		return nil
	})
	if err != nil {
		logger.Info("unbond failed", "delegator", delegator, "validator", validator, "error", err)
		return err
	}

	logger.Info("unbonded", "delegator", delegator, "validator", validator, "amount", amount, "withdrawable", withdrawable)
	return nil
}

// Withdraw releases the delegator's unbonded stake whose unbonding period is over. It returns 0 when
// unbonds exist but none is withdrawable yet.
func (l *Ledger) Withdraw(delegator, validator thor.Address) (uint64, error) {
	logger.Debug("withdrawing", "delegator", delegator, "validator", validator)

	var amount uint64
	err := l.write("withdraw", func(c *core) error {
		if !c.registry.Exists(validator) {
			return reverts.Errorf(reverts.ErrUnknownValidator, "%s", validator)
		}
		var err error
		amount, err = c.bonds.Withdraw(delegator, validator)
		return err
	})
	if err != nil {
		logger.Info("withdraw failed", "delegator", delegator, "validator", validator, "error", err)
		return 0, err
	}

	logger.Info("withdrew", "delegator", delegator, "validator", validator, "amount", amount)
	return amount, nil
}

// Redelegate moves amount of the delegator's stake from src to dst at the pipeline epoch. The moved
// stake remains slashable for infractions src committed while it was bonded there.
func (l *Ledger) Redelegate(delegator, src, dst thor.Address, amount uint64) error {
	logger.Debug("redelegating", "delegator", delegator, "src", src, "dst", dst, "amount", amount)

	err := l.write("redelegate", func(c *core) error {
		if !c.registry.Exists(src) {
			return reverts.Errorf(reverts.ErrUnknownValidator, "%s", src)
		}
		if src != dst {
			if err := c.registry.CheckBondable(dst); err != nil {
				return err
			}
		}
		return c.bonds.Redelegate(delegator, src, dst, amount)
	})
	if err != nil {
		logger.Info("redelegate failed", "delegator", delegator, "src", src, "dst", dst, "error", err)
		return err
	}

	logger.Info("redelegated", "delegator", delegator, "src", src, "dst", dst, "amount", amount)
	return nil
}

// ClaimRewards pays out and clears the owner's accumulated rewards.
func (l *Ledger) ClaimRewards(owner thor.Address) (uint64, error) {
	logger.Debug("claiming rewards", "owner", owner)

	var amount uint64
	err := l.write("claim_rewards", func(c *core) error {
		amount = c.pool.Claim(owner)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("claimed rewards", "owner", owner, "amount", amount)
	return amount, nil
}
