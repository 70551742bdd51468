// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/pos/validation"
	"github.com/vechain/stakeledger/thor"
)

// BecomeValidator registers a validator. It is ranked from the pipeline epoch on.
func (l *Ledger) BecomeValidator(reg validation.Registration) error {
	logger.Debug("registering validator",
		"address", reg.Address,
		"commission", reg.CommissionRate,
		"maxCommissionChange", reg.MaxCommissionChange,
	)

	err := l.write("become_validator", func(c *core) error {
		return c.registry.Register(reg)
	})
	if err != nil {
		logger.Info("register validator failed", "address", reg.Address, "error", err)
		return err
	}

	logger.Info("registered validator", "address", reg.Address)
	return nil
}

// ChangeCommission schedules a new commission rate at the pipeline epoch.
func (l *Ledger) ChangeCommission(validator thor.Address, rate stakes.Dec) error {
	logger.Debug("changing commission", "validator", validator, "rate", rate)

	err := l.write("change_commission", func(c *core) error {
		return c.registry.ChangeCommission(validator, rate)
	})
	if err != nil {
		logger.Info("change commission failed", "validator", validator, "error", err)
		return err
	}

	logger.Info("changed commission", "validator", validator, "rate", rate)
	return nil
}

// ChangeConsensusKey schedules a new consensus key at the pipeline epoch.
func (l *Ledger) ChangeConsensusKey(validator thor.Address, key thor.Bytes32) error {
	logger.Debug("changing consensus key", "validator", validator, "key", key.AbbrevString())

	err := l.write("change_consensus_key", func(c *core) error {
		return c.registry.ChangeConsensusKey(validator, key)
	})
	if err != nil {
		logger.Info("change consensus key failed", "validator", validator, "error", err)
		return err
	}

	logger.Info("changed consensus key", "validator", validator)
	return nil
}

// ChangeMetadata overwrites the non-empty fields of md, immediately.
func (l *Ledger) ChangeMetadata(validator thor.Address, md validation.Metadata) error {
	err := l.write("change_metadata", func(c *core) error {
		return c.registry.ChangeMetadata(validator, md)
	})
	if err != nil {
		logger.Info("change metadata failed", "validator", validator, "error", err)
		return err
	}
	return nil
}

func (l *Ledger) Deactivate(validator thor.Address) error {
	logger.Debug("deactivating validator", "validator", validator)

	err := l.write("deactivate", func(c *core) error {
		return c.registry.Deactivate(validator)
	})
	if err != nil {
		logger.Info("deactivate failed", "validator", validator, "error", err)
		return err
	}

	logger.Info("deactivated validator", "validator", validator)
	return nil
}

func (l *Ledger) Reactivate(validator thor.Address) error {
	logger.Debug("reactivating validator", "validator", validator)

	err := l.write("reactivate", func(c *core) error {
		return c.registry.Reactivate(validator)
	})
	if err != nil {
		logger.Info("reactivate failed", "validator", validator, "error", err)
		return err
	}

	logger.Info("reactivated validator", "validator", validator)
	return nil
}

// Unjail returns a jailed validator to the candidates at the pipeline epoch, once its jail period is over.
func (l *Ledger) Unjail(validator thor.Address) error {
	logger.Debug("unjailing validator", "validator", validator)

	err := l.write("unjail", func(c *core) error {
		return c.registry.Unjail(validator, c.params.JailPeriod)
	})
	if err != nil {
		logger.Info("unjail failed", "validator", validator, "error", err)
		return err
	}

	logger.Info("unjailed validator", "validator", validator)
	return nil
}
