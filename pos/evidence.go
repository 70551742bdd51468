// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/thor"
)

// SubmitEvidence records an infraction of validator at epoch infraction. The validator is jailed
// from the next epoch on and its stake is slashed at the next epoch advance.
func (l *Ledger) SubmitEvidence(validator thor.Address, infraction thor.Epoch, typ slashing.InfractionType) error {
	logger.Debug("submitting evidence", "validator", validator, "infraction", infraction, "type", typ)

	var slash slashing.Slash
	err := l.write("submit_evidence", func(c *core) error {
		if !c.registry.Exists(validator) {
			return reverts.Errorf(reverts.ErrUnknownValidator, "%s", validator)
		}
		if err := c.slashing.Check(validator, infraction, typ); err != nil {
			return err
		}
		if err := c.registry.Jail(validator); err != nil {
			return err
		}
		var err error
		slash, err = c.slashing.Record(validator, infraction, typ)
		return err
	})
	if err != nil {
		logger.Info("submit evidence failed", "validator", validator, "infraction", infraction, "error", err)
		return err
	}

	logger.Info("recorded evidence", "validator", validator, "infraction", infraction, "type", typ, "rate", slash.Rate)
	return nil
}
