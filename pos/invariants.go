// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/reverts"
)

// checkInvariants verifies the state after an epoch advance or a restore:
//   - stake totals equal the sum of the bond entries for the current and every pipelined epoch
//   - the current validator set is sealed and equal to a fresh ranking
//   - every ranking is a partition of the candidates within the size limits
//   - bonds and unbonds only reference registered validators
func (c *core) checkInvariants() error {
	current := c.tl.Current()
	for e := current; e <= c.tl.PipelineEpoch(); e++ {
		if err := c.bonds.CheckTotals(e); err != nil {
			return errors.WithMessage(reverts.ErrInvariantViolation, err.Error())
		}
		if err := c.sets.CheckLimits(e); err != nil {
			return errors.WithMessage(reverts.ErrInvariantViolation, err.Error())
		}
	}
	if err := c.sets.CheckSealed(current); err != nil {
		return errors.WithMessage(reverts.ErrInvariantViolation, err.Error())
	}
	for _, addr := range c.bonds.References() {
		if !c.registry.Exists(addr) {
			return errors.WithMessagef(reverts.ErrInvariantViolation, "bond references unknown validator %s", addr)
		}
	}
	return nil
}
