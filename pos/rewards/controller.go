// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/vechain/stakeledger/pos/stakes"
)

// Controller derives the per epoch inflation from how far the staked ratio is from its target,
// with a proportional and a derivative term.
type Controller struct {
	MaxInflationRate  stakes.Dec
	TargetStakedRatio stakes.Dec
	PGain             stakes.Dec
	DGain             stakes.Dec
	EpochsPerYear     uint64
}

// ControllerState is the controller output carried to the next epoch.
type ControllerState struct {
	Inflation   uint64
	StakedRatio stakes.Dec
}

// Inflation returns the inflation for the next epoch given the token supply, the staked amount
// and the previous state. The result is clamped to [0, supply × max rate / epochs per year].
func (c Controller) Inflation(supply, staked uint64, last ControllerState) ControllerState {
	ratio := stakes.NewDecFromRatio(staked, supply)
	if c.EpochsPerYear == 0 || supply == 0 {
		return ControllerState{StakedRatio: ratio}
	}

	maxInflation := new(big.Rat).Mul(new(big.Rat).SetUint64(supply), c.MaxInflationRate.Rat())
	maxInflation.Quo(maxInflation, new(big.Rat).SetUint64(c.EpochsPerYear))

	target := c.TargetStakedRatio.Rat()
	errNow := new(big.Rat).Sub(target, ratio.Rat())
	errLast := new(big.Rat).Sub(target, last.StakedRatio.Rat())
	if last.StakedRatio.IsZero() && last.Inflation == 0 {
		// first epoch, no derivative
		errLast.Set(errNow)
	}

	p := new(big.Rat).Mul(c.PGain.Rat(), maxInflation)
	p.Mul(p, errNow)
	d := new(big.Rat).Mul(c.DGain.Rat(), maxInflation)
	d.Mul(d, new(big.Rat).Sub(errNow, errLast))

	next := new(big.Rat).SetUint64(last.Inflation)
	next.Add(next, p)
	next.Sub(next, d)

	if next.Sign() < 0 {
		next.SetInt64(0)
	}
	if next.Cmp(maxInflation) > 0 {
		next.Set(maxInflation)
	}
	floor := new(big.Int).Quo(next.Num(), next.Denom())
	return ControllerState{Inflation: floor.Uint64(), StakedRatio: ratio}
}
