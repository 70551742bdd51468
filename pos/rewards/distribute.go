// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"slices"

	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/pos/bonds"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

// Validator is a consensus member taking part in a distribution.
type Validator struct {
	Address    thor.Address
	Power      uint64
	Commission stakes.Dec
	Delegators []bonds.Share
}

// Payout is what one validator and its delegators receive for an epoch.
type Payout struct {
	Validator  thor.Address  `json:"validator"`
	Share      uint64        `json:"share"`
	Commission uint64        `json:"commission"`
	Delegators []bonds.Share `json:"delegators"`
}

// Credits returns the amounts owed per owner, commission going to the validator address.
func (p *Payout) Credits() map[thor.Address]uint64 {
	out := make(map[thor.Address]uint64, len(p.Delegators)+1)
	if p.Commission > 0 {
		out[p.Validator] += p.Commission
	}
	for _, d := range p.Delegators {
		out[d.Delegator] += d.Amount
	}
	return out
}

// Distribute splits inflation across validators proportionally to power. Shares are floored and the
// remainder goes to the lowest address, so the payouts always add up to inflation exactly. Nothing
// is paid when the total power is zero.
func Distribute(inflation uint64, validators []Validator) []Payout {
	// the power sum may exceed uint64 when callers pass arbitrary sets
	var total uint256.Int
	for _, v := range validators {
		total.Add(&total, uint256.NewInt(v.Power))
	}
	if total.IsZero() || inflation == 0 {
		return nil
	}

	sorted := slices.Clone(validators)
	slices.SortFunc(sorted, func(a, b Validator) int { return a.Address.Compare(b.Address) })

	payouts := make([]Payout, 0, len(sorted))
	var paid uint64
	for _, v := range sorted {
		share := mulDiv(inflation, v.Power, &total)
		paid += share
		payouts = append(payouts, Payout{Validator: v.Address, Share: share})
	}
	payouts[0].Share += inflation - paid

	for i := range payouts {
		v := sorted[i]
		p := &payouts[i]
		p.Commission = v.Commission.MulAmount(p.Share)
		pool := p.Share - p.Commission
		p.Delegators = split(pool, v.Delegators)
		if p.Delegators == nil {
			// nobody to pay the pool to
			p.Commission = p.Share
		}
	}
	return payouts
}

// mulDiv returns a*b/c floored. The result is at most a as long as b <= c.
func mulDiv(a, b uint64, c *uint256.Int) uint64 {
	var r uint256.Int
	r.MulDivOverflow(uint256.NewInt(a), uint256.NewInt(b), c)
	return r.Uint64()
}

// split divides pool by share amount, remainder to the lowest delegator.
func split(pool uint64, shares []bonds.Share) []bonds.Share {
	var total uint64
	for _, s := range shares {
		total += s.Amount
	}
	if total == 0 {
		return nil
	}

	sorted := slices.Clone(shares)
	slices.SortFunc(sorted, func(a, b bonds.Share) int { return a.Delegator.Compare(b.Delegator) })

	out := make([]bonds.Share, 0, len(sorted))
	var paid uint64
	for _, s := range sorted {
		amount := stakes.MulDiv(pool, s.Amount, total)
		paid += amount
		out = append(out, bonds.Share{Delegator: s.Delegator, Amount: amount})
	}
	out[0].Amount += pool - paid
	return out
}
