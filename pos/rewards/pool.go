// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

// Balance is a claimable reward balance.
type Balance struct {
	Owner  thor.Address
	Amount uint64
}

// Pool accumulates distributed rewards until their owners claim them.
type Pool struct {
	balances map[thor.Address]uint64
}

func NewPool() *Pool {
	return &Pool{balances: make(map[thor.Address]uint64)}
}

func (p *Pool) Clone() *Pool {
	return &Pool{balances: maps.Clone(p.balances)}
}

// Credit adds every payout to the owners' balances. Nothing is credited if any balance would overflow.
func (p *Pool) Credit(payouts []Payout) error {
	next := make(map[thor.Address]uint64)
	for _, payout := range payouts {
		for owner, amount := range payout.Credits() {
			base, ok := next[owner]
			if !ok {
				base = p.balances[owner]
			}
			sum, err := stakes.Add(base, amount)
			if err != nil {
				return errors.Wrapf(err, "reward balance of %s", owner)
			}
			next[owner] = sum
		}
	}
	for owner, amount := range next {
		if amount > 0 {
			p.balances[owner] = amount
		}
	}
	return nil
}

func (p *Pool) Rewards(owner thor.Address) uint64 {
	return p.balances[owner]
}

// Claim empties the owner's balance and returns it.
func (p *Pool) Claim(owner thor.Address) uint64 {
	amount := p.balances[owner]
	delete(p.balances, owner)
	return amount
}

// Total sums all unclaimed balances.
func (p *Pool) Total() uint64 {
	var total uint64
	for _, amount := range p.balances {
		total += amount
	}
	return total
}

// Export returns the balances ordered by owner.
func (p *Pool) Export() []Balance {
	out := make([]Balance, 0, len(p.balances))
	for _, owner := range slices.SortedFunc(maps.Keys(p.balances), thor.CompareAddress) {
		out = append(out, Balance{Owner: owner, Amount: p.balances[owner]})
	}
	return out
}

// Import loads exported balances into an empty pool.
func (p *Pool) Import(balances []Balance) error {
	if len(p.balances) > 0 {
		return errors.New("import into non-empty reward pool")
	}
	for _, b := range balances {
		if _, ok := p.balances[b.Owner]; ok {
			return errors.Errorf("duplicate reward balance of %s", b.Owner)
		}
		if b.Amount > 0 {
			p.balances[b.Owner] = b.Amount
		}
	}
	return nil
}
