// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonds

import (
	"maps"
	"slices"

	"github.com/vechain/stakeledger/thor"
)

// Keys returns all bond entry keys, ordered.
func (l *Ledger) Keys() []BondKey {
	return l.entries.Keys()
}

// UnbondKeys returns all pending unbond keys, ordered.
func (l *Ledger) UnbondKeys() []UnbondKey {
	return slices.SortedFunc(maps.Keys(l.unbonds), CompareUnbondKeys)
}

// ScaleEntry applies fn to every value of the entry from epoch from onwards. Totals are left
// stale; callers re-derive them with RederiveTotals.
func (l *Ledger) ScaleEntry(key BondKey, from thor.Epoch, fn func(uint64) uint64) error {
	return l.entries.Rewrite(key, from, fn)
}

// ScaleUnbond applies fn to a pending unbond.
func (l *Ledger) ScaleUnbond(key UnbondKey, fn func(uint64) uint64) {
	amount, ok := l.unbonds[key]
	if !ok {
		return
	}
	if amount = fn(amount); amount == 0 {
		delete(l.unbonds, key)
		return
	}
	l.unbonds[key] = amount
}

// RederiveTotals rewrites the validator's total for epochs [from, to] from its entries.
func (l *Ledger) RederiveTotals(validator thor.Address, from, to thor.Epoch) error {
	from = max(from, l.tl.Horizon())
	for e := from; e <= to; e++ {
		sum := l.RecomputeStake(validator, e)
		if l.totals.Get(validator, e) == sum {
			continue
		}
		if err := l.totals.SetAt(validator, e, sum); err != nil {
			return err
		}
	}
	return nil
}
