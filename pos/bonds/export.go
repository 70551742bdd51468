// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonds

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/epoched"
	"github.com/vechain/stakeledger/thor"
)

// Entry is the retained history of one bond entry.
type Entry struct {
	Key    BondKey
	Points []epoched.Point[uint64]
}

// Export returns entries and unbonds in key order. Totals are derived and not exported.
func (l *Ledger) Export() ([]Entry, []Unbond) {
	keys := l.entries.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, Entry{Key: key, Points: l.entries.Points(key)})
	}
	return entries, l.unbondList()
}

// Import loads exported entries and unbonds into an empty ledger and rebuilds the totals.
func (l *Ledger) Import(entries []Entry, unbonds []Unbond) error {
	if l.entries.Len() > 0 || len(l.unbonds) > 0 {
		return errors.New("import into non-empty bond ledger")
	}
	for _, entry := range entries {
		if err := l.entries.Load(entry.Key, entry.Points); err != nil {
			return errors.Wrapf(err, "bond of %s at %s", entry.Key.Delegator, entry.Key.Validator)
		}
	}
	for _, u := range unbonds {
		if u.Amount == 0 {
			return errors.Errorf("zero unbond of %s at %s", u.Key.Delegator, u.Key.Validator)
		}
		l.unbonds[u.Key] += u.Amount
	}

	validators := make(map[thor.Address]bool)
	for _, key := range l.entries.Keys() {
		if validators[key.Validator] {
			continue
		}
		validators[key.Validator] = true
		if err := l.RederiveTotals(key.Validator, l.tl.Horizon(), l.tl.PipelineEpoch()); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) unbondList() []Unbond {
	keys := l.UnbondKeys()
	out := make([]Unbond, 0, len(keys))
	for _, key := range keys {
		out = append(out, Unbond{Key: key, Amount: l.unbonds[key]})
	}
	return out
}
