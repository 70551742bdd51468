// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonds

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/epoched"
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

// Ledger holds bond entries, unbond entries and per validator stake totals.
//
// Entries are epoched: every unbond, redelegation and slash writes a new point instead of
// editing the past, so the stake behind a validator at any retained epoch can be re-derived.
type Ledger struct {
	tl             *epoched.Timeline
	unbondingLen   uint64
	evidenceWindow uint64

	entries *epoched.Store[BondKey, uint64]
	totals  *epoched.Store[thor.Address, uint64]
	unbonds map[UnbondKey]uint64
}

// New creates an empty ledger bound to tl.
func New(tl *epoched.Timeline, unbondingLen, evidenceWindow uint64) *Ledger {
	isZero := func(v uint64) bool { return v == 0 }
	return &Ledger{
		tl:             tl,
		unbondingLen:   unbondingLen,
		evidenceWindow: evidenceWindow,
		entries:        epoched.New(tl, "bonds", CompareBondKeys, uint64(0)).DropDefaults(isZero),
		totals:         epoched.New(tl, "validator_stake", thor.CompareAddress, uint64(0)).DropDefaults(isZero),
		unbonds:        make(map[UnbondKey]uint64),
	}
}

// Clone returns a deep copy bound to tl.
func (l *Ledger) Clone(tl *epoched.Timeline) *Ledger {
	return &Ledger{
		tl:             tl,
		unbondingLen:   l.unbondingLen,
		evidenceWindow: l.evidenceWindow,
		entries:        l.entries.Clone(tl),
		totals:         l.totals.Clone(tl),
		unbonds:        maps.Clone(l.unbonds),
	}
}

// Bond adds amount to the delegator's entry starting at the pipeline epoch.
func (l *Ledger) Bond(delegator, validator thor.Address, amount uint64) error {
	if amount == 0 {
		return reverts.Errorf(reverts.ErrInvalidAmount, "zero bond")
	}
	key := BondKey{Delegator: delegator, Validator: validator, Start: l.tl.PipelineEpoch()}
	return l.credit(key, amount)
}

// Unbond takes amount out of the delegator's entries, oldest first, at the pipeline epoch and
// queues it for withdrawal after the unbonding period.
func (l *Ledger) Unbond(delegator, validator thor.Address, amount uint64) ([]Unbond, error) {
	if amount == 0 {
		return nil, reverts.Errorf(reverts.ErrInvalidAmount, "zero unbond")
	}
	takes, err := l.plan(delegator, validator, amount)
	if err != nil {
		return nil, err
	}
	if err := l.debit(validator, takes, amount); err != nil {
		return nil, err
	}

	current := l.tl.Current()
	created := make([]Unbond, 0, len(takes))
	for _, t := range takes {
		key := UnbondKey{
			Delegator:    t.key.Delegator,
			Validator:    t.key.Validator,
			Start:        t.key.Start,
			Source:       t.key.Source,
			SourceStart:  t.key.SourceStart,
			UnbondEpoch:  current,
			Withdrawable: current.Add(l.unbondingLen),
		}
		// cannot overflow, the sum is bounded by bonded stake
		l.unbonds[key] += t.amount
		created = append(created, Unbond{Key: key, Amount: t.amount})
	}
	return created, nil
}

// Withdraw releases every unbond of the pair withdrawable at the current epoch.
func (l *Ledger) Withdraw(delegator, validator thor.Address) (uint64, error) {
	var (
		keys  []UnbondKey
		total uint64
		found bool
	)
	for key, amount := range l.unbonds {
		if key.Delegator != delegator || key.Validator != validator {
			continue
		}
		found = true
		if key.Withdrawable > l.tl.Current() {
			continue
		}
		sum, err := stakes.Add(total, amount)
		if err != nil {
			return 0, err
		}
		total = sum
		keys = append(keys, key)
	}
	if !found {
		return 0, reverts.Errorf(reverts.ErrUnknownDelegation, "no unbonds of %s at %s", delegator, validator)
	}
	for _, key := range keys {
		delete(l.unbonds, key)
	}
	return total, nil
}

// Redelegate moves amount from src to dst at the pipeline epoch. The destination entries remember
// where the stake came from, so it stays slashable for infractions on src committed before it left.
func (l *Ledger) Redelegate(delegator, src, dst thor.Address, amount uint64) error {
	if src == dst {
		return reverts.Errorf(reverts.ErrInvalidRedelegation, "source and destination are both %s", src)
	}
	if amount == 0 {
		return reverts.Errorf(reverts.ErrInvalidAmount, "zero redelegation")
	}
	takes, err := l.plan(delegator, src, amount)
	if err != nil {
		return err
	}
	for _, t := range takes {
		if t.key.Redelegated() && l.tl.Current() < l.SourceWindowEnd(t.key) {
			return reverts.Errorf(reverts.ErrChainedRedelegation,
				"stake from %s is slashable there until epoch %d", t.key.Source, l.SourceWindowEnd(t.key))
		}
	}

	// merge takes sharing a source start into one destination entry
	incoming := make(map[BondKey]uint64)
	for _, t := range takes {
		key := BondKey{
			Delegator:   delegator,
			Validator:   dst,
			Start:       l.tl.PipelineEpoch(),
			Source:      src,
			SourceStart: t.key.Start,
		}
		incoming[key] += t.amount
	}
	// entries never exceed their validator total, so checking the total covers them
	if _, err := stakes.Add(l.totals.Get(dst, l.tl.PipelineEpoch()), amount); err != nil {
		return reverts.Errorf(reverts.ErrInvalidAmount, "%v", err)
	}

	if err := l.debit(src, takes, amount); err != nil {
		return err
	}
	for _, key := range slices.SortedFunc(maps.Keys(incoming), CompareBondKeys) {
		if err := l.credit(key, incoming[key]); err != nil {
			return err
		}
	}
	return nil
}

// SourceWindowEnd is the first epoch at which evidence against the source of a redelegated
// entry can no longer reach it.
func (l *Ledger) SourceWindowEnd(key BondKey) thor.Epoch {
	return key.Start.Add(l.evidenceWindow)
}

// BondAmount returns the delegator's stake in the validator at e.
func (l *Ledger) BondAmount(delegator, validator thor.Address, e thor.Epoch) uint64 {
	var total uint64
	for _, key := range l.pairKeys(delegator, validator) {
		total += l.entries.Get(key, e)
	}
	return total
}

// ValidatorStake returns the stake total maintained for the validator at e.
func (l *Ledger) ValidatorStake(validator thor.Address, e thor.Epoch) uint64 {
	return l.totals.Get(validator, e)
}

// RecomputeStake sums the validator's entries at e.
func (l *Ledger) RecomputeStake(validator thor.Address, e thor.Epoch) uint64 {
	var total uint64
	for _, key := range l.entries.Keys() {
		if key.Validator == validator {
			total += l.entries.Get(key, e)
		}
	}
	return total
}

// Recompute sums the entries of every validator at e.
func (l *Ledger) Recompute(e thor.Epoch) map[thor.Address]uint64 {
	out := make(map[thor.Address]uint64)
	for _, key := range l.entries.Keys() {
		if v := l.entries.Get(key, e); v > 0 {
			out[key.Validator] += v
		}
	}
	return out
}

// CheckTotals compares the maintained totals with the entries at e.
func (l *Ledger) CheckTotals(e thor.Epoch) error {
	recomputed := l.Recompute(e)
	for _, addr := range l.totals.Keys() {
		if _, ok := recomputed[addr]; !ok {
			recomputed[addr] = 0
		}
	}
	for _, addr := range slices.SortedFunc(maps.Keys(recomputed), thor.CompareAddress) {
		if stored := l.totals.Get(addr, e); stored != recomputed[addr] {
			return errors.Errorf("stake of %s at epoch %d: stored %d, entries %d", addr, e, stored, recomputed[addr])
		}
	}
	return nil
}

// Delegators returns the non-zero shares in the validator at e, ordered by delegator.
func (l *Ledger) Delegators(validator thor.Address, e thor.Epoch) []Share {
	byDelegator := make(map[thor.Address]uint64)
	for _, key := range l.entries.Keys() {
		if key.Validator != validator {
			continue
		}
		if v := l.entries.Get(key, e); v > 0 {
			byDelegator[key.Delegator] += v
		}
	}
	shares := make([]Share, 0, len(byDelegator))
	for _, d := range slices.SortedFunc(maps.Keys(byDelegator), thor.CompareAddress) {
		shares = append(shares, Share{Delegator: d, Amount: byDelegator[d]})
	}
	return shares
}

// Unbonds returns the pending unbonds of the pair.
func (l *Ledger) Unbonds(delegator, validator thor.Address) []Unbond {
	var out []Unbond
	for _, key := range l.UnbondKeys() {
		if key.Delegator == delegator && key.Validator == validator {
			out = append(out, Unbond{Key: key, Amount: l.unbonds[key]})
		}
	}
	return out
}

// WithdrawableAmount returns what Withdraw would release at epoch e.
func (l *Ledger) WithdrawableAmount(delegator, validator thor.Address, e thor.Epoch) uint64 {
	var total uint64
	for _, u := range l.Unbonds(delegator, validator) {
		if u.Key.Withdrawable <= e {
			total += u.Amount
		}
	}
	return total
}

// References returns every validator referenced by an entry or unbond.
func (l *Ledger) References() []thor.Address {
	set := make(map[thor.Address]struct{})
	for _, key := range l.entries.Keys() {
		set[key.Validator] = struct{}{}
		if key.Redelegated() {
			set[key.Source] = struct{}{}
		}
	}
	for key := range l.unbonds {
		set[key.Validator] = struct{}{}
		if key.Redelegated() {
			set[key.Source] = struct{}{}
		}
	}
	return slices.SortedFunc(maps.Keys(set), thor.CompareAddress)
}

func (l *Ledger) pairKeys(delegator, validator thor.Address) []BondKey {
	var keys []BondKey
	for _, key := range l.entries.Keys() {
		if key.Delegator == delegator && key.Validator == validator {
			keys = append(keys, key)
		}
	}
	return keys
}

// plan picks the entries an outflow of amount consumes, oldest first, valued at the pipeline epoch.
func (l *Ledger) plan(delegator, validator thor.Address, amount uint64) ([]take, error) {
	keys := l.pairKeys(delegator, validator)
	if len(keys) == 0 {
		return nil, reverts.Errorf(reverts.ErrUnknownDelegation, "%s has no bond at %s", delegator, validator)
	}

	pe := l.tl.PipelineEpoch()
	var (
		takes     []take
		remaining = amount
		bonded    uint64
	)
	for _, key := range keys {
		v := l.entries.Get(key, pe)
		bonded += v
		if remaining == 0 || v == 0 {
			continue
		}
		n := min(v, remaining)
		takes = append(takes, take{key: key, before: v, amount: n})
		remaining -= n
	}
	if remaining > 0 {
		return nil, reverts.Errorf(reverts.ErrInsufficientBond, "requested %d, bonded %d", amount, bonded)
	}
	return takes, nil
}

// debit applies a plan to the entries and the validator total.
func (l *Ledger) debit(validator thor.Address, takes []take, amount uint64) error {
	total, err := stakes.Sub(l.totals.Get(validator, l.tl.PipelineEpoch()), amount)
	if err != nil {
		return errors.Wrapf(err, "stake total of %s", validator)
	}
	for _, t := range takes {
		if err := l.entries.Set(t.key, l.tl.Pipeline(), t.before-t.amount); err != nil {
			return err
		}
	}
	return l.totals.Set(validator, l.tl.Pipeline(), total)
}

// checkedCredit returns the entry and total values after crediting, without writing.
func (l *Ledger) checkedCredit(key BondKey, amount uint64) ([2]uint64, error) {
	pe := l.tl.PipelineEpoch()
	entry, err := stakes.Add(l.entries.Get(key, pe), amount)
	if err != nil {
		return [2]uint64{}, reverts.Errorf(reverts.ErrInvalidAmount, "%v", err)
	}
	total, err := stakes.Add(l.totals.Get(key.Validator, pe), amount)
	if err != nil {
		return [2]uint64{}, reverts.Errorf(reverts.ErrInvalidAmount, "%v", err)
	}
	if _, err := stakes.Add(l.TotalStake(pe), amount); err != nil {
		return [2]uint64{}, reverts.Errorf(reverts.ErrInvalidAmount, "total stake: %v", err)
	}
	return [2]uint64{entry, total}, nil
}

// TotalStake sums the stake totals of every validator at e. Credits keep it within uint64, so
// sums over any subset of validators cannot wrap.
func (l *Ledger) TotalStake(e thor.Epoch) uint64 {
	var total uint64
	for _, addr := range l.totals.Keys() {
		total += l.totals.Get(addr, e)
	}
	return total
}

func (l *Ledger) credit(key BondKey, amount uint64) error {
	vals, err := l.checkedCredit(key, amount)
	if err != nil {
		return err
	}
	if err := l.entries.Set(key, l.tl.Pipeline(), vals[0]); err != nil {
		return err
	}
	return l.totals.Set(key.Validator, l.tl.Pipeline(), vals[1])
}
