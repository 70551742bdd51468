// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonds

import (
	"cmp"

	"github.com/vechain/stakeledger/thor"
)

// BondKey identifies a bond entry. Stake that arrived by redelegation carries the validator
// it came from and the start epoch it had there.
type BondKey struct {
	Delegator   thor.Address
	Validator   thor.Address
	Start       thor.Epoch
	Source      thor.Address
	SourceStart thor.Epoch
}

// Redelegated reports whether the entry arrived by redelegation.
func (k BondKey) Redelegated() bool {
	return !k.Source.IsZero()
}

// CompareBondKeys orders entries by delegator, validator, then oldest first.
func CompareBondKeys(a, b BondKey) int {
	if c := a.Delegator.Compare(b.Delegator); c != 0 {
		return c
	}
	if c := a.Validator.Compare(b.Validator); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := a.Source.Compare(b.Source); c != 0 {
		return c
	}
	return cmp.Compare(a.SourceStart, b.SourceStart)
}

// UnbondKey identifies an unbond entry.
type UnbondKey struct {
	Delegator    thor.Address
	Validator    thor.Address
	Start        thor.Epoch // start of the bond entry it was taken from
	Source       thor.Address
	SourceStart  thor.Epoch
	UnbondEpoch  thor.Epoch
	Withdrawable thor.Epoch
}

// Redelegated reports whether the unbonded stake had arrived by redelegation.
func (k UnbondKey) Redelegated() bool {
	return !k.Source.IsZero()
}

// CompareUnbondKeys orders unbonds by delegator, validator, withdrawable epoch, then bond start.
func CompareUnbondKeys(a, b UnbondKey) int {
	if c := a.Delegator.Compare(b.Delegator); c != 0 {
		return c
	}
	if c := a.Validator.Compare(b.Validator); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Withdrawable, b.Withdrawable); c != 0 {
		return c
	}
	if c := cmp.Compare(a.UnbondEpoch, b.UnbondEpoch); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := a.Source.Compare(b.Source); c != 0 {
		return c
	}
	return cmp.Compare(a.SourceStart, b.SourceStart)
}

// Unbond is stake on its way out, released by a withdraw once withdrawable.
type Unbond struct {
	Key    UnbondKey
	Amount uint64
}

// Share is the stake a delegator holds in a validator at some epoch.
type Share struct {
	Delegator thor.Address
	Amount    uint64
}

// take is the part of one bond entry consumed by an unbond or redelegation.
type take struct {
	key    BondKey
	before uint64
	amount uint64
}
