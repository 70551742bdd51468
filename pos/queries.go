// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/bonds"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/pos/validation"
	"github.com/vechain/stakeledger/pos/valset"
	"github.com/vechain/stakeledger/thor"
)

// ValidatorState is the state of a validator at an epoch, combining its lifecycle with its rank.
type ValidatorState uint8

const (
	ValidatorUnknown ValidatorState = iota
	ValidatorInactive
	ValidatorConsensus
	ValidatorBelowCapacity
	ValidatorBelowThreshold
	ValidatorJailed
	ValidatorDeactivated
)

func (s ValidatorState) String() string {
	switch s {
	case ValidatorInactive:
		return "inactive"
	case ValidatorConsensus:
		return "consensus"
	case ValidatorBelowCapacity:
		return "below-capacity"
	case ValidatorBelowThreshold:
		return "below-threshold"
	case ValidatorJailed:
		return "jailed"
	case ValidatorDeactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

func (s ValidatorState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ValidatorState) UnmarshalText(text []byte) error {
	for st := ValidatorUnknown; st <= ValidatorDeactivated; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return errors.Errorf("unknown validator state %q", text)
}

// ValidatorInfo is a validator's record as seen at one epoch.
type ValidatorInfo struct {
	Address      thor.Address        `json:"address"`
	State        ValidatorState      `json:"state"`
	Stake        uint64              `json:"stake"`
	VotingPower  uint64              `json:"votingPower"`
	Commission   stakes.Dec          `json:"commission"`
	ConsensusKey thor.Bytes32        `json:"consensusKey"`
	Metadata     validation.Metadata `json:"metadata"`
	Registered   thor.Epoch          `json:"registered"`
	Jailed       bool                `json:"jailed"`
}

// Reader is the read side of a ledger, served by both Ledger and Snapshot.
type Reader interface {
	CurrentEpoch() thor.Epoch
	BondAmount(delegator, validator thor.Address, e thor.Epoch) uint64
	VotingPowerAt(validator thor.Address, e thor.Epoch) uint64
	ConsensusValidators(e thor.Epoch) []valset.Member
	BelowCapacityValidators(e thor.Epoch) []valset.Member
	ValidatorState(validator thor.Address, e thor.Epoch) ValidatorState
	ValidatorSetUpdate(e thor.Epoch) []valset.Update
	TotalConsensusStake(e thor.Epoch) uint64
	Validator(validator thor.Address, e thor.Epoch) (*ValidatorInfo, bool)
	Validators() []thor.Address
	Unbonds(delegator, validator thor.Address) []bonds.Unbond
	Slashes(validator thor.Address) []slashing.Slash
	Rewards(owner thor.Address) uint64
}

var (
	_ Reader = (*Ledger)(nil)
	_ Reader = (*Snapshot)(nil)
)

func (c *core) CurrentEpoch() thor.Epoch { return c.tl.Current() }

func (c *core) BondAmount(delegator, validator thor.Address, e thor.Epoch) uint64 {
	return c.bonds.BondAmount(delegator, validator, e)
}

func (c *core) VotingPowerAt(validator thor.Address, e thor.Epoch) uint64 {
	return c.sets.VotingPowerAt(validator, e)
}

func (c *core) ConsensusValidators(e thor.Epoch) []valset.Member {
	return c.sets.ConsensusValidators(e)
}

func (c *core) BelowCapacityValidators(e thor.Epoch) []valset.Member {
	return c.sets.BelowCapacityValidators(e)
}

func (c *core) ValidatorSetUpdate(e thor.Epoch) []valset.Update {
	return c.sets.ValidatorSetUpdate(e)
}

func (c *core) TotalConsensusStake(e thor.Epoch) uint64 {
	return c.sets.TotalConsensusStake(e)
}

func (c *core) ValidatorState(validator thor.Address, e thor.Epoch) ValidatorState {
	switch c.registry.Status(validator, e) {
	case validation.StatusInactive:
		return ValidatorInactive
	case validation.StatusJailed:
		return ValidatorJailed
	case validation.StatusDeactivated:
		return ValidatorDeactivated
	case validation.StatusCandidate:
		switch rank, _ := c.sets.At(e).Rank(validator); rank {
		case valset.RankConsensus:
			return ValidatorConsensus
		case valset.RankBelowCapacity:
			return ValidatorBelowCapacity
		default:
			return ValidatorBelowThreshold
		}
	default:
		return ValidatorUnknown
	}
}

func (c *core) Validator(validator thor.Address, e thor.Epoch) (*ValidatorInfo, bool) {
	v, ok := c.registry.Get(validator)
	if !ok {
		return nil, false
	}
	return &ValidatorInfo{
		Address:      validator,
		State:        c.ValidatorState(validator, e),
		Stake:        c.bonds.ValidatorStake(validator, e),
		VotingPower:  c.sets.VotingPowerAt(validator, e),
		Commission:   c.registry.CommissionRate(validator, e),
		ConsensusKey: c.registry.ConsensusKey(validator, e),
		Metadata:     v.Metadata,
		Registered:   v.Registered,
		Jailed:       v.Jailed,
	}, true
}

func (c *core) Validators() []thor.Address {
	return c.registry.Addresses()
}

func (c *core) Unbonds(delegator, validator thor.Address) []bonds.Unbond {
	return c.bonds.Unbonds(delegator, validator)
}

func (c *core) Slashes(validator thor.Address) []slashing.Slash {
	return c.slashing.Slashes(validator)
}

func (c *core) Rewards(owner thor.Address) uint64 {
	return c.pool.Rewards(owner)
}

// Ledger queries take the read lock and may run concurrently with each other.

func (l *Ledger) CurrentEpoch() (e thor.Epoch) {
	l.read(func(c *core) { e = c.CurrentEpoch() })
	return
}

// BondAmount returns the delegator's stake in the validator at e.
func (l *Ledger) BondAmount(delegator, validator thor.Address, e thor.Epoch) (amount uint64) {
	l.read(func(c *core) { amount = c.BondAmount(delegator, validator, e) })
	return
}

// VotingPowerAt returns the validator's stake at e if it is in the consensus set of e, else 0.
func (l *Ledger) VotingPowerAt(validator thor.Address, e thor.Epoch) (power uint64) {
	l.read(func(c *core) { power = c.VotingPowerAt(validator, e) })
	return
}

// ConsensusValidators returns the consensus set of e, by stake descending then address.
func (l *Ledger) ConsensusValidators(e thor.Epoch) (members []valset.Member) {
	l.read(func(c *core) { members = c.ConsensusValidators(e) })
	return
}

func (l *Ledger) BelowCapacityValidators(e thor.Epoch) (members []valset.Member) {
	l.read(func(c *core) { members = c.BelowCapacityValidators(e) })
	return
}

func (l *Ledger) ValidatorState(validator thor.Address, e thor.Epoch) (state ValidatorState) {
	l.read(func(c *core) { state = c.ValidatorState(validator, e) })
	return
}

// ValidatorSetUpdate returns the consensus power changes taking effect at e.
func (l *Ledger) ValidatorSetUpdate(e thor.Epoch) (updates []valset.Update) {
	l.read(func(c *core) { updates = c.ValidatorSetUpdate(e) })
	return
}

func (l *Ledger) TotalConsensusStake(e thor.Epoch) (total uint64) {
	l.read(func(c *core) { total = c.TotalConsensusStake(e) })
	return
}

func (l *Ledger) Validator(validator thor.Address, e thor.Epoch) (info *ValidatorInfo, ok bool) {
	l.read(func(c *core) { info, ok = c.Validator(validator, e) })
	return
}

func (l *Ledger) Validators() (addrs []thor.Address) {
	l.read(func(c *core) { addrs = c.Validators() })
	return
}

func (l *Ledger) Unbonds(delegator, validator thor.Address) (unbonds []bonds.Unbond) {
	l.read(func(c *core) { unbonds = c.Unbonds(delegator, validator) })
	return
}

func (l *Ledger) Slashes(validator thor.Address) (slashes []slashing.Slash) {
	l.read(func(c *core) { slashes = c.Slashes(validator) })
	return
}

// Rewards returns the owner's unclaimed rewards.
func (l *Ledger) Rewards(owner thor.Address) (amount uint64) {
	l.read(func(c *core) { amount = c.Rewards(owner) })
	return
}
