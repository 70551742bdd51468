// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"maps"
	"slices"

	"github.com/vechain/stakeledger/pos/epoched"
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

// Registry tracks validators and their epoched lifecycle, commission rate and consensus key.
type Registry struct {
	tl         *epoched.Timeline
	validators map[thor.Address]*Validator

	status       *epoched.Store[thor.Address, Status]
	commission   *epoched.Store[thor.Address, stakes.Dec]
	consensusKey *epoched.Store[thor.Address, thor.Bytes32]
}

// NewRegistry creates an empty registry bound to tl.
func NewRegistry(tl *epoched.Timeline) *Registry {
	return &Registry{
		tl:           tl,
		validators:   make(map[thor.Address]*Validator),
		status:       epoched.New(tl, "validator_status", thor.CompareAddress, StatusUnknown),
		commission:   epoched.New(tl, "validator_commission", thor.CompareAddress, stakes.Dec{}),
		consensusKey: epoched.New(tl, "validator_consensus_key", thor.CompareAddress, thor.Bytes32{}),
	}
}

// Clone returns a deep copy bound to tl.
func (r *Registry) Clone(tl *epoched.Timeline) *Registry {
	validators := make(map[thor.Address]*Validator, len(r.validators))
	for addr, v := range r.validators {
		cpy := *v
		validators[addr] = &cpy
	}
	return &Registry{
		tl:           tl,
		validators:   validators,
		status:       r.status.Clone(tl),
		commission:   r.commission.Clone(tl),
		consensusKey: r.consensusKey.Clone(tl),
	}
}

// Exists reports whether addr is a registered validator.
func (r *Registry) Exists(addr thor.Address) bool {
	_, ok := r.validators[addr]
	return ok
}

// Get returns a copy of the validator record.
func (r *Registry) Get(addr thor.Address) (Validator, bool) {
	v, ok := r.validators[addr]
	if !ok {
		return Validator{}, false
	}
	return *v, true
}

// Addresses returns every registered validator in ascending address order.
func (r *Registry) Addresses() []thor.Address {
	return slices.SortedFunc(maps.Keys(r.validators), thor.CompareAddress)
}

func (r *Registry) Status(addr thor.Address, e thor.Epoch) Status {
	return r.status.Get(addr, e)
}

func (r *Registry) CommissionRate(addr thor.Address, e thor.Epoch) stakes.Dec {
	return r.commission.Get(addr, e)
}

func (r *Registry) ConsensusKey(addr thor.Address, e thor.Epoch) thor.Bytes32 {
	return r.consensusKey.Get(addr, e)
}

// Register adds a validator. It is inactive until the pipeline epoch, where it becomes a candidate.
func (r *Registry) Register(reg Registration) error {
	if r.Exists(reg.Address) {
		return reverts.Errorf(reverts.ErrValidatorExists, "%s", reg.Address)
	}
	if err := r.checkConsensusKey(reg.Address, reg.ConsensusKey); err != nil {
		return err
	}
	if err := checkRate(reg.CommissionRate); err != nil {
		return err
	}
	if err := checkRate(reg.MaxCommissionChange); err != nil {
		return err
	}

	if err := r.status.Set(reg.Address, 0, StatusInactive); err != nil {
		return err
	}
	if err := r.status.Set(reg.Address, r.tl.Pipeline(), StatusCandidate); err != nil {
		return err
	}
	if err := r.commission.Set(reg.Address, 0, reg.CommissionRate); err != nil {
		return err
	}
	if err := r.consensusKey.Set(reg.Address, 0, reg.ConsensusKey); err != nil {
		return err
	}
	r.validators[reg.Address] = &Validator{
		Address:             reg.Address,
		MaxCommissionChange: reg.MaxCommissionChange,
		Metadata:            reg.Metadata,
		Registered:          r.tl.Current(),
	}
	return nil
}

// ChangeCommission schedules a new commission rate at the pipeline epoch. The change relative to the
// rate in force just before it is bounded by the validator's max commission change.
func (r *Registry) ChangeCommission(addr thor.Address, rate stakes.Dec) error {
	v, err := r.existing(addr)
	if err != nil {
		return err
	}
	if err := checkRate(rate); err != nil {
		return err
	}
	prev := r.commission.Get(addr, r.tl.PipelineEpoch()-1)
	if diff := rate.AbsDiff(prev); diff.GT(v.MaxCommissionChange) {
		return reverts.Errorf(reverts.ErrCommissionChangeTooLarge, "change %s exceeds max %s", diff, v.MaxCommissionChange)
	}
	return r.commission.Set(addr, r.tl.Pipeline(), rate)
}

// ChangeConsensusKey schedules a new consensus key at the pipeline epoch.
func (r *Registry) ChangeConsensusKey(addr thor.Address, key thor.Bytes32) error {
	if _, err := r.existing(addr); err != nil {
		return err
	}
	if err := r.checkConsensusKey(addr, key); err != nil {
		return err
	}
	return r.consensusKey.Set(addr, r.tl.Pipeline(), key)
}

// ChangeMetadata updates the non-empty fields of md immediately.
func (r *Registry) ChangeMetadata(addr thor.Address, md Metadata) error {
	v, err := r.existing(addr)
	if err != nil {
		return err
	}
	v.Metadata = v.Metadata.merge(md)
	return nil
}

// Deactivate removes the validator from ranking from the pipeline epoch on.
func (r *Registry) Deactivate(addr thor.Address) error {
	if _, err := r.existing(addr); err != nil {
		return err
	}
	if s := r.status.Get(addr, r.tl.PipelineEpoch()); s == StatusDeactivated {
		return reverts.Errorf(reverts.ErrInvalidValidatorState, "%s is already deactivated", addr)
	}
	return r.status.Set(addr, r.tl.Pipeline(), StatusDeactivated)
}

// Reactivate undoes a deactivation from the pipeline epoch on. A jailed validator comes back jailed.
func (r *Registry) Reactivate(addr thor.Address) error {
	v, err := r.existing(addr)
	if err != nil {
		return err
	}
	if s := r.status.Get(addr, r.tl.PipelineEpoch()); s != StatusDeactivated {
		return reverts.Errorf(reverts.ErrInvalidValidatorState, "%s is %s, not deactivated", addr, s)
	}
	next := StatusCandidate
	if v.Jailed {
		next = StatusJailed
	}
	return r.status.Set(addr, r.tl.Pipeline(), next)
}

// Jail removes the validator from ranking from the next epoch on. A pending deactivation is kept.
func (r *Registry) Jail(addr thor.Address) error {
	v, err := r.existing(addr)
	if err != nil {
		return err
	}
	err = r.status.Rewrite(addr, r.tl.Current()+1, func(s Status) Status {
		if s == StatusDeactivated {
			return s
		}
		return StatusJailed
	})
	if err != nil {
		return err
	}
	v.Jailed = true
	v.JailedAt = r.tl.Current()
	return nil
}

// Unjail makes a jailed validator inactive now and a candidate again at the pipeline epoch.
func (r *Registry) Unjail(addr thor.Address, jailPeriod uint64) error {
	v, err := r.existing(addr)
	if err != nil {
		return err
	}
	if !v.Jailed {
		return reverts.Errorf(reverts.ErrInvalidValidatorState, "%s is not jailed", addr)
	}
	if !v.CanUnjail(r.tl.Current(), jailPeriod) {
		return reverts.Errorf(reverts.ErrJailPeriodNotOver, "jailed at %d, period %d", v.JailedAt, jailPeriod)
	}
	if r.status.Get(addr, r.tl.PipelineEpoch()) == StatusDeactivated {
		return reverts.Errorf(reverts.ErrInvalidValidatorState, "%s is deactivated", addr)
	}

	err = r.status.Rewrite(addr, r.tl.Current(), func(s Status) Status {
		if s == StatusJailed {
			return StatusInactive
		}
		return s
	})
	if err != nil {
		return err
	}
	if err := r.status.Set(addr, r.tl.Pipeline(), StatusCandidate); err != nil {
		return err
	}
	v.Jailed = false
	return nil
}

// CheckBondable fails unless the validator can receive new stake, now and at the pipeline epoch.
func (r *Registry) CheckBondable(addr thor.Address) error {
	if _, err := r.existing(addr); err != nil {
		return err
	}
	for _, e := range []thor.Epoch{r.tl.Current(), r.tl.PipelineEpoch()} {
		if s := r.status.Get(addr, e); s == StatusJailed || s == StatusDeactivated {
			return reverts.Errorf(reverts.ErrInvalidValidatorState, "%s is %s at epoch %d", addr, s, e)
		}
	}
	return nil
}

func (r *Registry) existing(addr thor.Address) (*Validator, error) {
	v, ok := r.validators[addr]
	if !ok {
		return nil, reverts.Errorf(reverts.ErrUnknownValidator, "%s", addr)
	}
	return v, nil
}

// checkConsensusKey fails when key is zero or held by another validator anywhere in retained history.
func (r *Registry) checkConsensusKey(owner thor.Address, key thor.Bytes32) error {
	if key.IsZero() {
		return reverts.Errorf(reverts.ErrInvalidConsensusKey, "zero key")
	}
	for _, addr := range r.consensusKey.Keys() {
		if addr == owner {
			continue
		}
		for _, p := range r.consensusKey.Points(addr) {
			if p.Value == key {
				return reverts.Errorf(reverts.ErrConsensusKeyInUse, "held by %s", addr)
			}
		}
	}
	return nil
}

func checkRate(rate stakes.Dec) error {
	if rate.GT(stakes.One()) {
		return reverts.Errorf(reverts.ErrInvalidRate, "%s exceeds 1", rate)
	}
	return nil
}
