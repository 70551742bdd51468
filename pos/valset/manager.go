// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package valset

import (
	"cmp"
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/pos/epoched"
	"github.com/vechain/stakeledger/pos/validation"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "valset")

const memoSize = 64

// StakeReader provides the stake behind a validator at an epoch.
type StakeReader interface {
	ValidatorStake(addr thor.Address, e thor.Epoch) uint64
}

// StatusReader provides the lifecycle status of registered validators.
type StatusReader interface {
	Addresses() []thor.Address
	Status(addr thor.Address, e thor.Epoch) validation.Status
}

// Limits bound the size of the ranked groups.
type Limits struct {
	MaxConsensus     uint64
	MaxBelowCapacity uint64 // 0 means unbounded
	StakeThreshold   uint64
}

// Manager ranks candidates per epoch. Rankings of past and current epochs are sealed at epoch
// advance; later epochs are computed on demand and memoized until the next mutation.
type Manager struct {
	tl       *epoched.Timeline
	limits   Limits
	stakes   StakeReader
	statuses StatusReader
	memo     *cache.LRU[thor.Epoch, *Set]
	sealed   *epoched.Value[*Set]
}

// New creates a manager reading from the given stake and status sources.
func New(tl *epoched.Timeline, limits Limits, stakes StakeReader, statuses StatusReader) *Manager {
	memo, err := cache.NewLRU[thor.Epoch, *Set](memoSize)
	if err != nil {
		panic(err) // memoSize > 0
	}
	return &Manager{
		tl:       tl,
		limits:   limits,
		stakes:   stakes,
		statuses: statuses,
		memo:     memo,
		sealed:   epoched.NewValue[*Set](tl, "validator_sets", nil),
	}
}

// Clone returns a copy reading from other sources and bound to tl. Sealed sets are shared
// because they are immutable.
func (m *Manager) Clone(tl *epoched.Timeline, stakes StakeReader, statuses StatusReader) *Manager {
	c := New(tl, m.limits, stakes, statuses)
	c.sealed = m.sealed.Clone(tl)
	return c
}

// Compute ranks the candidates at e from the current stake and status sources.
func (m *Manager) Compute(e thor.Epoch) *Set {
	set := &Set{Epoch: e}
	if e < m.tl.Horizon() {
		return set
	}

	var ranked []Member
	for _, addr := range m.statuses.Addresses() {
		if m.statuses.Status(addr, e) != validation.StatusCandidate {
			continue
		}
		member := Member{Address: addr, Stake: m.stakes.ValidatorStake(addr, e)}
		if member.Stake == 0 || member.Stake < m.limits.StakeThreshold {
			set.BelowThreshold = append(set.BelowThreshold, member)
			continue
		}
		ranked = append(ranked, member)
	}
	slices.SortFunc(ranked, compareMembers)

	n := min(uint64(len(ranked)), m.limits.MaxConsensus)
	set.Consensus = ranked[:n:n]
	rest := ranked[n:]
	if m.limits.MaxBelowCapacity > 0 && uint64(len(rest)) > m.limits.MaxBelowCapacity {
		set.BelowThreshold = append(set.BelowThreshold, rest[m.limits.MaxBelowCapacity:]...)
		rest = rest[:m.limits.MaxBelowCapacity]
	}
	set.BelowCapacity = rest
	slices.SortFunc(set.BelowThreshold, compareMembers)
	return set
}

// At returns the ranking at e: the sealed one for epochs up to the current, otherwise a
// memoized computation.
func (m *Manager) At(e thor.Epoch) *Set {
	if e <= m.tl.Current() {
		if set, ok := m.sealed.Lookup(e); ok && set != nil && set.Epoch == e {
			return set
		}
	}
	set, _ := m.memo.GetOrLoad(e, func(e thor.Epoch) (*Set, error) {
		return m.Compute(e), nil
	})
	return set
}

// Seal fixes the ranking of e. e must not be before the horizon.
func (m *Manager) Seal(e thor.Epoch) error {
	set := m.Compute(e)
	if err := m.sealed.SetAt(e, set); err != nil {
		return err
	}
	m.memo.Add(e, set)
	return nil
}

// Reseal re-seals every epoch in [from, to] after a retroactive change.
func (m *Manager) Reseal(from, to thor.Epoch) error {
	m.Invalidate()
	for e := max(from, m.tl.Horizon()); e <= to; e++ {
		if err := m.Seal(e); err != nil {
			return err
		}
	}
	logger.Debug("resealed validator sets", "from", from, "to", to)
	return nil
}

// Warm memoizes the rankings of [from, to].
func (m *Manager) Warm(from, to thor.Epoch) {
	for e := from; e <= to; e++ {
		m.At(e)
	}
}

// Invalidate drops memoized rankings. Sealed rankings are kept.
func (m *Manager) Invalidate() {
	m.memo.Purge()
}

// CheckSealed verifies that the sealed ranking of e matches a fresh computation.
func (m *Manager) CheckSealed(e thor.Epoch) error {
	sealed, ok := m.sealed.Lookup(e)
	if !ok || sealed == nil || sealed.Epoch != e {
		return errors.Errorf("validator set of epoch %d not sealed", e)
	}
	if !sealed.Equal(m.Compute(e)) {
		return errors.Errorf("sealed validator set of epoch %d differs from ranking", e)
	}
	return nil
}

// CheckLimits verifies that the ranking of e partitions the candidates within the size limits.
func (m *Manager) CheckLimits(e thor.Epoch) error {
	set := m.At(e)
	if uint64(len(set.Consensus)) > m.limits.MaxConsensus {
		return errors.Errorf("epoch %d: %d consensus validators, max %d", e, len(set.Consensus), m.limits.MaxConsensus)
	}
	if m.limits.MaxBelowCapacity > 0 && uint64(len(set.BelowCapacity)) > m.limits.MaxBelowCapacity {
		return errors.Errorf("epoch %d: %d below-capacity validators, max %d", e, len(set.BelowCapacity), m.limits.MaxBelowCapacity)
	}
	seen := make(map[thor.Address]bool)
	for _, group := range [][]Member{set.Consensus, set.BelowCapacity, set.BelowThreshold} {
		for _, member := range group {
			if seen[member.Address] {
				return errors.Errorf("epoch %d: %s ranked twice", e, member.Address)
			}
			seen[member.Address] = true
		}
	}
	return nil
}

// VotingPowerAt returns the validator's consensus stake at e, 0 outside the consensus set.
func (m *Manager) VotingPowerAt(addr thor.Address, e thor.Epoch) uint64 {
	if rank, stake := m.At(e).Rank(addr); rank == RankConsensus {
		return stake
	}
	return 0
}

func (m *Manager) ConsensusValidators(e thor.Epoch) []Member {
	return slices.Clone(m.At(e).Consensus)
}

func (m *Manager) BelowCapacityValidators(e thor.Epoch) []Member {
	return slices.Clone(m.At(e).BelowCapacity)
}

func (m *Manager) TotalConsensusStake(e thor.Epoch) uint64 {
	return m.At(e).TotalConsensusStake()
}

// ValidatorSetUpdate returns the consensus power changes from e-1 to e, ordered by address.
func (m *Manager) ValidatorSetUpdate(e thor.Epoch) []Update {
	next := powers(m.At(e))
	prev := map[thor.Address]uint64{}
	if e > 0 {
		prev = powers(m.At(e - 1))
	}

	changed := make(map[thor.Address]uint64)
	for addr, power := range next {
		if prev[addr] != power {
			changed[addr] = power
		}
	}
	for addr := range prev {
		if _, ok := next[addr]; !ok {
			changed[addr] = 0
		}
	}

	updates := make([]Update, 0, len(changed))
	for _, addr := range slices.SortedFunc(maps.Keys(changed), thor.CompareAddress) {
		updates = append(updates, Update{Address: addr, Power: changed[addr]})
	}
	return updates
}

// MemoStats returns the hit/miss counters of the ranking memo.
func (m *Manager) MemoStats() *cache.Stats {
	return m.memo.Stats()
}

func powers(set *Set) map[thor.Address]uint64 {
	out := make(map[thor.Address]uint64, len(set.Consensus))
	for _, member := range set.Consensus {
		out[member.Address] = member.Stake
	}
	return out
}

func compareMembers(a, b Member) int {
	if c := cmp.Compare(b.Stake, a.Stake); c != 0 {
		return c
	}
	return a.Address.Compare(b.Address)
}
