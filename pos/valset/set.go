// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package valset

import (
	"github.com/vechain/stakeledger/thor"
)

// Rank is the position of a candidate in an epoch's ranking.
type Rank uint8

const (
	RankNone Rank = iota
	RankConsensus
	RankBelowCapacity
	RankBelowThreshold
)

func (r Rank) String() string {
	switch r {
	case RankConsensus:
		return "consensus"
	case RankBelowCapacity:
		return "below-capacity"
	case RankBelowThreshold:
		return "below-threshold"
	default:
		return "none"
	}
}

// Member is a ranked candidate and the stake it was ranked with.
type Member struct {
	Address thor.Address `json:"address"`
	Stake   uint64       `json:"stake"`
}

// Set is the ranking of all candidates at one epoch. Consensus and BelowCapacity are ordered by
// stake descending then address ascending. A Set is never modified once built.
type Set struct {
	Epoch          thor.Epoch `json:"epoch"`
	Consensus      []Member   `json:"consensus"`
	BelowCapacity  []Member   `json:"belowCapacity"`
	BelowThreshold []Member   `json:"belowThreshold"`
}

// Rank returns where addr was ranked and its stake.
func (s *Set) Rank(addr thor.Address) (Rank, uint64) {
	for _, group := range []struct {
		rank    Rank
		members []Member
	}{
		{RankConsensus, s.Consensus},
		{RankBelowCapacity, s.BelowCapacity},
		{RankBelowThreshold, s.BelowThreshold},
	} {
		for _, m := range group.members {
			if m.Address == addr {
				return group.rank, m.Stake
			}
		}
	}
	return RankNone, 0
}

// TotalConsensusStake sums the stake of the consensus members.
func (s *Set) TotalConsensusStake() uint64 {
	var total uint64
	for _, m := range s.Consensus {
		total += m.Stake
	}
	return total
}

// Equal reports whether both sets rank the same members with the same stake.
func (s *Set) Equal(o *Set) bool {
	return s.Epoch == o.Epoch &&
		equalMembers(s.Consensus, o.Consensus) &&
		equalMembers(s.BelowCapacity, o.BelowCapacity) &&
		equalMembers(s.BelowThreshold, o.BelowThreshold)
}

func equalMembers(a, b []Member) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Update is a change of a validator's consensus power between two epochs. Power 0 removes it.
type Update struct {
	Address thor.Address `json:"address"`
	Power   uint64       `json:"power"`
}
