// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"cmp"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

// InfractionType is the kind of misbehaviour evidence proves.
type InfractionType uint8

const (
	InfractionUnknown InfractionType = iota
	DuplicateVote
	LightClientAttack
)

func (t InfractionType) String() string {
	switch t {
	case DuplicateVote:
		return "duplicate-vote"
	case LightClientAttack:
		return "light-client-attack"
	default:
		return "unknown"
	}
}

func (t InfractionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *InfractionType) UnmarshalText(text []byte) error {
	parsed, err := ParseInfractionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseInfractionType parses the String form of an infraction type.
func ParseInfractionType(s string) (InfractionType, error) {
	switch s {
	case "duplicate-vote":
		return DuplicateVote, nil
	case "light-client-attack":
		return LightClientAttack, nil
	}
	return InfractionUnknown, errors.Errorf("unknown infraction type %q", s)
}

// Slash is recorded evidence against a validator and the rate it is slashed at.
type Slash struct {
	Validator       thor.Address
	InfractionEpoch thor.Epoch
	Type            InfractionType
	Rate            stakes.Dec
	ProcessingEpoch thor.Epoch
	Seq             uint64
	Processed       bool
}

func compareSlashes(a, b *Slash) int {
	if c := cmp.Compare(a.InfractionEpoch, b.InfractionEpoch); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}
