// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/pos/epoched"
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

var (
	val1 = thor.BytesToAddress([]byte("val1"))
	val2 = thor.BytesToAddress([]byte("val2"))
	key1 = thor.BytesToBytes32([]byte("key1"))
	key2 = thor.BytesToBytes32([]byte("key2"))
)

func newRegistry(t *testing.T) (*epoched.Timeline, *Registry) {
	tl := epoched.NewTimeline(0, 2, 10)
	r := NewRegistry(tl)
	require.NoError(t, r.Register(Registration{
		Address:             val1,
		ConsensusKey:        key1,
		CommissionRate:      stakes.MustParseDec("0.05"),
		MaxCommissionChange: stakes.MustParseDec("0.01"),
		Metadata:            Metadata{Email: "val1@example.com"},
	}))
	return tl, r
}

func TestRegister(t *testing.T) {
	_, r := newRegistry(t)

	assert.Equal(t, StatusInactive, r.Status(val1, 0))
	assert.Equal(t, StatusInactive, r.Status(val1, 1))
	assert.Equal(t, StatusCandidate, r.Status(val1, 2))
	assert.Equal(t, StatusUnknown, r.Status(val2, 2))
	assert.Equal(t, key1, r.ConsensusKey(val1, 5))
	assert.Equal(t, "0.05", r.CommissionRate(val1, 0).String())

	v, ok := r.Get(val1)
	require.True(t, ok)
	assert.Equal(t, "val1@example.com", v.Metadata.Email)

	tests := []struct {
		name string
		reg  Registration
		want error
	}{
		{"exists", Registration{Address: val1, ConsensusKey: key2}, reverts.ErrValidatorExists},
		{"key in use", Registration{Address: val2, ConsensusKey: key1}, reverts.ErrConsensusKeyInUse},
		{"zero key", Registration{Address: val2}, reverts.ErrInvalidConsensusKey},
		{"rate", Registration{Address: val2, ConsensusKey: key2, CommissionRate: stakes.NewDec(2)}, reverts.ErrInvalidRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, r.Register(tt.reg), tt.want)
		})
	}
	assert.Equal(t, []thor.Address{val1}, r.Addresses())
}

func TestChangeCommission(t *testing.T) {
	tl, r := newRegistry(t)

	err := r.ChangeCommission(val1, stakes.MustParseDec("0.07"))
	assert.ErrorIs(t, err, reverts.ErrCommissionChangeTooLarge)

	require.NoError(t, r.ChangeCommission(val1, stakes.MustParseDec("0.06")))
	assert.Equal(t, "0.05", r.CommissionRate(val1, 1).String())
	assert.Equal(t, "0.06", r.CommissionRate(val1, 2).String())

	tl.Advance()
	require.NoError(t, r.ChangeCommission(val1, stakes.MustParseDec("0.07")), "bounded against the previous epoch")
	assert.Equal(t, "0.07", r.CommissionRate(val1, 3).String())

	assert.ErrorIs(t, r.ChangeCommission(val2, stakes.One()), reverts.ErrUnknownValidator)
	assert.ErrorIs(t, r.ChangeCommission(val1, stakes.NewDec(2)), reverts.ErrInvalidRate)
}

func TestDeactivateReactivate(t *testing.T) {
	tl, r := newRegistry(t)
	tl.Advance()
	tl.Advance()

	require.NoError(t, r.CheckBondable(val1))
	require.NoError(t, r.Deactivate(val1))
	assert.Equal(t, StatusCandidate, r.Status(val1, 3))
	assert.Equal(t, StatusDeactivated, r.Status(val1, 4))
	assert.ErrorIs(t, r.Deactivate(val1), reverts.ErrInvalidValidatorState)
	assert.ErrorIs(t, r.CheckBondable(val1), reverts.ErrInvalidValidatorState)

	require.NoError(t, r.Reactivate(val1))
	assert.Equal(t, StatusCandidate, r.Status(val1, 4))
	assert.ErrorIs(t, r.Reactivate(val1), reverts.ErrInvalidValidatorState)
	assert.ErrorIs(t, r.CheckBondable(val2), reverts.ErrUnknownValidator)
}

func TestJailUnjail(t *testing.T) {
	tl, r := newRegistry(t)
	tl.Advance()
	tl.Advance() // epoch 2, candidate

	require.NoError(t, r.Jail(val1))
	assert.Equal(t, StatusCandidate, r.Status(val1, 2), "jailing takes effect next epoch")
	assert.Equal(t, StatusJailed, r.Status(val1, 3))
	assert.Equal(t, StatusJailed, r.Status(val1, 10))
	assert.ErrorIs(t, r.CheckBondable(val1), reverts.ErrInvalidValidatorState)

	assert.ErrorIs(t, r.Unjail(val1, 2), reverts.ErrJailPeriodNotOver)
	tl.Advance()
	tl.Advance() // epoch 4

	require.NoError(t, r.Unjail(val1, 2))
	assert.Equal(t, StatusInactive, r.Status(val1, 4))
	assert.Equal(t, StatusInactive, r.Status(val1, 5))
	assert.Equal(t, StatusCandidate, r.Status(val1, 6))
	assert.Equal(t, StatusJailed, r.Status(val1, 3), "history is kept")

	assert.ErrorIs(t, r.Unjail(val1, 2), reverts.ErrInvalidValidatorState)
}

func TestJailKeepsDeactivation(t *testing.T) {
	tl, r := newRegistry(t)
	tl.Advance()
	tl.Advance()

	require.NoError(t, r.Deactivate(val1))
	require.NoError(t, r.Jail(val1))
	assert.Equal(t, StatusJailed, r.Status(val1, 3))
	assert.Equal(t, StatusDeactivated, r.Status(val1, 4))

	tl.Advance()
	tl.Advance()
	assert.ErrorIs(t, r.Unjail(val1, 2), reverts.ErrInvalidValidatorState)

	require.NoError(t, r.Reactivate(val1))
	assert.Equal(t, StatusJailed, r.Status(val1, 6), "reactivated validators stay jailed")
	require.NoError(t, r.Unjail(val1, 2))
	assert.Equal(t, StatusCandidate, r.Status(val1, 6))
}

func TestConsensusKeyAndMetadata(t *testing.T) {
	_, r := newRegistry(t)
	require.NoError(t, r.Register(Registration{Address: val2, ConsensusKey: key2}))

	assert.ErrorIs(t, r.ChangeConsensusKey(val2, key1), reverts.ErrConsensusKeyInUse)
	newKey := thor.BytesToBytes32([]byte("key3"))
	require.NoError(t, r.ChangeConsensusKey(val2, newKey))
	assert.Equal(t, key2, r.ConsensusKey(val2, 1))
	assert.Equal(t, newKey, r.ConsensusKey(val2, 2))

	require.NoError(t, r.ChangeMetadata(val1, Metadata{Website: "https://val1.example"}))
	v, _ := r.Get(val1)
	assert.Equal(t, "val1@example.com", v.Metadata.Email)
	assert.Equal(t, "https://val1.example", v.Metadata.Website)
}

func TestExportImportClone(t *testing.T) {
	tl, r := newRegistry(t)
	require.NoError(t, r.Register(Registration{Address: val2, ConsensusKey: key2}))
	require.NoError(t, r.Jail(val2))

	recs := r.Export()
	require.Len(t, recs, 2)

	restored := NewRegistry(tl.Clone())
	require.NoError(t, restored.Import(recs))
	assert.Equal(t, recs, restored.Export())
	assert.Error(t, restored.Import(recs))

	clone := r.Clone(tl.Clone())
	require.NoError(t, clone.ChangeMetadata(val1, Metadata{Avatar: "a.png"}))
	v, _ := r.Get(val1)
	assert.Empty(t, v.Metadata.Avatar)
}
