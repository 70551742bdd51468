// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/pos/bonds"
	"github.com/vechain/stakeledger/pos/epoched"
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

var (
	del1 = thor.BytesToAddress([]byte("d1"))
	val1 = thor.BytesToAddress([]byte("v1"))
	val2 = thor.BytesToAddress([]byte("v2"))
)

type sealRecorder struct {
	calls [][2]thor.Epoch
}

func (r *sealRecorder) Reseal(from, to thor.Epoch) error {
	r.calls = append(r.calls, [2]thor.Epoch{from, to})
	return nil
}

func setup(minRate string) (*epoched.Timeline, *bonds.Ledger, *Engine) {
	tl := epoched.NewTimeline(0, 2, 8)
	rate := stakes.MustParseDec(minRate)
	engine := New(tl, Config{
		EvidenceWindow: 4,
		SlashWindow:    1,
		MinRates:       map[InfractionType]stakes.Dec{DuplicateVote: rate, LightClientAttack: rate},
	})
	return tl, bonds.New(tl, 3, 4), engine
}

func advance(tl *epoched.Timeline, n int) {
	for range n {
		tl.Advance()
	}
}

func TestRecordChecks(t *testing.T) {
	tl, _, engine := setup("0.1")
	advance(tl, 10)

	_, err := engine.Record(val1, 11, DuplicateVote)
	assert.ErrorIs(t, err, reverts.ErrInvalidEpoch)
	_, err = engine.Record(val1, 5, DuplicateVote)
	assert.ErrorIs(t, err, reverts.ErrEvidenceExpired)
	_, err = engine.Record(val1, 8, InfractionUnknown)
	assert.ErrorIs(t, err, reverts.ErrInvalidInfraction)

	s, err := engine.Record(val1, 6, DuplicateVote)
	require.NoError(t, err, "window end is inclusive")
	assert.Equal(t, thor.Epoch(10), s.ProcessingEpoch)
	_, err = engine.Record(val1, 6, DuplicateVote)
	assert.ErrorIs(t, err, reverts.ErrDuplicateEvidence)
	_, err = engine.Record(val1, 6, LightClientAttack)
	assert.NoError(t, err)
	assert.Len(t, engine.Pending(), 2)
}

func TestRateEscalation(t *testing.T) {
	tests := []struct {
		name       string
		minRate    string
		infraction []thor.Epoch
		want       []string
	}{
		{"single", "0.1", []thor.Epoch{3}, []string{"0.1"}},
		{"same epoch", "0.1", []thor.Epoch{3, 3}, []string{"0.1", "0.2"}},
		{"outside window", "0.1", []thor.Epoch{3, 3, 5}, []string{"0.1", "0.2", "0.1"}},
		{"inside window", "0.1", []thor.Epoch{3, 3, 4}, []string{"0.1", "0.2", "0.3"}},
		{"capped", "0.5", []thor.Epoch{3, 3, 4}, []string{"0.5", "1", "1"}},
	}
	types := []InfractionType{DuplicateVote, LightClientAttack, DuplicateVote}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, _, engine := setup(tt.minRate)
			advance(tl, 5)
			for i, inf := range tt.infraction {
				s, err := engine.Record(val1, inf, types[i])
				require.NoError(t, err)
				assert.Equal(t, tt.want[i], s.Rate.String())
			}
		})
	}
}

func TestProcessRetroactive(t *testing.T) {
	tl, ledger, engine := setup("0.1")
	require.NoError(t, ledger.Bond(del1, val1, 1000))
	advance(tl, 5)

	_, err := engine.Record(val1, 3, DuplicateVote)
	require.NoError(t, err)

	sealer := &sealRecorder{}
	processed, err := engine.Process(ledger, sealer)
	require.NoError(t, err)
	require.Len(t, processed, 1)
	assert.True(t, processed[0].Processed)
	assert.Empty(t, engine.Pending())

	assert.Equal(t, uint64(1000), ledger.BondAmount(del1, val1, 2))
	for e := thor.Epoch(3); e <= tl.PipelineEpoch(); e++ {
		assert.Equal(t, uint64(900), ledger.BondAmount(del1, val1, e))
		assert.Equal(t, uint64(900), ledger.ValidatorStake(val1, e))
		assert.NoError(t, ledger.CheckTotals(e))
	}
	assert.Equal(t, [][2]thor.Epoch{{3, 5}}, sealer.calls)

	processed, err = engine.Process(ledger, sealer)
	assert.NoError(t, err)
	assert.Empty(t, processed)
	assert.Len(t, sealer.calls, 1)
}

func TestProcessUnbonds(t *testing.T) {
	tl, ledger, engine := setup("0.1")
	require.NoError(t, ledger.Bond(del1, val1, 1000))
	advance(tl, 3)
	_, err := ledger.Unbond(del1, val1, 400)
	require.NoError(t, err)
	advance(tl, 1)

	_, err = engine.Record(val1, 3, DuplicateVote)
	require.NoError(t, err)
	_, err = engine.Process(ledger, &sealRecorder{})
	require.NoError(t, err)

	assert.Equal(t, uint64(540), ledger.BondAmount(del1, val1, tl.PipelineEpoch()))
	assert.Equal(t, uint64(360), ledger.WithdrawableAmount(del1, val1, 6))
}

func TestRedelegationDoesNotShield(t *testing.T) {
	tl, ledger, engine := setup("0.1")
	require.NoError(t, ledger.Bond(del1, val1, 1000))
	advance(tl, 3)
	require.NoError(t, ledger.Redelegate(del1, val1, val2, 1000))
	advance(tl, 1)

	_, err := engine.Record(val1, 3, DuplicateVote)
	require.NoError(t, err)
	_, err = engine.Process(ledger, &sealRecorder{})
	require.NoError(t, err)

	assert.Equal(t, uint64(900), ledger.BondAmount(del1, val1, 4), "still at the source")
	assert.Equal(t, uint64(0), ledger.BondAmount(del1, val1, 5))
	assert.Equal(t, uint64(900), ledger.BondAmount(del1, val2, 5))
	assert.Equal(t, uint64(900), ledger.ValidatorStake(val2, 5))
	assert.NoError(t, ledger.CheckTotals(5))
}

func TestRedelegationBeforeInfraction(t *testing.T) {
	tl, ledger, engine := setup("0.1")
	require.NoError(t, ledger.Bond(del1, val1, 1000))
	advance(tl, 3)
	require.NoError(t, ledger.Redelegate(del1, val1, val2, 1000))
	advance(tl, 2)

	// the stake left val1 at epoch 5
	_, err := engine.Record(val1, 5, DuplicateVote)
	require.NoError(t, err)
	_, err = engine.Process(ledger, &sealRecorder{})
	require.NoError(t, err)

	assert.Equal(t, uint64(1000), ledger.BondAmount(del1, val2, 5))
	assert.Equal(t, uint64(1000), ledger.BondAmount(del1, val1, 4))
}

func TestPruneAndExport(t *testing.T) {
	tl, ledger, engine := setup("0.1")
	advance(tl, 5)
	_, err := engine.Record(val1, 3, DuplicateVote)
	require.NoError(t, err)
	_, err = engine.Record(val2, 5, LightClientAttack)
	require.NoError(t, err)

	seq, slashes := engine.Export()
	restored := New(tl, engine.cfg)
	require.NoError(t, restored.Import(seq, slashes))
	assert.Equal(t, engine.Pending(), restored.Pending())
	assert.Error(t, restored.Import(seq, slashes))

	_, err = engine.Process(ledger, &sealRecorder{})
	require.NoError(t, err)
	advance(tl, 7)
	engine.Prune()
	assert.Len(t, engine.Slashes(val1), 0)
	assert.Len(t, engine.Slashes(val2), 1)

	c := restored.Clone(tl)
	c.slashes[0].Processed = true
	assert.False(t, restored.slashes[0].Processed)
}

func TestInfractionTypeText(t *testing.T) {
	for _, typ := range []InfractionType{DuplicateVote, LightClientAttack} {
		text, err := typ.MarshalText()
		require.NoError(t, err)
		var parsed InfractionType
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, typ, parsed)
	}
	_, err := ParseInfractionType("double-sign")
	assert.Error(t, err)
}
