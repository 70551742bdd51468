// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/pos/params"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/pos/validation"
	"github.com/vechain/stakeledger/thor"
)

var (
	val1 = thor.BytesToAddress([]byte("val1"))
	val2 = thor.BytesToAddress([]byte("val2"))
	val3 = thor.BytesToAddress([]byte("val3"))
	val4 = thor.BytesToAddress([]byte("val4"))
	val5 = thor.BytesToAddress([]byte("val5"))
	del1 = thor.BytesToAddress([]byte("del1"))
	del2 = thor.BytesToAddress([]byte("del2"))
)

// LedgerTest drives a ledger through a sequence of operations, failing the test on the first
// unexpected error.
type LedgerTest struct {
	*Ledger
	t *testing.T
}

// testParams keeps every window short: lookback is 4 + 1 + 2 + 1 = 8 epochs.
func testParams() *params.Params {
	p := params.Default()
	p.PipelineLen = 2
	p.UnbondingLen = 8
	p.MaxConsensusValidators = 2
	p.EvidenceWindow = 4
	p.SlashWindow = 1
	p.JailPeriod = 2
	p.DuplicateVoteMinRate = stakes.MustParseDec("0.1")
	p.LightClientAttackMinRate = stakes.MustParseDec("0.1")
	return p
}

func newTest(t *testing.T, tweaks ...func(*params.Params)) *LedgerTest {
	p := testParams()
	for _, tweak := range tweaks {
		tweak(p)
	}
	l, err := New(p)
	require.NoError(t, err)
	return &LedgerTest{Ledger: l, t: t}
}

func consensusKey(addr thor.Address) thor.Bytes32 {
	return thor.Blake2b(addr.Bytes())
}

func (lt *LedgerTest) Register(addrs ...thor.Address) *LedgerTest {
	for _, addr := range addrs {
		require.NoError(lt.t, lt.BecomeValidator(validation.Registration{
			Address:             addr,
			ConsensusKey:        consensusKey(addr),
			MaxCommissionChange: stakes.MustParseDec("0.05"),
		}), "register %s", addr)
	}
	return lt
}

func (lt *LedgerTest) Bond(delegator, validator thor.Address, amount uint64) *LedgerTest {
	require.NoError(lt.t, lt.Ledger.Bond(delegator, validator, amount), "bond")
	return lt
}

func (lt *LedgerTest) Unbond(delegator, validator thor.Address, amount uint64) *LedgerTest {
	require.NoError(lt.t, lt.Ledger.Unbond(delegator, validator, amount), "unbond")
	return lt
}

func (lt *LedgerTest) Redelegate(delegator, src, dst thor.Address, amount uint64) *LedgerTest {
	require.NoError(lt.t, lt.Ledger.Redelegate(delegator, src, dst, amount), "redelegate")
	return lt
}

func (lt *LedgerTest) Evidence(validator thor.Address, infraction thor.Epoch, typ slashing.InfractionType) *LedgerTest {
	require.NoError(lt.t, lt.SubmitEvidence(validator, infraction, typ), "submit evidence")
	return lt
}

// Advance moves n epochs forward without inflation.
func (lt *LedgerTest) Advance(n int) *LedgerTest {
	for range n {
		lt.AdvanceWith(0)
	}
	return lt
}

func (lt *LedgerTest) AdvanceWith(inflation uint64) *EpochReport {
	report, err := lt.OnEpochAdvance(lt.CurrentEpoch()+1, inflation)
	require.NoError(lt.t, err, "advance")
	return report
}

func (lt *LedgerTest) AssertEpoch(want thor.Epoch) *LedgerTest {
	assert.Equal(lt.t, want, lt.CurrentEpoch(), "current epoch")
	return lt
}

func (lt *LedgerTest) AssertBond(delegator, validator thor.Address, e thor.Epoch, want uint64) *LedgerTest {
	got := lt.BondAmount(delegator, validator, e)
	assert.Equal(lt.t, want, got, "bond of %s at %s, epoch %d", delegator, validator, e)
	return lt
}

func (lt *LedgerTest) AssertVotingPower(validator thor.Address, e thor.Epoch, want uint64) *LedgerTest {
	got := lt.VotingPowerAt(validator, e)
	assert.Equal(lt.t, want, got, "voting power of %s, epoch %d", validator, e)
	return lt
}

func (lt *LedgerTest) AssertValidator(validator thor.Address, e thor.Epoch, want ValidatorState) *LedgerTest {
	got := lt.ValidatorState(validator, e)
	assert.Equal(lt.t, want, got, "state of %s at epoch %d: got %s, want %s", validator, e, got, want)
	return lt
}

func (lt *LedgerTest) AssertConsensus(e thor.Epoch, want ...thor.Address) *LedgerTest {
	var got []thor.Address
	for _, m := range lt.ConsensusValidators(e) {
		got = append(got, m.Address)
	}
	assert.Equal(lt.t, want, got, "consensus set of epoch %d", e)
	return lt
}

// AssertUnchanged runs fn, expects it to fail with want and leave the state root as it was.
func (lt *LedgerTest) AssertUnchanged(want error, fn func() error) *LedgerTest {
	before, err := lt.Root()
	require.NoError(lt.t, err)
	assert.ErrorIs(lt.t, fn(), want)
	after, err := lt.Root()
	require.NoError(lt.t, err)
	assert.Equal(lt.t, before, after, "state changed by a rejected operation")
	return lt
}
