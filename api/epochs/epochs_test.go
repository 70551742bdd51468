// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/stakeledger/api/apitest"
	"github.com/vechain/stakeledger/api/epochs"
	"github.com/vechain/stakeledger/pos/valset"
	"github.com/vechain/stakeledger/thor"
)

var ts *httptest.Server

func TestEpochs(t *testing.T) {
	ts = apitest.NewServer(t, epochs.New(apitest.NewLedger(t)), "/epochs")

	t.Run("getCurrentEpoch", testGetCurrentEpoch)
	t.Run("getConsensus", testGetConsensus)
	t.Run("getBelowCapacity", testGetBelowCapacity)
	t.Run("getUpdates", testGetUpdates)
	t.Run("getBeforeFirstSet", testGetBeforeFirstSet)
	t.Run("getWithBadEpoch", testGetWithBadEpoch)
}

func testGetCurrentEpoch(t *testing.T) {
	var epoch epochs.Epoch
	apitest.GetJSON(t, ts.URL+"/epochs/current", &epoch)
	assert.Equal(t, epochs.Epoch{
		Epoch:               4,
		Current:             4,
		ConsensusValidators: 2,
		TotalConsensusStake: 800,
	}, epoch)
}

func testGetConsensus(t *testing.T) {
	var set epochs.ValidatorSet
	apitest.GetJSON(t, ts.URL+"/epochs/2/consensus", &set)
	assert.Equal(t, epochs.ValidatorSet{
		Epoch: 2,
		Validators: []valset.Member{
			{Address: apitest.Val1, Stake: 800},
			{Address: apitest.Val2, Stake: 405},
		},
		TotalStake: 1205,
	}, set)

	apitest.GetJSON(t, ts.URL+"/epochs/next/consensus", &set)
	assert.Equal(t, thor.Epoch(5), set.Epoch)
	assert.Equal(t, []valset.Member{
		{Address: apitest.Val1, Stake: 700},
		{Address: apitest.Val3, Stake: 100},
	}, set.Validators)
}

func testGetBelowCapacity(t *testing.T) {
	var set epochs.ValidatorSet
	apitest.GetJSON(t, ts.URL+"/epochs/2/below-capacity", &set)
	assert.Equal(t, []valset.Member{{Address: apitest.Val3, Stake: 100}}, set.Validators)
	assert.Equal(t, uint64(100), set.TotalStake)

	apitest.GetJSON(t, ts.URL+"/epochs/3/below-capacity", &set)
	assert.Equal(t, []valset.Member{{Address: apitest.Val4, Stake: 50}}, set.Validators)
}

func testGetUpdates(t *testing.T) {
	var updates []valset.Update
	apitest.GetJSON(t, ts.URL+"/epochs/3/updates", &updates)
	assert.Equal(t, []valset.Update{
		{Address: apitest.Val2, Power: 0},
		{Address: apitest.Val3, Power: 100},
	}, updates)

	apitest.GetJSON(t, ts.URL+"/epochs/4/updates", &updates)
	assert.Equal(t, []valset.Update{{Address: apitest.Val1, Power: 700}}, updates)

	apitest.GetJSON(t, ts.URL+"/epochs/5/updates", &updates)
	assert.Empty(t, updates)
}

func testGetBeforeFirstSet(t *testing.T) {
	var set epochs.ValidatorSet
	apitest.GetJSON(t, ts.URL+"/epochs/1/consensus", &set)
	assert.Equal(t, thor.Epoch(1), set.Epoch)
	assert.Empty(t, set.Validators)
	assert.Zero(t, set.TotalStake)
}

func testGetWithBadEpoch(t *testing.T) {
	status, _ := apitest.Get(t, ts.URL+"/epochs/latest/consensus")
	assert.Equal(t, http.StatusBadRequest, status)
}
