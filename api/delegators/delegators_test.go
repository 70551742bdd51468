// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegators_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api/apitest"
	"github.com/vechain/stakeledger/api/delegators"
	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/thor"
)

var (
	ts     *httptest.Server
	ledger *pos.Ledger
)

func TestDelegators(t *testing.T) {
	ledger = apitest.NewLedger(t)
	ts = apitest.NewServer(t, delegators.New(ledger), "/delegators")

	t.Run("getBond", testGetBond)
	t.Run("getBondAtEpoch", testGetBondAtEpoch)
	t.Run("getMissingBond", testGetMissingBond)
	t.Run("getBondWithBadValidator", testGetBondWithBadValidator)
	t.Run("getRewards", testGetRewards)
	t.Run("getMaturedUnbond", testGetMaturedUnbond)
}

func bondURL(validator thor.Address, query string) string {
	return ts.URL + "/delegators/" + apitest.Del1.String() + "/bonds/" + validator.String() + query
}

func testGetBond(t *testing.T) {
	var bond delegators.Bond
	apitest.GetJSON(t, bondURL(apitest.Val1, ""), &bond)

	assert.Equal(t, thor.Epoch(4), bond.Epoch)
	assert.Equal(t, uint64(700), bond.Amount)
	require.Len(t, bond.Unbonds, 1)
	assert.Equal(t, delegators.Unbond{
		Amount:       100,
		UnbondEpoch:  2,
		Withdrawable: 10,
	}, *bond.Unbonds[0])
}

func testGetBondAtEpoch(t *testing.T) {
	var bond delegators.Bond
	apitest.GetJSON(t, bondURL(apitest.Val1, "?epoch=3"), &bond)
	assert.Equal(t, uint64(800), bond.Amount)

	apitest.GetJSON(t, bondURL(apitest.Val2, "?epoch=1"), &bond)
	assert.Zero(t, bond.Amount)

	apitest.GetJSON(t, bondURL(apitest.Val2, "?epoch=2"), &bond)
	assert.Equal(t, uint64(405), bond.Amount)
	assert.Empty(t, bond.Unbonds)
}

func testGetMissingBond(t *testing.T) {
	var bond delegators.Bond
	apitest.GetJSON(t, ts.URL+"/delegators/"+apitest.Val1.String()+"/bonds/"+apitest.Val2.String(), &bond)
	assert.Zero(t, bond.Amount)
	assert.NotNil(t, bond.Unbonds)
	assert.Empty(t, bond.Unbonds)
}

func testGetBondWithBadValidator(t *testing.T) {
	status, body := apitest.Get(t, ts.URL+"/delegators/"+apitest.Del1.String()+"/bonds/0x01")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "validator")
}

func testGetRewards(t *testing.T) {
	tests := []struct {
		owner thor.Address
		want  uint64
	}{
		{apitest.Del1, 1802},
		{apitest.Val1, 154},
		{apitest.Val2, 33},
		{apitest.Val3, 11},
		{apitest.Val4, 0},
	}
	for _, tt := range tests {
		var rewards delegators.Rewards
		apitest.GetJSON(t, ts.URL+"/delegators/"+tt.owner.String()+"/rewards", &rewards)
		assert.Equal(t, tt.owner, rewards.Owner)
		assert.Equal(t, tt.want, rewards.Amount, "rewards of %s", tt.owner)
	}
}

// runs last, it moves the shared ledger forward
func testGetMaturedUnbond(t *testing.T) {
	apitest.Advance(t, ledger, 6, 0)

	var bond delegators.Bond
	apitest.GetJSON(t, bondURL(apitest.Val1, ""), &bond)
	require.Len(t, bond.Unbonds, 1)
	assert.True(t, bond.Unbonds[0].Matured)
}
