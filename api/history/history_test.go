// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api/apitest"
	"github.com/vechain/stakeledger/api/history"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

var ts *httptest.Server

func TestHistory(t *testing.T) {
	_, db := apitest.NewLedgerWithHistory(t)
	ts = apitest.NewServer(t, history.New(db, 5), "/history")

	t.Run("filterSlashes", testFilterSlashes)
	t.Run("filterRewards", testFilterRewards)
	t.Run("filterUpdates", testFilterUpdates)
	t.Run("limit", testLimit)
	t.Run("badFilter", testBadFilter)
}

func epochPtr(e thor.Epoch) *thor.Epoch {
	return &e
}

func testFilterSlashes(t *testing.T) {
	var slashes []*history.Slash
	apitest.PostJSON(t, ts.URL+"/history/slashes", &history.Filter{}, &slashes)
	assert.Equal(t, []*history.Slash{{
		Epoch:           3,
		Validator:       apitest.Val2,
		InfractionEpoch: 2,
		Type:            slashing.DuplicateVote,
		Rate:            stakes.MustParseDec("0.1"),
	}}, slashes)

	apitest.PostJSON(t, ts.URL+"/history/slashes", &history.Filter{Validator: &apitest.Val1}, &slashes)
	assert.Empty(t, slashes)
}

func testFilterRewards(t *testing.T) {
	var rewards []*history.Reward
	apitest.PostJSON(t, ts.URL+"/history/rewards", &history.Filter{Recipient: &apitest.Del1}, &rewards)
	require.Len(t, rewards, 4)
	var total uint64
	for _, r := range rewards {
		assert.False(t, r.Commission)
		total += r.Amount
	}
	assert.Equal(t, uint64(1802), total)

	apitest.PostJSON(t, ts.URL+"/history/rewards", &history.Filter{
		Validator: &apitest.Val1,
		Range:     &history.Range{From: epochPtr(4)},
		Order:     logdb.DESC,
	}, &rewards)
	assert.Equal(t, []*history.Reward{
		{Epoch: 4, Index: 1, Validator: apitest.Val1, Recipient: apitest.Del1, Amount: 801},
		{Epoch: 4, Index: 0, Validator: apitest.Val1, Recipient: apitest.Val1, Amount: 88, Commission: true},
	}, rewards)
}

func testFilterUpdates(t *testing.T) {
	var updates []*history.PowerUpdate
	apitest.PostJSON(t, ts.URL+"/history/updates", &history.Filter{
		Range: &history.Range{From: epochPtr(1), To: epochPtr(2)},
	}, &updates)
	// the advance into 2 saw no change for epoch 3 yet: val2 was jailed afterwards
	assert.Equal(t, []*history.PowerUpdate{
		{Epoch: 1, Index: 0, Validator: apitest.Val1, Power: 800},
		{Epoch: 1, Index: 1, Validator: apitest.Val2, Power: 450},
	}, updates)

	apitest.PostJSON(t, ts.URL+"/history/updates", &history.Filter{
		Validator: &apitest.Val1,
		Range:     &history.Range{From: epochPtr(2)},
	}, &updates)
	assert.Equal(t, []*history.PowerUpdate{{Epoch: 3, Validator: apitest.Val1, Power: 700}}, updates)
}

func testLimit(t *testing.T) {
	// eight reward rows exceed the limit without pagination
	status, _ := apitest.Post(t, ts.URL+"/history/rewards", &history.Filter{})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = apitest.Post(t, ts.URL+"/history/rewards", &history.Filter{Options: &history.Options{Limit: 6}})
	assert.Equal(t, http.StatusForbidden, status)

	var rewards []*history.Reward
	apitest.PostJSON(t, ts.URL+"/history/rewards", &history.Filter{Options: &history.Options{Offset: 5, Limit: 5}}, &rewards)
	assert.Len(t, rewards, 3)
}

func testBadFilter(t *testing.T) {
	status, _ := apitest.Post(t, ts.URL+"/history/slashes", &history.Filter{
		Range: &history.Range{From: epochPtr(4), To: epochPtr(3)},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = apitest.Post(t, ts.URL+"/history/slashes", &history.Filter{Order: "random"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = apitest.Post(t, ts.URL+"/history/slashes", map[string]any{"unknown": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	res, err := http.Get(ts.URL + "/history/slashes")
	require.NoError(t, err)
	res.Body.Close()
	// mux drops the method mismatch once a sibling route under the prefix is tried
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
