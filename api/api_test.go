// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api/apitest"
	"github.com/vechain/stakeledger/api/epochs"
	"github.com/vechain/stakeledger/api/history"
)

func TestNew(t *testing.T) {
	l, db := apitest.NewLedgerWithHistory(t)
	handler, closeSubs := New(l, db, nil, Options{AllowedOrigins: "https://Explorer.example ", HistoryLimit: 100})
	defer closeSubs()
	ts := httptest.NewServer(handler)
	defer ts.Close()

	var epoch epochs.Epoch
	apitest.GetJSON(t, ts.URL+"/epochs/current", &epoch)
	assert.Equal(t, l.CurrentEpoch(), epoch.Current)

	var rewards []*history.Reward
	apitest.PostJSON(t, ts.URL+"/history/rewards", &history.Filter{Recipient: &apitest.Del1}, &rewards)
	assert.Len(t, rewards, 4)

	status, _ := apitest.Get(t, ts.URL+"/subscriptions/epoch")
	assert.Equal(t, http.StatusNotFound, status)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/epochs/current", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://explorer.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "https://explorer.example", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestNewWithoutHistory(t *testing.T) {
	handler, closeSubs := New(apitest.NewLedger(t), nil, nil, Options{AllowedOrigins: "*"})
	defer closeSubs()
	ts := httptest.NewServer(handler)
	defer ts.Close()

	status, _ := apitest.Post(t, ts.URL+"/history/rewards", &history.Filter{})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = apitest.Get(t, ts.URL+"/validators/"+apitest.Val1.String())
	assert.Equal(t, http.StatusOK, status)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "validators_address_voting_power", routeLabel("GET /validators/{address}/voting-power"))
	assert.Equal(t, "history_rewards", routeLabel("POST /history/rewards"))
	assert.Equal(t, "epochs", routeLabel("epochs"))
}
