// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package apitest builds populated ledgers and servers for api tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/params"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/pos/validation"
	"github.com/vechain/stakeledger/thor"
)

var (
	Val1 = thor.BytesToAddress([]byte("val1"))
	Val2 = thor.BytesToAddress([]byte("val2"))
	Val3 = thor.BytesToAddress([]byte("val3"))
	Val4 = thor.BytesToAddress([]byte("val4"))
	Del1 = thor.BytesToAddress([]byte("del1"))
)

// NewLedger returns a ledger at epoch 4. del1 delegates to every validator.
//
//	epoch 2: consensus val1 800, val2 405 (slashed from 450); below capacity val3 100
//	epoch 3: consensus val1 800, val3 100; below capacity val4 50; val2 jailed
//	epoch 4: consensus val1 700 (100 unbonding until 10), val3 100; below capacity val4 50
//
// 1000 inflation is paid at each of the last two advances, leaving rewards of
// val1 154, val2 33, val3 11 and del1 1802.
func NewLedger(t *testing.T) *pos.Ledger {
	return newLedger(t, nil)
}

// NewLedgerWithHistory is NewLedger with every epoch report written to an in-memory log db.
func NewLedgerWithHistory(t *testing.T) (*pos.Ledger, *logdb.LogDB) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w := db.NewWriter()
	return newLedger(t, func(report *pos.EpochReport) {
		require.NoError(t, w.Write(report))
		require.NoError(t, w.Commit())
	}), db
}

func newLedger(t *testing.T, onReport func(*pos.EpochReport)) *pos.Ledger {
	p := params.Default()
	p.PipelineLen = 2
	p.UnbondingLen = 8
	p.MaxConsensusValidators = 2
	p.MaxBelowCapacityValidators = 1
	p.EvidenceWindow = 4
	p.SlashWindow = 1
	p.DuplicateVoteMinRate = stakes.MustParseDec("0.1")

	l, err := pos.New(p)
	require.NoError(t, err)
	for _, addr := range []thor.Address{Val1, Val2, Val3, Val4} {
		require.NoError(t, l.BecomeValidator(validation.Registration{
			Address:             addr,
			ConsensusKey:        thor.Blake2b(addr.Bytes()),
			CommissionRate:      stakes.MustParseDec("0.1"),
			MaxCommissionChange: stakes.MustParseDec("0.01"),
			Metadata:            validation.Metadata{Description: "validator " + string(addr.Bytes()[16:])},
		}))
	}
	require.NoError(t, l.Bond(Del1, Val1, 800))
	require.NoError(t, l.Bond(Del1, Val2, 450))
	require.NoError(t, l.Bond(Del1, Val3, 100))
	require.NoError(t, l.Bond(Del1, Val4, 50))
	advance(t, l, 2, 0, onReport)
	require.NoError(t, l.Unbond(Del1, Val1, 100))
	require.NoError(t, l.SubmitEvidence(Val2, 2, slashing.DuplicateVote))
	advance(t, l, 2, 1000, onReport)
	return l
}

// Advance moves l n epochs forward, distributing inflation at each.
func Advance(t *testing.T, l *pos.Ledger, n int, inflation uint64) {
	advance(t, l, n, inflation, nil)
}

func advance(t *testing.T, l *pos.Ledger, n int, inflation uint64, onReport func(*pos.EpochReport)) {
	for range n {
		report, err := l.OnEpochAdvance(l.CurrentEpoch()+1, inflation)
		require.NoError(t, err)
		if onReport != nil {
			onReport(report)
		}
	}
}

// Mountable is an api module.
type Mountable interface {
	Mount(root *mux.Router, pathPrefix string)
}

// NewServer serves m under pathPrefix.
func NewServer(t *testing.T, m Mountable, pathPrefix string) *httptest.Server {
	router := mux.NewRouter()
	m.Mount(router, pathPrefix)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

// Post sends body as JSON to url and returns the status code and response body.
func Post(t *testing.T, url string, body any) (int, []byte) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data)) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()

	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, out
}

// PostJSON posts body to url, requires a 200 response and decodes it into v.
func PostJSON(t *testing.T, url string, body, v any) {
	status, out := Post(t, url, body)
	require.Equal(t, http.StatusOK, status, string(out))
	require.NoError(t, json.Unmarshal(out, v))
}

// Get requests url and returns the status code and body.
func Get(t *testing.T, url string) (int, []byte) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, body
}

// GetJSON requests url, requires a 200 response and decodes it into v.
func GetJSON(t *testing.T, url string, v any) {
	status, body := Get(t, url)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, v))
}
