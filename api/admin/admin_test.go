// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/thor"
)

type fakeLedger struct {
	epoch  thor.Epoch
	halted error
}

func (f *fakeLedger) CurrentEpoch() thor.Epoch { return f.epoch }
func (f *fakeLedger) Halted() error            { return f.halted }

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		expectedStatus int
		expectedLevel  string
		expectedError  string
	}{
		{
			name:           "get current level",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectedLevel:  "info",
		},
		{
			name:           "set level to debug",
			method:         http.MethodPost,
			body:           `{"level":"debug"}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  "debug",
		},
		{
			name:           "set level to trace",
			method:         http.MethodPost,
			body:           `{"level":"trace"}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  "trace",
		},
		{
			name:           "invalid level",
			method:         http.MethodPost,
			body:           `{"level":"verbose"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid verbosity level",
		},
		{
			name:           "unknown field",
			method:         http.MethodPost,
			body:           `{"lvl":"debug"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "unknown field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logLevel slog.LevelVar
			logLevel.Set(slog.LevelInfo)
			handler := New(&logLevel, &fakeLedger{})

			rr := httptest.NewRecorder()
			handler(rr, httptest.NewRequest(tt.method, "/admin/loglevel", strings.NewReader(tt.body)))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedError != "" {
				assert.Contains(t, rr.Body.String(), tt.expectedError)
				assert.Equal(t, slog.LevelInfo, logLevel.Level())
				return
			}
			var res logLevelResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
			assert.Equal(t, tt.expectedLevel, res.CurrentLevel)
		})
	}
}

func TestHealth(t *testing.T) {
	ledger := &fakeLedger{epoch: 7}
	handler := New(new(slog.LevelVar), ledger)

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/admin/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	var res healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, healthResponse{Healthy: true, Epoch: 7}, res)

	ledger.halted = errors.New("stake totals diverged")
	rr = httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/admin/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	res = healthResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.False(t, res.Healthy)
	assert.Equal(t, "stake totals diverged", res.Halted)
}

func TestStartServer(t *testing.T) {
	url, stop, err := StartServer("127.0.0.1:0", new(slog.LevelVar), &fakeLedger{epoch: 3})
	require.NoError(t, err)
	defer stop()

	res, err := http.Get(url + "/health") //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
