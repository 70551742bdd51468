// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"net/http"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/thor"
)

type healthResponse struct {
	Healthy bool       `json:"healthy"`
	Epoch   thor.Epoch `json:"epoch"`
	Halted  string     `json:"halted,omitempty"`
}

// healthHandler responds 503 once the ledger has halted.
func healthHandler(ledger Ledger) utils.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		res := healthResponse{Healthy: true, Epoch: ledger.CurrentEpoch()}
		status := http.StatusOK
		if err := ledger.Halted(); err != nil {
			res.Healthy = false
			res.Halted = err.Error()
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", utils.JSONContentType)
		w.WriteHeader(status)
		return json.NewEncoder(w).Encode(&res)
	}
}
