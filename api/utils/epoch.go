// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/thor"
)

// ParseEpoch parses an epoch query parameter. An empty value or "current" resolves to current,
// "next" to the epoch after it.
func ParseEpoch(s string, current thor.Epoch) (thor.Epoch, error) {
	switch s {
	case "", "current":
		return current, nil
	case "next":
		return current + 1, nil
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errors.Errorf("invalid epoch %q", s)
	}
	return thor.Epoch(n), nil
}

// EpochQuery reads the epoch query parameter of req.
func EpochQuery(req *http.Request, current thor.Epoch) (thor.Epoch, error) {
	e, err := ParseEpoch(req.URL.Query().Get("epoch"), current)
	if err != nil {
		return 0, BadRequest(err)
	}
	return e, nil
}
