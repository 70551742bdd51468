// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegators

import (
	"github.com/vechain/stakeledger/thor"
)

type Bond struct {
	Epoch     thor.Epoch   `json:"epoch"`
	Delegator thor.Address `json:"delegator"`
	Validator thor.Address `json:"validator"`
	Amount    uint64       `json:"amount"`
	Unbonds   []*Unbond    `json:"unbonds"`
}

// Unbond is stake on its way out of a validator. Matured unbonds can be withdrawn.
type Unbond struct {
	Amount       uint64     `json:"amount"`
	UnbondEpoch  thor.Epoch `json:"unbondEpoch"`
	Withdrawable thor.Epoch `json:"withdrawable"`
	Matured      bool       `json:"matured"`
}

type Rewards struct {
	Owner  thor.Address `json:"owner"`
	Amount uint64       `json:"amount"`
}
