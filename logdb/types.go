// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

// Every row carries the epoch of the advance that produced it. Rewards were earned in Epoch-1
// and power updates take effect at Epoch+1.

// Slash is a slash applied during an epoch advance.
type Slash struct {
	Epoch           thor.Epoch
	Index           uint32
	Validator       thor.Address
	InfractionEpoch thor.Epoch
	Type            slashing.InfractionType
	Rate            stakes.Dec
}

// Reward is an amount credited to a recipient, either a validator's commission or a delegator's share.
type Reward struct {
	Epoch      thor.Epoch
	Index      uint32
	Validator  thor.Address
	Recipient  thor.Address
	Amount     uint64
	Commission bool
}

// PowerUpdate is a change of consensus power. Zero power removes the validator.
type PowerUpdate struct {
	Epoch     thor.Epoch
	Index     uint32
	Validator thor.Address
	Power     uint64
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive epoch range. A To below From leaves the range open ended.
type Range struct {
	From thor.Epoch
	To   thor.Epoch
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type Filter struct {
	Range     *Range
	Validator *thor.Address
	Recipient *thor.Address // rewards only
	Options   *Options
	Order     Order // default asc
}
