// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"math"

	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

type Range struct {
	From *thor.Epoch `json:"from,omitempty"`
	To   *thor.Epoch `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects history rows. Recipient only applies to rewards.
type Filter struct {
	Range     *Range        `json:"range"`
	Validator *thor.Address `json:"validator"`
	Recipient *thor.Address `json:"recipient"`
	Options   *Options      `json:"options"`
	Order     logdb.Order   `json:"order"`
}

func convertFilter(f *Filter) *logdb.Filter {
	out := &logdb.Filter{
		Validator: f.Validator,
		Recipient: f.Recipient,
		Order:     f.Order,
	}
	if f.Range != nil {
		out.Range = &logdb.Range{To: math.MaxInt64}
		if f.Range.From != nil {
			out.Range.From = *f.Range.From
		}
		if f.Range.To != nil {
			out.Range.To = *f.Range.To
		}
	}
	if f.Options != nil {
		out.Options = &logdb.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	return out
}

type Slash struct {
	Epoch           thor.Epoch              `json:"epoch"`
	Index           uint32                  `json:"index"`
	Validator       thor.Address            `json:"validator"`
	InfractionEpoch thor.Epoch              `json:"infractionEpoch"`
	Type            slashing.InfractionType `json:"type"`
	Rate            stakes.Dec              `json:"rate"`
}

type Reward struct {
	Epoch      thor.Epoch   `json:"epoch"`
	Index      uint32       `json:"index"`
	Validator  thor.Address `json:"validator"`
	Recipient  thor.Address `json:"recipient"`
	Amount     uint64       `json:"amount"`
	Commission bool         `json:"commission"`
}

type PowerUpdate struct {
	Epoch     thor.Epoch   `json:"epoch"`
	Index     uint32       `json:"index"`
	Validator thor.Address `json:"validator"`
	Power     uint64       `json:"power"`
}
