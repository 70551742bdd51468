// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

type VotingPower struct {
	Epoch thor.Epoch         `json:"epoch"`
	State pos.ValidatorState `json:"state"`
	Power uint64             `json:"power"`
}

type Slash struct {
	InfractionEpoch thor.Epoch              `json:"infractionEpoch"`
	Type            slashing.InfractionType `json:"type"`
	Rate            stakes.Dec              `json:"rate"`
	ProcessingEpoch thor.Epoch              `json:"processingEpoch"`
	Processed       bool                    `json:"processed"`
}

func convertSlash(s *slashing.Slash) *Slash {
	return &Slash{
		InfractionEpoch: s.InfractionEpoch,
		Type:            s.Type,
		Rate:            s.Rate,
		ProcessingEpoch: s.ProcessingEpoch,
		Processed:       s.Processed,
	}
}
