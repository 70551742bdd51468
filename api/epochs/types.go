// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"github.com/vechain/stakeledger/pos/valset"
	"github.com/vechain/stakeledger/thor"
)

type Epoch struct {
	Epoch               thor.Epoch `json:"epoch"`
	Current             thor.Epoch `json:"current"`
	ConsensusValidators int        `json:"consensusValidators"`
	TotalConsensusStake uint64     `json:"totalConsensusStake"`
}

type ValidatorSet struct {
	Epoch      thor.Epoch      `json:"epoch"`
	Validators []valset.Member `json:"validators"`
	TotalStake uint64          `json:"totalStake"`
}
