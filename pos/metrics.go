// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"time"

	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/pos/reverts"
)

var (
	metricOps            = metrics.LazyLoadCounterVec("ledger_operations_count", []string{"op", "result"})
	metricEpochAdvance   = metrics.LazyLoadHistogram("epoch_advance_duration_ms", metrics.BucketEpochAdvance)
	metricEpoch          = metrics.LazyLoadGauge("epoch")
	metricConsensusStake = metrics.LazyLoadGauge("consensus_stake")
	metricConsensusSize  = metrics.LazyLoadGauge("consensus_validators")
	metricSlashes        = metrics.LazyLoadCounterVec("slashes_applied_count", []string{"type"})
	metricDistributed    = metrics.LazyLoadCounter("rewards_distributed")
	metricMemoHitRate    = metrics.LazyLoadGauge("valset_memo_hit_permille")
	metricHalted         = metrics.LazyLoadGauge("halted")
)

func observeOp(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case reverts.IsRevertErr(err):
		result = "rejected"
	default:
		result = "error"
	}
	metricOps().AddWithLabel(1, map[string]string{"op": op, "result": result})
}

func observeAdvance(c *core, report *EpochReport, elapsed time.Duration) {
	metricEpochAdvance().Observe(elapsed.Milliseconds())
	metricEpoch().Set(int64(report.Epoch))
	set := c.sets.At(report.Epoch)
	metricConsensusStake().Set(int64(set.TotalConsensusStake()))
	metricConsensusSize().Set(int64(len(set.Consensus)))
	for _, s := range report.Slashes {
		metricSlashes().AddWithLabel(1, map[string]string{"type": s.Type.String()})
	}
	metricDistributed().Add(int64(report.Distributed))
	if changed, _, _ := c.sets.MemoStats().Stats(); changed {
		metricMemoHitRate().Set(int64(c.sets.MemoStats().HitRate() * 1000))
	}
	metricOps().AddWithLabel(1, map[string]string{"op": "epoch_advance", "result": "ok"})
}
