// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoched

import (
	"github.com/vechain/stakeledger/thor"
)

type pruner interface {
	prune(horizon thor.Epoch)
}

// Timeline is the clock shared by a group of epoched stores. Advancing it prunes all of them
// in the order they were created.
type Timeline struct {
	current  thor.Epoch
	pipeline uint64
	lookback uint64
	stores   []pruner
}

// NewTimeline creates a timeline starting at current. Writes may target at most
// current+pipeline, history is retained for lookback epochs.
func NewTimeline(current thor.Epoch, pipeline, lookback uint64) *Timeline {
	return &Timeline{
		current:  current,
		pipeline: pipeline,
		lookback: lookback,
	}
}

func (t *Timeline) Current() thor.Epoch { return t.current }
func (t *Timeline) Pipeline() uint64    { return t.pipeline }
func (t *Timeline) Lookback() uint64    { return t.lookback }

// PipelineEpoch is the epoch pipelined writes take effect at.
func (t *Timeline) PipelineEpoch() thor.Epoch {
	return t.current.Add(t.pipeline)
}

// Horizon is the oldest epoch still readable.
func (t *Timeline) Horizon() thor.Epoch {
	return t.current.SubFloor(t.lookback)
}

// Advance moves to the next epoch and prunes every store bound to the timeline.
func (t *Timeline) Advance() thor.Epoch {
	t.current++
	horizon := t.Horizon()
	for _, s := range t.stores {
		s.prune(horizon)
	}
	return t.current
}

// Clone returns a timeline at the same epoch with no stores bound.
func (t *Timeline) Clone() *Timeline {
	return NewTimeline(t.current, t.pipeline, t.lookback)
}

func (t *Timeline) register(p pruner) {
	t.stores = append(t.stores, p)
}
