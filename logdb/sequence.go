// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/thor"
)

// sequence orders rows by epoch, then by their index within the epoch.
// bit layout: 40 bits epoch | 23 bits index
type sequence int64

const (
	epochBits  = 40
	indexBits  = 23
	epochMask  = 1<<epochBits - 1
	indexMask  = 1<<indexBits - 1
	epochShift = indexBits
)

func newSequence(epoch thor.Epoch, index uint32) (sequence, error) {
	if uint64(epoch) > epochMask {
		return 0, errors.New("epoch out of range: uses more than 40 bits")
	}
	if index > indexMask {
		return 0, errors.New("index out of range: uses more than 23 bits")
	}
	return sequence(epoch)<<epochShift | sequence(index), nil
}

func (s sequence) Epoch() thor.Epoch {
	return thor.Epoch(s>>epochShift) & epochMask
}

func (s sequence) Index() uint32 {
	return uint32(s & indexMask)
}
