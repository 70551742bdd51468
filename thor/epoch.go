// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/binary"
	"strconv"
)

// Epoch is the unit of time of every stake change.
type Epoch uint64

// String implements the stringer interface.
func (e Epoch) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// Add returns e + n.
func (e Epoch) Add(n uint64) Epoch {
	return e + Epoch(n)
}

// SubFloor returns e - n, or zero when n exceeds e.
func (e Epoch) SubFloor(n uint64) Epoch {
	if uint64(e) < n {
		return 0
	}
	return e - Epoch(n)
}

// Bytes returns the big-endian encoding, so byte order equals epoch order.
func (e Epoch) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(e))
	return b[:]
}

// BytesToEpoch decodes the big-endian form produced by Bytes.
func BytesToEpoch(b []byte) Epoch {
	if len(b) < 8 {
		var padded [8]byte
		copy(padded[8-len(b):], b)
		return Epoch(binary.BigEndian.Uint64(padded[:]))
	}
	return Epoch(binary.BigEndian.Uint64(b[:8]))
}
