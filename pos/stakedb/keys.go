// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakedb

import (
	"encoding/binary"

	"github.com/vechain/stakeledger/pos/bonds"
)

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func uint64Bytes(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}

func bytesToUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func bondKey(k bonds.BondKey) []byte {
	return concat(k.Delegator.Bytes(), k.Validator.Bytes(), k.Start.Bytes(), k.Source.Bytes(), k.SourceStart.Bytes())
}

func unbondKey(k bonds.UnbondKey) []byte {
	return concat(
		k.Delegator.Bytes(),
		k.Validator.Bytes(),
		k.Withdrawable.Bytes(),
		k.UnbondEpoch.Bytes(),
		k.Start.Bytes(),
		k.Source.Bytes(),
		k.SourceStart.Bytes(),
	)
}
