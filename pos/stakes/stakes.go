// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	errOverflow  = errors.New("amount overflow")
	errUnderflow = errors.New("amount underflow")
)

// Add returns a + b, failing instead of wrapping.
func Add(a, b uint64) (uint64, error) {
	sum, overflow := math.SafeAdd(a, b)
	if overflow {
		return 0, errors.Wrapf(errOverflow, "%d + %d", a, b)
	}
	return sum, nil
}

// Sub returns a - b, failing instead of going negative.
func Sub(a, b uint64) (uint64, error) {
	diff, underflow := math.SafeSub(a, b)
	if underflow {
		return 0, errors.Wrapf(errUnderflow, "%d - %d", a, b)
	}
	return diff, nil
}

// Sum adds up amounts.
func Sum(amounts ...uint64) (uint64, error) {
	var total uint64
	for _, a := range amounts {
		var err error
		if total, err = Add(total, a); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// MulDiv returns floor(a * b / c) computed without intermediate overflow.
// The result must fit in a uint64, which holds whenever b <= c.
func MulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	var r uint256.Int
	r.MulDivOverflow(uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(c))
	return r.Uint64()
}
