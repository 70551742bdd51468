// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Precision is the number of decimal places a Dec carries.
const Precision = 18

var unit = uint256.NewInt(1_000_000_000_000_000_000)

// Dec is an unsigned fixed point number with 18 decimals, used for rates and ratios.
// The zero value is 0.
type Dec struct {
	v uint256.Int
}

// NewDec returns the integer n as a Dec.
func NewDec(n uint64) Dec {
	var d Dec
	d.v.Mul(uint256.NewInt(n), unit)
	return d
}

// NewDecFromRatio returns floor(num / den). den must not be zero.
func NewDecFromRatio(num, den uint64) Dec {
	var d Dec
	if den == 0 {
		return d
	}
	d.v.MulDivOverflow(uint256.NewInt(num), unit, uint256.NewInt(den))
	return d
}

// One returns 1.
func One() Dec { return NewDec(1) }

// ParseDec parses a decimal string such as "0.05" or "2".
func ParseDec(s string) (Dec, error) {
	var d Dec
	intPart, fracPart, hasDot := strings.Cut(strings.TrimSpace(s), ".")
	if intPart == "" && (!hasDot || fracPart == "") {
		return d, errors.Errorf("invalid decimal %q", s)
	}
	if len(fracPart) > Precision {
		return d, errors.Errorf("decimal %q exceeds %d places", s, Precision)
	}
	digits := intPart + fracPart + strings.Repeat("0", Precision-len(fracPart))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return d, nil
	}
	if strings.ContainsAny(digits, "+-") {
		return d, errors.Errorf("invalid decimal %q", s)
	}
	if err := d.v.SetFromDecimal(digits); err != nil {
		return d, errors.Wrapf(err, "invalid decimal %q", s)
	}
	return d, nil
}

// MustParseDec is ParseDec that panics on error.
func MustParseDec(s string) Dec {
	d, err := ParseDec(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Dec) String() string {
	var q, r uint256.Int
	q.DivMod(&d.v, unit, &r)
	if r.IsZero() {
		return q.Dec()
	}
	frac := r.Dec()
	frac = strings.Repeat("0", Precision-len(frac)) + frac
	return q.Dec() + "." + strings.TrimRight(frac, "0")
}

func (d Dec) IsZero() bool { return d.v.IsZero() }

// Cmp compares d and o and returns -1, 0 or +1.
func (d Dec) Cmp(o Dec) int { return d.v.Cmp(&o.v) }

func (d Dec) GT(o Dec) bool { return d.Cmp(o) > 0 }

func (d Dec) Add(o Dec) Dec {
	var r Dec
	r.v.Add(&d.v, &o.v)
	return r
}

// Sub returns d - o, or 0 when o > d.
func (d Dec) Sub(o Dec) Dec {
	var r Dec
	if d.v.Lt(&o.v) {
		return r
	}
	r.v.Sub(&d.v, &o.v)
	return r
}

// AbsDiff returns |d - o|.
func (d Dec) AbsDiff(o Dec) Dec {
	if d.Cmp(o) >= 0 {
		return d.Sub(o)
	}
	return o.Sub(d)
}

// Mul returns floor(d * o).
func (d Dec) Mul(o Dec) Dec {
	var r Dec
	r.v.MulDivOverflow(&d.v, &o.v, unit)
	return r
}

// MulInt returns d * n.
func (d Dec) MulInt(n uint64) Dec {
	var r Dec
	r.v.Mul(&d.v, uint256.NewInt(n))
	return r
}

// MulAmount returns floor(amount * d), saturated at the max uint64.
func (d Dec) MulAmount(amount uint64) uint64 {
	var r uint256.Int
	r.MulDivOverflow(uint256.NewInt(amount), &d.v, unit)
	if !r.IsUint64() {
		return ^uint64(0)
	}
	return r.Uint64()
}

// Rat returns d as an exact rational.
func (d Dec) Rat() *big.Rat {
	return new(big.Rat).SetFrac(d.v.ToBig(), unit.ToBig())
}

// DecFromRat returns floor(r), 0 for negative r and the max Dec on overflow.
func DecFromRat(r *big.Rat) Dec {
	var d Dec
	if r.Sign() <= 0 {
		return d
	}
	scaled := new(big.Int).Mul(r.Num(), unit.ToBig())
	scaled.Quo(scaled, r.Denom())
	if d.v.SetFromBig(scaled) {
		d.v.SetAllOne()
	}
	return d
}

// Min returns the smaller of a and b.
func Min(a, b Dec) Dec {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func (d Dec) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Dec) UnmarshalText(text []byte) error {
	parsed, err := ParseDec(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// EncodeRLP implements rlp.Encoder, encoding the raw 18 decimal integer.
func (d Dec) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, d.v.Bytes())
}

// DecodeRLP implements rlp.Decoder.
func (d *Dec) DecodeRLP(s *rlp.Stream) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	if len(b) > 32 {
		return errors.New("dec: value too large")
	}
	d.v.SetBytes(b)
	return nil
}
