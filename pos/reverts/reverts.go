// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// ErrRevert is a caller-visible rejection. A rejected operation leaves the ledger untouched.
type ErrRevert struct {
	message string
	kind    *ErrRevert
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

// Errorf returns a revert of the given kind carrying extra detail. It matches kind with errors.Is.
func Errorf(kind *ErrRevert, format string, args ...any) *ErrRevert {
	return &ErrRevert{
		message: kind.message + ": " + fmt.Sprintf(format, args...),
		kind:    kind,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Is reports whether target is e itself or the kind e was derived from.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	if !ok {
		return false
	}
	return e == t || (e.kind != nil && e.kind == t)
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	ErrInsufficientBond         = New("insufficient bond")
	ErrInvalidValidatorState    = New("invalid validator state")
	ErrCommissionChangeTooLarge = New("commission change too large")
	ErrEvidenceExpired          = New("evidence expired")
	ErrStaleWrite               = New("stale write")
	ErrUnknownValidator         = New("unknown validator")
	ErrUnknownDelegation        = New("unknown delegation")

	ErrInvalidAmount       = New("invalid amount")
	ErrInvalidEpoch        = New("invalid epoch")
	ErrInvalidRate         = New("invalid rate")
	ErrValidatorExists     = New("validator already exists")
	ErrConsensusKeyInUse   = New("consensus key in use")
	ErrInvalidConsensusKey = New("invalid consensus key")
	ErrInvalidRedelegation = New("invalid redelegation")
	ErrChainedRedelegation = New("chained redelegation")
	ErrJailPeriodNotOver   = New("jail period not over")
	ErrInvalidInfraction   = New("invalid infraction")
	ErrDuplicateEvidence   = New("duplicate evidence")
)

// ErrInvariantViolation is not a revert: it means replicas may have diverged and the ledger must stop.
var ErrInvariantViolation = errors.New("invariant violation")
