package commands

import (
	"context"
	"fmt"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/usecase"
)

const (
	exitOK            = 0
	exitInternal      = 1
	exitUsage         = 2
	exitNotFound      = 3
	exitInputMissing  = 4
	exitNotCombined   = 5
	exitStatusFailure = 6
	exitConfig        = 78
	exitInterrupted   = 130
)

var errConfig = crerr.New("invalid configuration")

// outcomeError reports a batch or game that finished without an error but
// with an unsuccessful outcome.
type outcomeError struct {
	kind usecase.ErrorKind
	msg  string
}

func (e *outcomeError) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if crerr.Is(err, context.Canceled) {
		return exitInterrupted
	}
	if crerr.Is(err, errConfig) {
		return exitConfig
	}

	kind := usecase.KindOf(err)
	var outcome *outcomeError
	if crerr.As(err, &outcome) {
		kind = outcome.kind
	}

	switch kind {
	case usecase.KindNone:
		return exitOK
	case usecase.KindInvalidInput, usecase.KindMalformedIdentifier:
		return exitUsage
	case usecase.KindNotFound:
		return exitNotFound
	case usecase.KindInputMissing:
		return exitInputMissing
	case usecase.KindAuditArithmetic, usecase.KindIdentifierMismatch, usecase.KindPatchTargetNotFound:
		return exitNotCombined
	case usecase.KindStatusUpdateFailed:
		return exitStatusFailure
	default:
		return exitInternal
	}
}
