package usecase

import (
	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/patch"
	"github.com/a-luna/vigorish-sub003/internal/domain/reconcile"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
)

var (
	ErrInvalidInput = crerr.New("invalid input")
	ErrNotFound     = crerr.New("resource not found")
)

// ErrorKind is the closed set of failure kinds reported in logs, metrics and
// exit codes.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindMalformedIdentifier ErrorKind = "malformed_identifier"
	KindPatchTargetNotFound ErrorKind = "patch_target_not_found"
	KindInputMissing        ErrorKind = "input_missing"
	KindAuditArithmetic     ErrorKind = "audit_arithmetic_failure"
	KindIdentifierMismatch  ErrorKind = "identifier_mismatch"
	KindStatusUpdateFailed  ErrorKind = "status_update_failed"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindNotFound            ErrorKind = "not_found"
	KindInternal            ErrorKind = "internal"
)

func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case crerr.Is(err, gameid.ErrMalformedIdentifier):
		return KindMalformedIdentifier
	case crerr.Is(err, patch.ErrTargetNotFound):
		return KindPatchTargetNotFound
	case crerr.Is(err, reconcile.ErrInputMissing):
		return KindInputMissing
	case crerr.Is(err, reconcile.ErrAuditArithmetic):
		return KindAuditArithmetic
	case crerr.Is(err, reconcile.ErrIdentifierMismatch):
		return KindIdentifierMismatch
	case crerr.Is(err, status.ErrUpdateFailed):
		return KindStatusUpdateFailed
	case crerr.Is(err, ErrInvalidInput), crerr.Is(err, scrape.ErrInvalid), crerr.Is(err, patch.ErrInvalidList):
		return KindInvalidInput
	case crerr.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// failsCombine reports whether err leaves the game labelled
// failed-to-combine rather than not-scraped.
func failsCombine(kind ErrorKind) bool {
	return kind == KindAuditArithmetic || kind == KindIdentifierMismatch
}
