package usecase

import (
	"testing"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/patch"
	"github.com/a-luna/vigorish-sub003/internal/domain/reconcile"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "malformed id", err: crerr.Wrap(gameid.ErrMalformedIdentifier, "XYZ"), want: KindMalformedIdentifier},
		{name: "patch target", err: crerr.Wrap(patch.ErrTargetNotFound, "row 4"), want: KindPatchTargetNotFound},
		{name: "input missing", err: crerr.Wrap(reconcile.ErrInputMissing, "boxscore"), want: KindInputMissing},
		{name: "arithmetic", err: crerr.Wrapf(reconcile.ErrAuditArithmetic, "game %s", "TOR201905300"), want: KindAuditArithmetic},
		{name: "mismatch", err: reconcile.ErrIdentifierMismatch, want: KindIdentifierMismatch},
		{name: "status", err: crerr.Wrap(status.ErrUpdateFailed, "commit"), want: KindStatusUpdateFailed},
		{name: "scraped input", err: crerr.Wrap(scrape.ErrInvalid, "day index"), want: KindInvalidInput},
		{name: "patch list", err: patch.ErrInvalidList, want: KindInvalidInput},
		{name: "not found", err: crerr.Wrap(ErrNotFound, "season"), want: KindNotFound},
		{name: "other", err: crerr.New("disk on fire"), want: KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("expected kind %q, got=%q", tc.want, got)
			}
		})
	}
}

func TestFailsCombine(t *testing.T) {
	t.Parallel()

	if !failsCombine(KindAuditArithmetic) || !failsCombine(KindIdentifierMismatch) {
		t.Fatalf("expected arithmetic and identifier mismatch to fail the combine")
	}
	if failsCombine(KindInputMissing) || failsCombine(KindStatusUpdateFailed) {
		t.Fatalf("expected input missing and status failures to leave the label alone")
	}
}
