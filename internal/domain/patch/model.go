// Package patch models hand-maintained corrections to scraped inputs and
// applies them deterministically before reconciliation.
package patch

import (
	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/pitchseq"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

var (
	// ErrTargetNotFound is recorded when a patch cannot locate its target.
	// It never aborts the rest of the list.
	ErrTargetNotFound = crerr.New("patch target not found")
	ErrInvalidList    = crerr.New("invalid patch list")
)

type Kind string

const (
	KindRenameGameID          Kind = "rename_game_id"
	KindRemoveGame            Kind = "remove_game"
	KindOverridePitchSequence Kind = "override_pitch_sequence"
)

// Patch is one edit. Which fields are used depends on Kind.
type Patch struct {
	Kind        Kind   `json:"kind" validate:"required,oneof=rename_game_id remove_game override_pitch_sequence"`
	Description string `json:"description,omitempty"`

	// rename_game_id
	OldGameID string `json:"old_bbref_game_id,omitempty"`
	NewGameID string `json:"new_bbref_game_id,omitempty"`

	// remove_game
	GameID string `json:"bbref_game_id,omitempty"`

	// override_pitch_sequence
	InningKey     string `json:"inning_id,omitempty"`
	RowNumber     int    `json:"pbp_table_row_number,omitempty"`
	PitchSequence string `json:"new_pitch_sequence,omitempty"`
}

// List is the ordered set of patches for one URL-identified input.
type List struct {
	Tag     bool           `json:"__patch_list__"`
	URLID   string         `json:"url_id" validate:"required"`
	DataSet scrape.DataSet `json:"data_set" validate:"required"`
	Patches []Patch        `json:"patch_list" validate:"dive"`
}

func (l List) Key() Key {
	return Key{DataSet: l.DataSet, URLID: l.URLID}
}

// Validate checks every patch is well-formed and applicable to the list's
// data set.
func (l List) Validate() error {
	if _, err := scrape.ParseDataSet(string(l.DataSet)); err != nil {
		return crerr.Wrapf(ErrInvalidList, "%s: %v", l.URLID, err)
	}
	for i, p := range l.Patches {
		if err := p.validateFor(l.DataSet); err != nil {
			return crerr.Wrapf(err, "patch list %s/%s entry %d", l.DataSet, l.URLID, i)
		}
	}
	return nil
}

func (p Patch) validateFor(ds scrape.DataSet) error {
	switch p.Kind {
	case KindRenameGameID:
		if _, err := gameid.ParseCompact(p.OldGameID); err != nil {
			return err
		}
		if _, err := gameid.ParseCompact(p.NewGameID); err != nil {
			return err
		}
		if p.OldGameID == p.NewGameID {
			return crerr.Wrapf(ErrInvalidList, "rename %s to itself", p.OldGameID)
		}
	case KindRemoveGame:
		if ds != scrape.DataSetDayIndex {
			return crerr.Wrapf(ErrInvalidList, "%s applies to %s only", p.Kind, scrape.DataSetDayIndex)
		}
		if _, err := gameid.ParseCompact(p.GameID); err != nil {
			return err
		}
	case KindOverridePitchSequence:
		if ds != scrape.DataSetBoxscore {
			return crerr.Wrapf(ErrInvalidList, "%s applies to %s only", p.Kind, scrape.DataSetBoxscore)
		}
		if _, _, err := gameid.ParseInningKey(p.InningKey); err != nil {
			return err
		}
		if p.RowNumber < 1 {
			return crerr.Wrapf(ErrInvalidList, "row number %d", p.RowNumber)
		}
		if _, err := pitchseq.Parse(p.PitchSequence); err != nil {
			return err
		}
	default:
		return crerr.Wrapf(ErrInvalidList, "unknown kind %q", p.Kind)
	}
	return nil
}

type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeAlreadyApplied Outcome = "already_applied"
	OutcomeTargetNotFound Outcome = "target_not_found"
)

// Record tells what one patch did.
type Record struct {
	Index   int     `json:"index"`
	Kind    Kind    `json:"kind"`
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
}

type Rename struct {
	Old string `json:"old_bbref_game_id"`
	New string `json:"new_bbref_game_id"`
}

// Result is the patched copy of the input plus what fired.
type Result struct {
	Input   scrape.Input
	Records []Record
	Renames []Rename
	Removed []string
}

// Changed reports whether any patch modified the input.
func (r Result) Changed() bool {
	for _, rec := range r.Records {
		if rec.Outcome == OutcomeApplied {
			return true
		}
	}
	return false
}

// NotFound returns the target-not-found errors in list order.
func (r Result) NotFound() []error {
	var out []error
	for _, rec := range r.Records {
		if rec.Outcome == OutcomeTargetNotFound {
			out = append(out, rec.Err)
		}
	}
	return out
}
