package patch

import (
	"strings"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

// Apply runs the patches of list, in order, against a copy of in. The input
// value is never modified. Applying the same list to its own output changes
// nothing.
func Apply(list List, in scrape.Input) (Result, error) {
	if in == nil {
		return Result{}, crerr.Wrap(ErrInvalidList, "nil input")
	}
	if list.DataSet != in.DataSet() {
		return Result{}, crerr.Wrapf(ErrInvalidList, "list targets %s, input is %s", list.DataSet, in.DataSet())
	}
	if err := list.Validate(); err != nil {
		return Result{}, err
	}

	var t target
	switch v := in.(type) {
	case scrape.DayIndex:
		c := v.Clone()
		t = &dayIndexTarget{v: &c}
	case scrape.Boxscore:
		c := v.Clone()
		t = &boxscoreTarget{v: &c}
	case scrape.PitchLogSet:
		c := v.Clone()
		t = &pitchLogTarget{v: &c}
	case scrape.PitchFXStream:
		c := v.Clone()
		t = &pitchFXTarget{v: &c}
	default:
		return Result{}, crerr.Wrapf(ErrInvalidList, "unsupported input %T", in)
	}

	res := Result{Records: make([]Record, 0, len(list.Patches))}
	for i, p := range list.Patches {
		outcome, err := t.apply(p)
		res.Records = append(res.Records, Record{Index: i, Kind: p.Kind, Outcome: outcome, Err: err})
		if outcome == OutcomeTargetNotFound {
			continue
		}
		switch p.Kind {
		case KindRenameGameID:
			res.Renames = append(res.Renames, Rename{Old: p.OldGameID, New: p.NewGameID})
		case KindRemoveGame:
			res.Removed = append(res.Removed, p.GameID)
		}
	}
	res.Input = t.value()
	return res, nil
}

type target interface {
	apply(p Patch) (Outcome, error)
	value() scrape.Input
}

func notFound(format string, args ...any) (Outcome, error) {
	return OutcomeTargetNotFound, crerr.Wrapf(ErrTargetNotFound, format, args...)
}

type dayIndexTarget struct{ v *scrape.DayIndex }

func (t *dayIndexTarget) value() scrape.Input { return *t.v }

func (t *dayIndexTarget) apply(p Patch) (Outcome, error) {
	switch p.Kind {
	case KindRenameGameID:
		for i, id := range t.v.GameIDs {
			if id == p.OldGameID {
				t.v.GameIDs[i] = p.NewGameID
				return OutcomeApplied, nil
			}
		}
		if t.v.Contains(p.NewGameID) {
			return OutcomeAlreadyApplied, nil
		}
		return notFound("day index %s has no game %s", t.v.URLID(), p.OldGameID)
	case KindRemoveGame:
		for i, id := range t.v.GameIDs {
			if id == p.GameID {
				t.v.GameIDs = append(t.v.GameIDs[:i], t.v.GameIDs[i+1:]...)
				if !t.v.WasRemoved(p.GameID) {
					t.v.RemovedGameIDs = append(t.v.RemovedGameIDs, p.GameID)
				}
				return OutcomeApplied, nil
			}
		}
		if t.v.WasRemoved(p.GameID) {
			return OutcomeAlreadyApplied, nil
		}
		return notFound("day index %s has no game %s", t.v.URLID(), p.GameID)
	}
	return notFound("%s does not apply to a day index", p.Kind)
}

type boxscoreTarget struct{ v *scrape.Boxscore }

func (t *boxscoreTarget) value() scrape.Input { return *t.v }

func (t *boxscoreTarget) apply(p Patch) (Outcome, error) {
	switch p.Kind {
	case KindRenameGameID:
		switch t.v.GameID {
		case p.OldGameID:
			t.v.GameID = p.NewGameID
			return OutcomeApplied, nil
		case p.NewGameID:
			return OutcomeAlreadyApplied, nil
		}
		return notFound("boxscore %s is not game %s", t.v.GameID, p.OldGameID)
	case KindOverridePitchSequence:
		half, inning, _ := gameid.ParseInningKey(p.InningKey)
		for hi := range t.v.Innings {
			hf := &t.v.Innings[hi]
			if hf.Inning != inning || hf.Half != half {
				continue
			}
			for ei := range hf.Events {
				ev := &hf.Events[ei]
				if ev.RowNumber != p.RowNumber {
					continue
				}
				if ev.PitchSequencePatched && ev.PitchSequence == p.PitchSequence {
					return OutcomeAlreadyApplied, nil
				}
				if !ev.PitchSequencePatched {
					ev.OriginalPitchSequence = ev.PitchSequence
				}
				ev.PitchSequence = p.PitchSequence
				ev.PitchSequencePatched = true
				return OutcomeApplied, nil
			}
		}
		return notFound("boxscore %s has no at-bat at %s row %d", t.v.GameID, p.InningKey, p.RowNumber)
	}
	return notFound("%s does not apply to a boxscore", p.Kind)
}

type pitchLogTarget struct{ v *scrape.PitchLogSet }

func (t *pitchLogTarget) value() scrape.Input { return *t.v }

func (t *pitchLogTarget) apply(p Patch) (Outcome, error) {
	if p.Kind != KindRenameGameID {
		return notFound("%s does not apply to pitch logs", p.Kind)
	}
	switch t.v.GameID {
	case p.NewGameID:
		return OutcomeAlreadyApplied, nil
	case p.OldGameID:
	default:
		return notFound("pitch logs %s are not game %s", t.v.GameID, p.OldGameID)
	}
	t.v.GameID = p.NewGameID
	for i := range t.v.PitchLogs {
		log := &t.v.PitchLogs[i]
		if log.GameID == p.OldGameID {
			log.GameID = p.NewGameID
		}
		log.PitchAppID = gameid.RenamePitchAppToken(log.PitchAppID, p.OldGameID, p.NewGameID)
	}
	return OutcomeApplied, nil
}

type pitchFXTarget struct{ v *scrape.PitchFXStream }

func (t *pitchFXTarget) value() scrape.Input { return *t.v }

func (t *pitchFXTarget) apply(p Patch) (Outcome, error) {
	if p.Kind != KindRenameGameID {
		return notFound("%s does not apply to pitchfx", p.Kind)
	}
	renamed := gameid.RenamePitchAppToken(t.v.PitchAppID, p.OldGameID, p.NewGameID)
	if renamed == t.v.PitchAppID {
		if strings.HasPrefix(t.v.PitchAppID, p.NewGameID+"_") {
			return OutcomeAlreadyApplied, nil
		}
		return notFound("pitchfx %s is not from game %s", t.v.PitchAppID, p.OldGameID)
	}
	t.v.PitchAppID = renamed
	for i := range t.v.Records {
		t.v.Records[i].PitchAppID = gameid.RenamePitchAppToken(t.v.Records[i].PitchAppID, p.OldGameID, p.NewGameID)
	}
	return OutcomeApplied, nil
}
