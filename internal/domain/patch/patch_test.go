package patch

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

func dayIndex() scrape.DayIndex {
	return scrape.DayIndex{
		Date:    time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC),
		GameIDs: []string{"BOS201905300", "TOR201905300", "NYY201905300"},
	}
}

func TestApplyRenameToDayIndexIsReplayable(t *testing.T) {
	t.Parallel()

	list := List{
		URLID:   "2019-05-30",
		DataSet: scrape.DataSetDayIndex,
		Patches: []Patch{{Kind: KindRenameGameID, OldGameID: "TOR201905300", NewGameID: "TOR201905301"}},
	}
	in := dayIndex()

	first, err := Apply(list, in)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	patched := first.Input.(scrape.DayIndex)
	if patched.GameCount() != in.GameCount() {
		t.Fatalf("expected game count %d, got=%d", in.GameCount(), patched.GameCount())
	}
	if !patched.Contains("TOR201905301") || patched.Contains("TOR201905300") {
		t.Fatalf("rename not applied: %+v", patched.GameIDs)
	}
	if in.GameIDs[1] != "TOR201905300" {
		t.Fatalf("input was mutated: %+v", in.GameIDs)
	}
	if first.Records[0].Outcome != OutcomeApplied {
		t.Fatalf("expected applied, got=%s", first.Records[0].Outcome)
	}
	if diff := cmp.Diff([]Rename{{Old: "TOR201905300", New: "TOR201905301"}}, first.Renames); diff != "" {
		t.Fatalf("renames mismatch (-want +got):\n%s", diff)
	}

	second, err := Apply(list, first.Input)
	if err != nil {
		t.Fatalf("second Apply error: %v", err)
	}
	if diff := cmp.Diff(first.Input, second.Input); diff != "" {
		t.Fatalf("apply(apply(x)) != apply(x) (-first +second):\n%s", diff)
	}
	if second.Changed() {
		t.Fatal("second apply should not change anything")
	}
	if second.Records[0].Outcome != OutcomeAlreadyApplied {
		t.Fatalf("expected already_applied, got=%s", second.Records[0].Outcome)
	}
}

func TestApplyRemoveGame(t *testing.T) {
	t.Parallel()

	list := List{
		URLID:   "2019-05-30",
		DataSet: scrape.DataSetDayIndex,
		Patches: []Patch{
			{Kind: KindRemoveGame, GameID: "NYY201905300"},
			{Kind: KindRemoveGame, GameID: "SEA201905300"},
		},
	}

	res, err := Apply(list, dayIndex())
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	patched := res.Input.(scrape.DayIndex)
	if patched.GameCount() != 2 {
		t.Fatalf("expected 2 games, got=%d", patched.GameCount())
	}
	if !patched.WasRemoved("NYY201905300") {
		t.Fatal("removed game should be recorded")
	}
	if res.Records[1].Outcome != OutcomeTargetNotFound || !errors.Is(res.Records[1].Err, ErrTargetNotFound) {
		t.Fatalf("expected target_not_found for unknown game, got=%+v", res.Records[1])
	}
	if len(res.NotFound()) != 1 {
		t.Fatalf("expected 1 not-found error, got=%d", len(res.NotFound()))
	}
	if diff := cmp.Diff([]string{"NYY201905300"}, res.Removed); diff != "" {
		t.Fatalf("removed mismatch (-want +got):\n%s", diff)
	}

	again, err := Apply(list, res.Input)
	if err != nil {
		t.Fatalf("second Apply error: %v", err)
	}
	if diff := cmp.Diff(res.Input, again.Input); diff != "" {
		t.Fatalf("remove is not replayable (-first +second):\n%s", diff)
	}
	if again.Records[0].Outcome != OutcomeAlreadyApplied {
		t.Fatalf("expected already_applied, got=%s", again.Records[0].Outcome)
	}
}

func TestApplyOverridePitchSequence(t *testing.T) {
	t.Parallel()

	box := scrape.Boxscore{
		GameID: "TOR201905300",
		Innings: []scrape.HalfInning{{
			Inning: 3,
			Half:   gameid.HalfBottom,
			Events: []scrape.PlayByPlayEvent{
				{RowNumber: 21, Ordinal: 1, PitchSequence: "BBX"},
				{RowNumber: 22, Ordinal: 2, PitchSequence: "CX"},
			},
		}},
	}
	list := List{
		URLID:   "TOR201905300",
		DataSet: scrape.DataSetBoxscore,
		Patches: []Patch{
			{Kind: KindOverridePitchSequence, InningKey: "BOT03", RowNumber: 22, PitchSequence: "CFX"},
			{Kind: KindOverridePitchSequence, InningKey: "TOP03", RowNumber: 22, PitchSequence: "X"},
		},
	}

	res, err := Apply(list, box)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	ev := res.Input.(scrape.Boxscore).Innings[0].Events[1]
	if ev.PitchSequence != "CFX" || !ev.PitchSequencePatched || ev.OriginalPitchSequence != "CX" {
		t.Fatalf("override not applied: %+v", ev)
	}
	if box.Innings[0].Events[1].PitchSequence != "CX" {
		t.Fatal("input was mutated")
	}
	if res.Records[1].Outcome != OutcomeTargetNotFound {
		t.Fatalf("expected target_not_found for the top half, got=%s", res.Records[1].Outcome)
	}

	again, err := Apply(list, res.Input)
	if err != nil {
		t.Fatalf("second Apply error: %v", err)
	}
	if diff := cmp.Diff(res.Input, again.Input); diff != "" {
		t.Fatalf("override is not replayable (-first +second):\n%s", diff)
	}
	if again.Input.(scrape.Boxscore).Innings[0].Events[1].OriginalPitchSequence != "CX" {
		t.Fatal("original sequence should survive a replay")
	}
}

func TestApplyRenameToPitchFX(t *testing.T) {
	t.Parallel()

	stream := scrape.PitchFXStream{
		PitchAppID: "TOR201905300_592351",
		Records:    []scrape.PitchFXRecord{{PitchAppID: "TOR201905300_592351", PitcherID: 592351}},
	}
	list := List{
		URLID:   "TOR201905300_592351",
		DataSet: scrape.DataSetPitchFX,
		Patches: []Patch{{Kind: KindRenameGameID, OldGameID: "TOR201905300", NewGameID: "TOR201905301"}},
	}

	res, err := Apply(list, stream)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	got := res.Input.(scrape.PitchFXStream)
	if got.PitchAppID != "TOR201905301_592351" || got.Records[0].PitchAppID != "TOR201905301_592351" {
		t.Fatalf("rename not propagated: %+v", got)
	}

	again, err := Apply(list, got)
	if err != nil {
		t.Fatalf("second Apply error: %v", err)
	}
	if again.Records[0].Outcome != OutcomeAlreadyApplied {
		t.Fatalf("expected already_applied, got=%s", again.Records[0].Outcome)
	}
}

func TestListValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		list List
	}{
		{
			name: "remove on boxscore",
			list: List{URLID: "TOR201905300", DataSet: scrape.DataSetBoxscore, Patches: []Patch{{Kind: KindRemoveGame, GameID: "TOR201905300"}}},
		},
		{
			name: "bad sequence",
			list: List{URLID: "TOR201905300", DataSet: scrape.DataSetBoxscore, Patches: []Patch{{Kind: KindOverridePitchSequence, InningKey: "TOP01", RowNumber: 1, PitchSequence: "BZ"}}},
		},
		{
			name: "malformed rename",
			list: List{URLID: "2019-05-30", DataSet: scrape.DataSetDayIndex, Patches: []Patch{{Kind: KindRenameGameID, OldGameID: "TOR", NewGameID: "TOR201905301"}}},
		},
		{
			name: "unknown kind",
			list: List{URLID: "2019-05-30", DataSet: scrape.DataSetDayIndex, Patches: []Patch{{Kind: "drop_table"}}},
		},
	}
	for _, tc := range cases {
		if err := tc.list.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	list := List{
		URLID:   "2019-05-30",
		DataSet: scrape.DataSetDayIndex,
		Patches: []Patch{{Kind: KindRemoveGame, GameID: "NYY201905300"}},
	}
	reg, err := NewRegistry(list)
	if err != nil {
		t.Fatalf("NewRegistry error: %v", err)
	}
	if _, err := NewRegistry(list, list); !errors.Is(err, ErrInvalidList) {
		t.Fatalf("expected duplicate error, got=%v", err)
	}

	res, err := reg.ApplyTo(dayIndex())
	if err != nil {
		t.Fatalf("ApplyTo error: %v", err)
	}
	if res.Input.(scrape.DayIndex).GameCount() != 2 {
		t.Fatal("registry list was not applied")
	}

	var empty *Registry
	res, err = empty.ApplyTo(dayIndex())
	if err != nil || res.Changed() {
		t.Fatalf("nil registry should pass inputs through, err=%v", err)
	}
}
