package scrape

import (
	"errors"
	"testing"
	"time"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
)

func TestDayIndexValidate(t *testing.T) {
	t.Parallel()

	date := time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		ids     []string
		wantErr error
	}{
		{name: "ok", ids: []string{"TOR201905300", "BOS201905300"}},
		{name: "other date", ids: []string{"TOR201905310"}, wantErr: ErrInvalid},
		{name: "duplicate", ids: []string{"TOR201905300", "TOR201905300"}, wantErr: ErrInvalid},
		{name: "malformed", ids: []string{"tor201905300"}, wantErr: gameid.ErrMalformedIdentifier},
	}
	for _, tc := range cases {
		err := DayIndex{Date: date, GameIDs: tc.ids}.Validate()
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got=%v", tc.name, tc.wantErr, err)
		}
	}
}

func TestBoxscoreAtBatsOrder(t *testing.T) {
	t.Parallel()

	box := Boxscore{
		GameID: "TOR201905300",
		Innings: []HalfInning{
			{Inning: 2, Half: gameid.HalfTop, Events: []PlayByPlayEvent{{RowNumber: 5, Ordinal: 1}}},
			{Inning: 1, Half: gameid.HalfBottom, Events: []PlayByPlayEvent{{RowNumber: 4, Ordinal: 2}, {RowNumber: 3, Ordinal: 1}}},
			{Inning: 1, Half: gameid.HalfTop, Events: []PlayByPlayEvent{{RowNumber: 1, Ordinal: 1}, {RowNumber: 2, Ordinal: 2}}},
		},
	}

	atBats := box.AtBats()
	want := []int{1, 2, 3, 4, 5}
	if len(atBats) != len(want) {
		t.Fatalf("expected %d at-bats, got=%d", len(want), len(atBats))
	}
	for i, ab := range atBats {
		if ab.Event.RowNumber != want[i] {
			t.Fatalf("position %d: expected row %d, got=%d", i, want[i], ab.Event.RowNumber)
		}
	}
}

func TestBoxscoreValidateLineup(t *testing.T) {
	t.Parallel()

	lineup := make([]LineupSlot, 0, 9)
	for order := 1; order <= 8; order++ {
		lineup = append(lineup, LineupSlot{PlayerID: order, BatOrder: order})
	}
	box := Boxscore{GameID: "TOR201905300", AwayTeam: TeamSummary{TeamID: "OAK", Lineup: lineup}}
	if err := box.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected empty slot error, got=%v", err)
	}

	box.AwayTeam.Lineup = append(box.AwayTeam.Lineup, LineupSlot{PlayerID: 9, BatOrder: 9})
	if err := box.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBoxscoreValidateSubstitutionSlot(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		slot    int
		wantErr bool
	}{
		{slot: 0, wantErr: true},
		{slot: 1},
		{slot: 9},
		{slot: 10, wantErr: true},
	} {
		box := Boxscore{
			GameID: "TOR201905300",
			Innings: []HalfInning{{
				Inning:        1,
				Half:          gameid.HalfTop,
				Substitutions: []Substitution{{Team: "TOR", IncomingPlayerID: 1, OutgoingPlayerID: 2, LineupSlot: tc.slot}},
			}},
		}
		err := box.Validate()
		if tc.wantErr && !errors.Is(err, ErrInvalid) {
			t.Fatalf("slot %d: expected invalid substitution, got=%v", tc.slot, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("slot %d: unexpected error: %v", tc.slot, err)
		}
	}
}

func TestPitchLogValidate(t *testing.T) {
	t.Parallel()

	log := PitchLog{
		PitchAppID:      "TOR201905300_592351",
		GameID:          "TOR201905300",
		PitcherID:       592351,
		InningCounts:    []InningPitchCount{{Inning: 1, Pitches: 14}, {Inning: 2, Pitches: 9}},
		TotalPitchCount: 23,
	}
	if err := log.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.TotalPitchCount = 24
	if err := log.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected total mismatch, got=%v", err)
	}
}

func TestPitchFXRecordInStrikeZone(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }
	rec := PitchFXRecord{Px: f(0.2), Pz: f(2.5), SzTop: f(3.4), SzBot: f(1.6)}
	if inside, ok := rec.InStrikeZone(); !ok || !inside {
		t.Fatalf("expected inside zone, got inside=%v ok=%v", inside, ok)
	}

	rec.Px = f(-1.1)
	if inside, ok := rec.InStrikeZone(); !ok || inside {
		t.Fatalf("expected outside zone, got inside=%v ok=%v", inside, ok)
	}

	rec.Pz = nil
	if _, ok := rec.InStrikeZone(); ok {
		t.Fatal("expected unknown location")
	}
}
