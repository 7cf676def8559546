package scrape

import (
	"sort"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
)

// Boxscore is the authoritative per-game record of lineups, totals and
// play-by-play.
type Boxscore struct {
	GameID    string        `json:"bbref_game_id" validate:"required,len=12"`
	URL       string        `json:"boxscore_url"`
	Meta      GameMeta      `json:"game_meta_info"`
	AwayTeam  TeamSummary   `json:"away_team_data"`
	HomeTeam  TeamSummary   `json:"home_team_data"`
	Innings   []HalfInning  `json:"innings_list" validate:"dive"`
	Officials []Official    `json:"umpires"`
	Players   []PlayerIDMap `json:"player_id_map,omitempty"`
}

func (Boxscore) DataSet() DataSet { return DataSetBoxscore }
func (b Boxscore) URLID() string  { return b.GameID }
func (Boxscore) isInput()         {}

type GameMeta struct {
	Park         string `json:"park_name"`
	Weather      string `json:"weather"`
	GameDuration string `json:"game_duration"`
	Attendance   int    `json:"attendance"`
	FirstPitch   string `json:"first_pitch,omitempty"`
	DayNight     string `json:"day_night,omitempty"`
}

type Official struct {
	Role string `json:"field_location"`
	Name string `json:"umpire_name"`
}

// PlayerIDMap links a boxscore player id to the telemetry source's id.
type PlayerIDMap struct {
	BBRefID string `json:"bbref_id"`
	MLBID   int    `json:"mlb_id"`
	Name    string `json:"name"`
}

type TeamSummary struct {
	TeamID   string         `json:"team_id_br" validate:"required,len=3"`
	IsHome   bool           `json:"is_home_team"`
	Lineup   []LineupSlot   `json:"starting_lineup" validate:"dive"`
	Batting  []BattingLine  `json:"batting_stats"`
	Pitching []PitchingLine `json:"pitching_stats" validate:"dive"`
	Totals   TeamTotals     `json:"team_totals"`
}

type LineupSlot struct {
	PlayerID    int    `json:"mlb_id"`
	BBRefID     string `json:"bbref_id"`
	BatOrder    int    `json:"bat_order" validate:"min=1,max=9"`
	DefPosition string `json:"def_position"`
}

type BattingLine struct {
	PlayerID         int    `json:"mlb_id"`
	BBRefID          string `json:"bbref_id"`
	PlateAppearances int    `json:"plate_appearances"`
	AtBats           int    `json:"at_bats"`
	Runs             int    `json:"runs_scored"`
	Hits             int    `json:"hits"`
	RBIs             int    `json:"rbis"`
	Walks            int    `json:"bases_on_balls"`
	Strikeouts       int    `json:"strikeouts"`
}

type PitchingLine struct {
	PlayerID     int    `json:"mlb_id" validate:"required"`
	BBRefID      string `json:"bbref_id"`
	InningsPitch string `json:"innings_pitched"`
	PitchCount   int    `json:"pitch_count" validate:"min=0"`
	Strikes      int    `json:"strikes"`
	BattersFaced int    `json:"batters_faced"`
	Hits         int    `json:"hits"`
	Runs         int    `json:"runs"`
	EarnedRuns   int    `json:"earned_runs"`
	Walks        int    `json:"bases_on_balls"`
	Strikeouts   int    `json:"strikeouts"`
}

type TeamTotals struct {
	Runs   int `json:"total_runs_scored_by_team"`
	Hits   int `json:"total_hits_by_team"`
	Errors int `json:"total_errors_by_team"`
	Wins   int `json:"total_wins_before_game"`
	Losses int `json:"total_losses_before_game"`
}

type HalfInning struct {
	Inning        int               `json:"inning" validate:"min=1"`
	Half          gameid.Half       `json:"inning_half" validate:"oneof=top bottom"`
	Events        []PlayByPlayEvent `json:"inning_events" validate:"dive"`
	Substitutions []Substitution    `json:"inning_substitutions"`
}

// PlayByPlayEvent is one at-bat of the play-by-play table.
type PlayByPlayEvent struct {
	RowNumber             int    `json:"event_id" validate:"min=1"`
	Ordinal               int    `json:"at_bat_ordinal" validate:"min=1"`
	AwayScore             int    `json:"away_score_before"`
	HomeScore             int    `json:"home_score_before"`
	OutsBefore            int    `json:"outs_before_play" validate:"min=0,max=2"`
	RunnersOnBase         string `json:"runners_on_base"`
	PitchSequence         string `json:"pitch_sequence"`
	RunsOutsResult        string `json:"runs_outs_result"`
	Description           string `json:"play_description"`
	PitcherID             int    `json:"pitcher_mlb_id" validate:"required"`
	BatterID              int    `json:"batter_mlb_id" validate:"required"`
	PitcherTeam           string `json:"pitcher_team" validate:"required,len=3"`
	BatterTeam            string `json:"batter_team" validate:"required,len=3"`
	PitchSequencePatched  bool   `json:"pitch_sequence_patched,omitempty"`
	OriginalPitchSequence string `json:"original_pitch_sequence,omitempty"`
}

type Substitution struct {
	Team             string `json:"sub_team"`
	IncomingPlayerID int    `json:"incoming_mlb_id"`
	OutgoingPlayerID int    `json:"outgoing_mlb_id"`
	LineupSlot       int    `json:"lineup_slot"`
	Position         string `json:"incoming_player_pos"`
	Description      string `json:"description"`
}

// AtBat is a play-by-play event placed in its half-inning.
type AtBat struct {
	Inning int
	Half   gameid.Half
	Event  PlayByPlayEvent
}

// AtBats returns every event in (inning, half, ordinal) order.
func (b Boxscore) AtBats() []AtBat {
	out := make([]AtBat, 0, 80)
	for _, half := range b.Innings {
		for _, ev := range half.Events {
			out = append(out, AtBat{Inning: half.Inning, Half: half.Half, Event: ev})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Inning != out[j].Inning {
			return out[i].Inning < out[j].Inning
		}
		if out[i].Half != out[j].Half {
			return out[i].Half == gameid.HalfTop
		}
		return out[i].Event.Ordinal < out[j].Event.Ordinal
	})
	return out
}

// PitchingLines returns both teams' pitching lines, away team first.
func (b Boxscore) PitchingLines() []PitchingLine {
	out := make([]PitchingLine, 0, len(b.AwayTeam.Pitching)+len(b.HomeTeam.Pitching))
	out = append(out, b.AwayTeam.Pitching...)
	out = append(out, b.HomeTeam.Pitching...)
	return out
}

// TeamOf returns the team id whose pitching lines include pitcherID.
func (b Boxscore) TeamOf(pitcherID int) (string, bool) {
	for _, line := range b.AwayTeam.Pitching {
		if line.PlayerID == pitcherID {
			return b.AwayTeam.TeamID, true
		}
	}
	for _, line := range b.HomeTeam.Pitching {
		if line.PlayerID == pitcherID {
			return b.HomeTeam.TeamID, true
		}
	}
	return "", false
}

// PitchCount is the authoritative pitch total: the sum of both teams'
// pitching lines.
func (b Boxscore) PitchCount() int {
	total := 0
	for _, line := range b.PitchingLines() {
		total += line.PitchCount
	}
	return total
}

// Validate checks the structural invariants that do not involve pitch counts:
// starting lineups fill slots 1-9 and substitutions name a slot in 1-9.
func (b Boxscore) Validate() error {
	if _, err := gameid.ParseCompact(b.GameID); err != nil {
		return err
	}
	for _, team := range []TeamSummary{b.AwayTeam, b.HomeTeam} {
		if len(team.Lineup) == 0 {
			continue
		}
		filled := make(map[int]bool, 9)
		for _, slot := range team.Lineup {
			filled[slot.BatOrder] = true
		}
		for order := 1; order <= 9; order++ {
			if !filled[order] {
				return crerr.Wrapf(ErrInvalid, "boxscore %s: %s lineup slot %d is empty", b.GameID, team.TeamID, order)
			}
		}
	}
	for _, half := range b.Innings {
		for _, sub := range half.Substitutions {
			if sub.LineupSlot < 1 || sub.LineupSlot > 9 {
				return crerr.Wrapf(ErrInvalid, "boxscore %s: substitution targets slot %d", b.GameID, sub.LineupSlot)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the mutable parts touched by patches.
func (b Boxscore) Clone() Boxscore {
	innings := make([]HalfInning, len(b.Innings))
	for i, half := range b.Innings {
		half.Events = append([]PlayByPlayEvent(nil), half.Events...)
		half.Substitutions = append([]Substitution(nil), half.Substitutions...)
		innings[i] = half
	}
	b.Innings = innings
	return b
}
