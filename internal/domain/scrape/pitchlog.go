package scrape

import (
	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
)

type InningPitchCount struct {
	Inning  int `json:"inning" validate:"min=1"`
	Pitches int `json:"pitch_count" validate:"min=0"`
}

// PitchLog is one pitcher's summary of pitches thrown in one game, as
// reported by the telemetry source.
type PitchLog struct {
	PitchAppID      string             `json:"pitch_app_id" validate:"required"`
	GameID          string             `json:"bbref_game_id" validate:"required,len=12"`
	PitcherID       int                `json:"pitcher_id_mlb" validate:"required"`
	PitcherName     string             `json:"pitcher_name"`
	TeamID          string             `json:"pitcher_team_id_bb" validate:"required,len=3"`
	OpponentTeamID  string             `json:"opponent_team_id_bb" validate:"required,len=3"`
	InningCounts    []InningPitchCount `json:"pitch_count_by_inning" validate:"dive"`
	TotalPitchCount int                `json:"total_pitch_count" validate:"min=0"`
	PitchFXURL      string             `json:"pitchfx_url"`
	PitchFXScraped  bool               `json:"pitchfx_scraped,omitempty"`
}

func (p PitchLog) InningSum() int {
	total := 0
	for _, c := range p.InningCounts {
		total += c.Pitches
	}
	return total
}

func (p PitchLog) Validate() error {
	if _, err := gameid.ParsePitchAppID(p.PitchAppID); err != nil {
		return err
	}
	if sum := p.InningSum(); sum != p.TotalPitchCount {
		return crerr.Wrapf(ErrInvalid, "pitch log %s: total %d != inning sum %d", p.PitchAppID, p.TotalPitchCount, sum)
	}
	return nil
}

// PitchLogSet groups the pitch logs of every pitcher in one game.
type PitchLogSet struct {
	GameID    string     `json:"bbref_game_id" validate:"required,len=12"`
	URL       string     `json:"pitch_log_url"`
	PitchLogs []PitchLog `json:"pitch_logs" validate:"dive"`
}

func (PitchLogSet) DataSet() DataSet { return DataSetPitchLogs }
func (s PitchLogSet) URLID() string  { return s.GameID }
func (PitchLogSet) isInput()         {}

// Log returns the pitch log for pitcherID.
func (s PitchLogSet) Log(pitcherID int) (PitchLog, bool) {
	for _, log := range s.PitchLogs {
		if log.PitcherID == pitcherID {
			return log, true
		}
	}
	return PitchLog{}, false
}

func (s PitchLogSet) TotalPitchCount() int {
	total := 0
	for _, log := range s.PitchLogs {
		total += log.TotalPitchCount
	}
	return total
}

func (s PitchLogSet) Validate() error {
	seen := make(map[int]struct{}, len(s.PitchLogs))
	for _, log := range s.PitchLogs {
		if log.GameID != s.GameID {
			return crerr.Wrapf(ErrInvalid, "pitch log %s belongs to game %s, not %s", log.PitchAppID, log.GameID, s.GameID)
		}
		if _, ok := seen[log.PitcherID]; ok {
			return crerr.Wrapf(ErrInvalid, "game %s has two pitch logs for pitcher %d", s.GameID, log.PitcherID)
		}
		seen[log.PitcherID] = struct{}{}
		if err := log.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s PitchLogSet) Clone() PitchLogSet {
	logs := make([]PitchLog, len(s.PitchLogs))
	for i, log := range s.PitchLogs {
		log.InningCounts = append([]InningPitchCount(nil), log.InningCounts...)
		logs[i] = log
	}
	s.PitchLogs = logs
	return s
}
