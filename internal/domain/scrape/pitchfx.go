package scrape

import (
	"math"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
)

// plateHalfWidth is half the plate width plus one baseball radius, in feet.
const plateHalfWidth = 0.83

// PitchFXRecord is one telemetry pitch. AtBatKey and Ordinal are the
// source's loose grouping; the matcher resolves them to at-bats.
type PitchFXRecord struct {
	PitchAppID  string `json:"pitch_app_id" validate:"required"`
	PitcherID   int    `json:"pitcher_id" validate:"required"`
	BatterID    int    `json:"batter_id" validate:"required"`
	Inning      int    `json:"inning" validate:"min=1"`
	ParkSvID    string `json:"park_sv_id"`
	AtBatKey    int    `json:"ab_id"`
	Ordinal     int    `json:"ab_count" validate:"min=1"`
	Balls       int    `json:"balls" validate:"min=0,max=3"`
	Strikes     int    `json:"strikes" validate:"min=0,max=2"`
	PitchType   string `json:"mlbam_pitch_name"`
	Description string `json:"des"`
	BasicType   string `json:"type" validate:"omitempty,oneof=B S X"`

	StartSpeed  *float64 `json:"start_speed,omitempty"`
	EndSpeed    *float64 `json:"end_speed,omitempty"`
	PfxX        *float64 `json:"pfx_x,omitempty"`
	PfxZ        *float64 `json:"pfx_z,omitempty"`
	Px          *float64 `json:"px,omitempty"`
	Pz          *float64 `json:"pz,omitempty"`
	X0          *float64 `json:"x0,omitempty"`
	Z0          *float64 `json:"z0,omitempty"`
	SzTop       *float64 `json:"sz_top,omitempty"`
	SzBot       *float64 `json:"sz_bot,omitempty"`
	BreakAngle  *float64 `json:"break_angle,omitempty"`
	BreakLength *float64 `json:"break_length,omitempty"`
	SpinRate    *float64 `json:"spin,omitempty"`
}

// InStrikeZone reports whether the plate location falls inside the batter's
// zone. ok is false when the location or zone extents are missing.
func (r PitchFXRecord) InStrikeZone() (inside bool, ok bool) {
	if r.Px == nil || r.Pz == nil || r.SzTop == nil || r.SzBot == nil {
		return false, false
	}
	return math.Abs(*r.Px) <= plateHalfWidth && *r.Pz >= *r.SzBot && *r.Pz <= *r.SzTop, true
}

// PitchFXStream is the telemetry of one pitch appearance in emission order.
// A record whose PitcherID disagrees with the stream's pitch appearance is
// kept; the reconciler flags it.
type PitchFXStream struct {
	PitchAppID string          `json:"pitch_app_id" validate:"required"`
	URL        string          `json:"pitchfx_url"`
	Records    []PitchFXRecord `json:"pitchfx_log" validate:"dive"`
}

func (PitchFXStream) DataSet() DataSet { return DataSetPitchFX }
func (s PitchFXStream) URLID() string  { return s.PitchAppID }
func (PitchFXStream) isInput()         {}

func (s PitchFXStream) Validate() error {
	if _, err := gameid.ParsePitchAppID(s.PitchAppID); err != nil {
		return err
	}
	for i, rec := range s.Records {
		if rec.PitchAppID != s.PitchAppID {
			return crerr.Wrapf(ErrInvalid, "pitchfx %s record %d belongs to %s", s.PitchAppID, i, rec.PitchAppID)
		}
	}
	return nil
}

func (s PitchFXStream) Clone() PitchFXStream {
	s.Records = append([]PitchFXRecord(nil), s.Records...)
	return s
}
