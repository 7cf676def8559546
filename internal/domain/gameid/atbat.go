package gameid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
)

type Half string

const (
	HalfTop    Half = "top"
	HalfBottom Half = "bottom"
)

func (h Half) Valid() bool {
	return h == HalfTop || h == HalfBottom
}

// InningKey renders the inning segment used by at-bat tokens and patches,
// e.g. "TOP01" or "BOT09".
func InningKey(half Half, inning int) string {
	prefix := "TOP"
	if half == HalfBottom {
		prefix = "BOT"
	}
	return fmt.Sprintf("%s%02d", prefix, inning)
}

// ParseInningKey is the inverse of InningKey.
func ParseInningKey(key string) (Half, int, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if len(key) < 4 {
		return "", 0, crerr.Wrapf(ErrMalformedIdentifier, "inning key %q", key)
	}
	var half Half
	switch key[:3] {
	case "TOP":
		half = HalfTop
	case "BOT":
		half = HalfBottom
	default:
		return "", 0, crerr.Wrapf(ErrMalformedIdentifier, "inning key %q", key)
	}
	inning, err := strconv.Atoi(key[3:])
	if err != nil || inning < 1 {
		return "", 0, crerr.Wrapf(ErrMalformedIdentifier, "inning key %q", key)
	}
	return half, inning, nil
}

// AtBatID identifies one plate appearance.
type AtBatID struct {
	Game        GameID
	Inning      int
	Half        Half
	PitcherTeam string
	PitcherID   int
	BatterTeam  string
	BatterID    int
	Ordinal     int
}

var atBatPattern = regexp.MustCompile(`^([A-Z]{3}\d{8}[0-2])_((?:TOP|BOT)\d{2,})_([A-Z]{3})_(\d+)_([A-Z]{3})_(\d+)_(\d+)$`)

func (a AtBatID) String() string {
	return fmt.Sprintf("%s_%s_%s_%d_%s_%d_%d",
		a.Game.Compact(), InningKey(a.Half, a.Inning),
		a.PitcherTeam, a.PitcherID, a.BatterTeam, a.BatterID, a.Ordinal,
	)
}

func (a AtBatID) PitchApp() PitchAppID {
	return PitchAppID{Game: a.Game, PitcherID: a.PitcherID}
}

func ParseAtBatID(token string) (AtBatID, error) {
	m := atBatPattern.FindStringSubmatch(token)
	if m == nil {
		return AtBatID{}, crerr.Wrapf(ErrMalformedIdentifier, "at-bat token %q", token)
	}
	game, err := ParseCompact(m[1])
	if err != nil {
		return AtBatID{}, err
	}
	half, inning, err := ParseInningKey(m[2])
	if err != nil {
		return AtBatID{}, err
	}
	pitcherID, _ := strconv.Atoi(m[4])
	batterID, _ := strconv.Atoi(m[6])
	ordinal, _ := strconv.Atoi(m[7])
	return AtBatID{
		Game:        game,
		Inning:      inning,
		Half:        half,
		PitcherTeam: m[3],
		PitcherID:   pitcherID,
		BatterTeam:  m[5],
		BatterID:    batterID,
		Ordinal:     ordinal,
	}, nil
}

// PitchAppID identifies one pitcher's appearance in one game.
type PitchAppID struct {
	Game      GameID
	PitcherID int
}

func (p PitchAppID) String() string {
	return p.Game.Compact() + "_" + strconv.Itoa(p.PitcherID)
}

func ParsePitchAppID(token string) (PitchAppID, error) {
	idx := strings.LastIndexByte(token, '_')
	if idx <= 0 {
		return PitchAppID{}, crerr.Wrapf(ErrMalformedIdentifier, "pitch-app token %q", token)
	}
	game, err := ParseCompact(token[:idx])
	if err != nil {
		return PitchAppID{}, err
	}
	pitcherID, err := strconv.Atoi(token[idx+1:])
	if err != nil || pitcherID <= 0 {
		return PitchAppID{}, crerr.Wrapf(ErrMalformedIdentifier, "pitch-app token %q", token)
	}
	return PitchAppID{Game: game, PitcherID: pitcherID}, nil
}

// RenamePitchAppToken rewrites the game prefix of a pitch-app token. Tokens that do not
// belong to oldGame are returned unchanged.
func RenamePitchAppToken(token, oldGame, newGame string) string {
	if strings.HasPrefix(token, oldGame+"_") {
		return newGame + token[len(oldGame):]
	}
	return token
}

const pitchTimestampLayout = "060102_150405"

// ParsePitchTimestamp parses the telemetry source's "YYMMDD_HHMMSS" pitch
// identifier.
func ParsePitchTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(pitchTimestampLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, crerr.Wrapf(ErrMalformedIdentifier, "pitch timestamp %q", value)
	}
	return ts, nil
}

func FormatPitchTimestamp(ts time.Time) string {
	return ts.UTC().Format(pitchTimestampLayout)
}
