// Package gameid builds, validates and converts the identifiers shared by the
// boxscore and telemetry sources: games, at-bats and pitch appearances.
package gameid

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// ErrMalformedIdentifier is returned when a token does not match its grammar.
var ErrMalformedIdentifier = crerr.New("malformed identifier")

const dateLayout = "20060102"

var (
	compactPattern = regexp.MustCompile(`^([A-Z]{3})(\d{8})([0-2])$`)
	longPattern    = regexp.MustCompile(`^gid_(\d{4})_(\d{2})_(\d{2})_([a-z]{3})mlb_([a-z]{3})mlb_([0-2])$`)
	teamPattern    = regexp.MustCompile(`^[A-Z]{3}$`)
)

// GameID identifies one game. AwayTeam is optional: the compact token does not
// carry it, the long token requires it.
type GameID struct {
	HomeTeam string
	AwayTeam string
	Date     time.Time
	Number   int
}

// ParseCompact parses a boxscore token such as "TOR201905300".
func ParseCompact(token string) (GameID, error) {
	m := compactPattern.FindStringSubmatch(token)
	if m == nil {
		return GameID{}, crerr.Wrapf(ErrMalformedIdentifier, "game token %q", token)
	}
	date, err := time.Parse(dateLayout, m[2])
	if err != nil {
		return GameID{}, crerr.Wrapf(ErrMalformedIdentifier, "game token %q: invalid date", token)
	}
	number, _ := strconv.Atoi(m[3])
	return GameID{HomeTeam: m[1], Date: date, Number: number}, nil
}

// ParseLong parses a telemetry token such as "gid_2019_04_15_detmlb_chamlb_0".
func ParseLong(token string, codes TeamCodes) (GameID, error) {
	m := longPattern.FindStringSubmatch(token)
	if m == nil {
		return GameID{}, crerr.Wrapf(ErrMalformedIdentifier, "telemetry game token %q", token)
	}
	date, err := time.Parse(dateLayout, m[1]+m[2]+m[3])
	if err != nil {
		return GameID{}, crerr.Wrapf(ErrMalformedIdentifier, "telemetry game token %q: invalid date", token)
	}
	number, _ := strconv.Atoi(m[6])
	return GameID{
		HomeTeam: codes.Short(m[5]),
		AwayTeam: codes.Short(m[4]),
		Date:     date,
		Number:   number,
	}, nil
}

// New validates the parts of a game id.
func New(homeTeam string, date time.Time, number int) (GameID, error) {
	if !teamPattern.MatchString(homeTeam) {
		return GameID{}, crerr.Wrapf(ErrMalformedIdentifier, "team code %q", homeTeam)
	}
	if number < 0 || number > 2 {
		return GameID{}, crerr.Wrapf(ErrMalformedIdentifier, "game number %d", number)
	}
	y, mo, d := date.Date()
	return GameID{HomeTeam: homeTeam, Date: time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), Number: number}, nil
}

// WithAway returns a copy carrying the away team code.
func (g GameID) WithAway(code string) GameID {
	g.AwayTeam = code
	return g
}

func (g GameID) Compact() string {
	return g.HomeTeam + g.Date.Format(dateLayout) + strconv.Itoa(g.Number)
}

// Long renders the telemetry token. The away team must be known.
func (g GameID) Long(codes TeamCodes) (string, error) {
	if !teamPattern.MatchString(g.AwayTeam) {
		return "", crerr.Wrapf(ErrMalformedIdentifier, "game %s: away team %q", g.Compact(), g.AwayTeam)
	}
	return fmt.Sprintf("gid_%04d_%02d_%02d_%smlb_%smlb_%d",
		g.Date.Year(), int(g.Date.Month()), g.Date.Day(),
		codes.Long(g.AwayTeam), codes.Long(g.HomeTeam), g.Number,
	), nil
}

func (g GameID) Season() int {
	return g.Date.Year()
}

func (g GameID) String() string {
	return g.Compact()
}

// CompactToLong converts a boxscore token to a telemetry token; the away team
// comes from the boxscore because the compact token lacks it.
func CompactToLong(token, awayTeam string, codes TeamCodes) (string, error) {
	id, err := ParseCompact(token)
	if err != nil {
		return "", err
	}
	return id.WithAway(awayTeam).Long(codes)
}

func LongToCompact(token string, codes TeamCodes) (string, error) {
	id, err := ParseLong(token, codes)
	if err != nil {
		return "", err
	}
	return id.Compact(), nil
}
