package gameid

import "strings"

// teamCodeExceptions lists boxscore team codes whose telemetry code is not
// the lowercased boxscore code.
var teamCodeExceptions = map[string]string{
	"CHW": "cha",
	"CHC": "chn",
	"KCR": "kca",
	"LAA": "ana",
	"LAD": "lan",
	"NYY": "nya",
	"NYM": "nyn",
	"SDP": "sdn",
	"SFG": "sfn",
	"STL": "sln",
	"TBR": "tba",
	"WSN": "was",
}

// TeamCodes converts between uppercase boxscore team codes and lowercase
// telemetry team codes. It is read-only after construction.
type TeamCodes struct {
	toLong  map[string]string
	toShort map[string]string
}

// NewTeamCodes builds a table from the non-identity mappings only; every
// other code converts by changing case.
func NewTeamCodes(exceptions map[string]string) TeamCodes {
	codes := TeamCodes{
		toLong:  make(map[string]string, len(exceptions)),
		toShort: make(map[string]string, len(exceptions)),
	}
	for upper, lower := range exceptions {
		upper = strings.ToUpper(strings.TrimSpace(upper))
		lower = strings.ToLower(strings.TrimSpace(lower))
		codes.toLong[upper] = lower
		codes.toShort[lower] = upper
	}
	return codes
}

func DefaultTeamCodes() TeamCodes {
	return NewTeamCodes(teamCodeExceptions)
}

// Long returns the telemetry code for an uppercase boxscore code.
func (c TeamCodes) Long(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if lower, ok := c.toLong[code]; ok {
		return lower
	}
	return strings.ToLower(code)
}

// Short returns the boxscore code for a lowercase telemetry code.
func (c TeamCodes) Short(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if upper, ok := c.toShort[code]; ok {
		return upper
	}
	return strings.ToUpper(code)
}
