// Package scrape holds the contracts of the scraped inputs consumed by the
// reconciliation core. Fetching and HTML parsing happen elsewhere; this
// package only describes what those collaborators hand over.
package scrape

import crerr "github.com/cockroachdb/errors"

// DataSet names the source a scraped input was produced from.
type DataSet string

const (
	DataSetDayIndex  DataSet = "bbref_games_for_date"
	DataSetBoxscore  DataSet = "bbref_boxscore"
	DataSetPitchLogs DataSet = "brooks_pitch_logs"
	DataSetPitchFX   DataSet = "brooks_pitchfx"
)

func DataSets() []DataSet {
	return []DataSet{DataSetDayIndex, DataSetBoxscore, DataSetPitchLogs, DataSetPitchFX}
}

func ParseDataSet(value string) (DataSet, error) {
	for _, ds := range DataSets() {
		if string(ds) == value {
			return ds, nil
		}
	}
	return "", crerr.Newf("unknown data set %q", value)
}

// Input is the closed set of scraped input variants: DayIndex, Boxscore,
// PitchLogSet and PitchFXStream.
type Input interface {
	DataSet() DataSet
	URLID() string
	isInput()
}

// ErrInvalid marks an input that violates its own contract.
var ErrInvalid = crerr.New("invalid scraped input")
