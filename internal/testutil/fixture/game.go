// Package fixture builds synthetic but internally consistent game inputs for
// tests: a boxscore with three at-bats per half-inning, one pitcher per team,
// matching pitch logs and one pfx record per play-by-play pitch.
package fixture

import (
	"fmt"
	"time"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/pitchseq"
	"github.com/a-luna/vigorish-sub003/internal/domain/reconcile"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

const (
	AwayPitcherID = 500001
	HomePitcherID = 600001

	atBatsPerHalf = 3
	pitchGap      = 20 * time.Second
)

type Game struct {
	Boxscore  scrape.Boxscore
	PitchLogs scrape.PitchLogSet
	PitchFX   []scrape.PitchFXStream

	game  gameid.GameID
	clock time.Time
}

// Repeat returns n copies of seq.
func Repeat(seq string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = seq
	}
	return out
}

// NewGame lays sequences out as consecutive at-bats. It panics on a
// malformed game id; fixtures are test-only.
func NewGame(gameID, awayTeam string, sequences []string) *Game {
	id, err := gameid.ParseCompact(gameID)
	if err != nil {
		panic(err)
	}
	g := &Game{
		game:  id,
		clock: id.Date.Add(19 * time.Hour),
		Boxscore: scrape.Boxscore{
			GameID:   gameID,
			AwayTeam: scrape.TeamSummary{TeamID: awayTeam},
			HomeTeam: scrape.TeamSummary{TeamID: id.HomeTeam, IsHome: true},
		},
		PitchLogs: scrape.PitchLogSet{GameID: gameID},
		PitchFX: []scrape.PitchFXStream{
			{PitchAppID: pitchApp(id, AwayPitcherID)},
			{PitchAppID: pitchApp(id, HomePitcherID)},
		},
	}

	var half *scrape.HalfInning
	for i, seq := range sequences {
		if i%atBatsPerHalf == 0 {
			inning := i/(2*atBatsPerHalf) + 1
			h := gameid.HalfTop
			if (i/atBatsPerHalf)%2 == 1 {
				h = gameid.HalfBottom
			}
			g.Boxscore.Innings = append(g.Boxscore.Innings, scrape.HalfInning{Inning: inning, Half: h})
			half = &g.Boxscore.Innings[len(g.Boxscore.Innings)-1]
		}
		pitcher, pitcherTeam, batter, batterTeam := g.participants(half.Half, i)
		half.Events = append(half.Events, scrape.PlayByPlayEvent{
			RowNumber:     i + 1,
			Ordinal:       i%atBatsPerHalf + 1,
			PitchSequence: seq,
			PitcherID:     pitcher,
			BatterID:      batter,
			PitcherTeam:   pitcherTeam,
			BatterTeam:    batterTeam,
			Description:   "Groundout",
		})
		g.throw(i, half.Inning, pitcher, batter, seq)
	}
	g.RefreshTotals()
	return g
}

func (g *Game) participants(h gameid.Half, atBat int) (pitcher int, pitcherTeam string, batter int, batterTeam string) {
	if h == gameid.HalfTop {
		return HomePitcherID, g.Boxscore.HomeTeam.TeamID, 100 + atBat%9, g.Boxscore.AwayTeam.TeamID
	}
	return AwayPitcherID, g.Boxscore.AwayTeam.TeamID, 200 + atBat%9, g.Boxscore.HomeTeam.TeamID
}

// AtBatKey is the loose pfx key of the n-th at-bat (zero based).
func AtBatKey(atBat int) int {
	return atBat + 1
}

// throw appends one pfx record per counts-as-pitch token of seq.
func (g *Game) throw(atBat, inning, pitcher, batter int, seq string) {
	parsed, err := pitchseq.Parse(seq)
	if err != nil {
		panic(err)
	}
	stream := g.stream(pitcher)
	for _, p := range parsed.Pitches() {
		des, basic := describe(p.Token.Symbol)
		g.clock = g.clock.Add(pitchGap)
		stream.Records = append(stream.Records, scrape.PitchFXRecord{
			PitchAppID:  stream.PitchAppID,
			PitcherID:   pitcher,
			BatterID:    batter,
			Inning:      inning,
			ParkSvID:    gameid.FormatPitchTimestamp(g.clock),
			AtBatKey:    AtBatKey(atBat),
			Ordinal:     p.Number,
			Balls:       p.CountBefore.Balls,
			Strikes:     p.CountBefore.Strikes,
			PitchType:   "FF",
			Description: des,
			BasicType:   basic,
		})
	}
}

func describe(symbol byte) (des, basic string) {
	switch symbol {
	case 'C':
		return "Called Strike", "S"
	case 'S':
		return "Swinging Strike", "S"
	case 'F':
		return "Foul", "S"
	case 'X':
		return "In play, out(s)", "X"
	case 'I':
		return "Intent Ball", "B"
	case 'H':
		return "Hit By Pitch", "B"
	default:
		return "Ball", "B"
	}
}

func (g *Game) stream(pitcher int) *scrape.PitchFXStream {
	app := pitchApp(g.game, pitcher)
	for i := range g.PitchFX {
		if g.PitchFX[i].PitchAppID == app {
			return &g.PitchFX[i]
		}
	}
	panic(fmt.Sprintf("no stream for %s", app))
}

// RefreshTotals rebuilds pitching lines and pitch logs from the play-by-play.
func (g *Game) RefreshTotals() {
	type tally struct {
		total    int
		byInning map[int]int
		batters  int
	}
	tallies := map[int]*tally{
		AwayPitcherID: {byInning: map[int]int{}},
		HomePitcherID: {byInning: map[int]int{}},
	}
	for _, ab := range g.Boxscore.AtBats() {
		seq, _ := pitchseq.ParseLenient(ab.Event.PitchSequence)
		t := tallies[ab.Event.PitcherID]
		t.total += seq.PitchCount()
		t.byInning[ab.Inning] += seq.PitchCount()
		t.batters++
	}

	g.Boxscore.AwayTeam.Pitching = []scrape.PitchingLine{{PlayerID: AwayPitcherID, PitchCount: tallies[AwayPitcherID].total, BattersFaced: tallies[AwayPitcherID].batters}}
	g.Boxscore.HomeTeam.Pitching = []scrape.PitchingLine{{PlayerID: HomePitcherID, PitchCount: tallies[HomePitcherID].total, BattersFaced: tallies[HomePitcherID].batters}}

	g.PitchLogs.PitchLogs = g.PitchLogs.PitchLogs[:0]
	for _, side := range []struct {
		pitcher  int
		team     string
		opponent string
	}{
		{AwayPitcherID, g.Boxscore.AwayTeam.TeamID, g.Boxscore.HomeTeam.TeamID},
		{HomePitcherID, g.Boxscore.HomeTeam.TeamID, g.Boxscore.AwayTeam.TeamID},
	} {
		t := tallies[side.pitcher]
		log := scrape.PitchLog{
			PitchAppID:      pitchApp(g.game, side.pitcher),
			GameID:          g.Boxscore.GameID,
			PitcherID:       side.pitcher,
			TeamID:          side.team,
			OpponentTeamID:  side.opponent,
			TotalPitchCount: t.total,
		}
		for inning := 1; inning <= len(g.Boxscore.Innings); inning++ {
			if n, ok := t.byInning[inning]; ok {
				log.InningCounts = append(log.InningCounts, scrape.InningPitchCount{Inning: inning, Pitches: n})
			}
		}
		g.PitchLogs.PitchLogs = append(g.PitchLogs.PitchLogs, log)
	}
}

// DropRecord removes the pfx record of pitch number n of an at-bat.
func (g *Game) DropRecord(atBat, n int) {
	for si := range g.PitchFX {
		s := &g.PitchFX[si]
		for ri, r := range s.Records {
			if r.AtBatKey == AtBatKey(atBat) && r.Ordinal == n {
				s.Records = append(s.Records[:ri], s.Records[ri+1:]...)
				return
			}
		}
	}
	panic(fmt.Sprintf("no pfx record for at-bat %d pitch %d", atBat, n))
}

// DuplicateRecord re-emits pitch number n of an at-bat gap after the
// original, directly behind it in the stream.
func (g *Game) DuplicateRecord(atBat, n int, gap time.Duration) {
	for si := range g.PitchFX {
		s := &g.PitchFX[si]
		for ri, r := range s.Records {
			if r.AtBatKey != AtBatKey(atBat) || r.Ordinal != n {
				continue
			}
			ts, err := gameid.ParsePitchTimestamp(r.ParkSvID)
			if err != nil {
				panic(err)
			}
			dup := r
			dup.ParkSvID = gameid.FormatPitchTimestamp(ts.Add(gap))
			s.Records = append(s.Records[:ri+1], append([]scrape.PitchFXRecord{dup}, s.Records[ri+1:]...)...)
			return
		}
	}
	panic(fmt.Sprintf("no pfx record for at-bat %d pitch %d", atBat, n))
}

// InjectPitches appends pfx records for seq to an at-bat without touching
// its play-by-play sequence.
func (g *Game) InjectPitches(atBat int, seq string) {
	ab := g.Boxscore.AtBats()[atBat]
	g.throw(atBat, ab.Inning, ab.Event.PitcherID, ab.Event.BatterID, seq)
}

// SetSequence rewrites the play-by-play sequence of an at-bat. Pitching
// totals and telemetry are left alone; call RefreshTotals to make the
// boxscore agree with the new sequence.
func (g *Game) SetSequence(atBat int, seq string) {
	row := atBat + 1
	for hi := range g.Boxscore.Innings {
		for ei := range g.Boxscore.Innings[hi].Events {
			if g.Boxscore.Innings[hi].Events[ei].RowNumber == row {
				g.Boxscore.Innings[hi].Events[ei].PitchSequence = seq
			}
		}
	}
}

// InningKey returns the inning key and row number of an at-bat, as used by
// pitch-sequence override patches.
func (g *Game) InningKey(atBat int) (string, int) {
	ab := g.Boxscore.AtBats()[atBat]
	return gameid.InningKey(ab.Half, ab.Inning), ab.Event.RowNumber
}

func (g *Game) Input() reconcile.GameInput {
	box := g.Boxscore.Clone()
	logs := g.PitchLogs.Clone()
	streams := make([]scrape.PitchFXStream, len(g.PitchFX))
	for i, s := range g.PitchFX {
		streams[i] = s.Clone()
	}
	return reconcile.GameInput{Boxscore: &box, PitchLogs: &logs, PitchFX: streams}
}

// PitchFXRecordCount is the number of pfx records over all streams.
func (g *Game) PitchFXRecordCount() int {
	n := 0
	for _, s := range g.PitchFX {
		n += len(s.Records)
	}
	return n
}

// TotalPitches is the authoritative pitch count of the boxscore.
// AnnouncePitchFX sets the telemetry url on every pitch log, as the source
// does when it has telemetry for the appearance.
func (g *Game) AnnouncePitchFX() {
	for i := range g.PitchLogs.PitchLogs {
		log := &g.PitchLogs.PitchLogs[i]
		log.PitchFXURL = "https://pfx.example.test/" + log.PitchAppID
	}
}

func (g *Game) TotalPitches() int {
	return g.Boxscore.PitchCount()
}

func pitchApp(id gameid.GameID, pitcher int) string {
	return gameid.PitchAppID{Game: id, PitcherID: pitcher}.String()
}

