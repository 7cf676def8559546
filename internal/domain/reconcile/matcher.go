package reconcile

import (
	"sort"
	"time"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/pitchseq"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

// telemetry is a record plus what the matcher needs to place it.
type telemetry struct {
	pitch combined.TelemetryPitch
	owner int
	ts    time.Time
	tsOK  bool
}

func newTelemetry(r scrape.PitchFXRecord, index, owner int) telemetry {
	t := telemetry{
		pitch: combined.TelemetryPitch{
			PitchFXRecord: r,
			EmissionIndex: index,
			Class:         pitchseq.ClassifyRecord(r),
		},
		owner: owner,
	}
	if ts, err := gameid.ParsePitchTimestamp(r.ParkSvID); err == nil {
		t.ts, t.tsOK = ts, true
	}
	return t
}

func (t telemetry) count() pitchseq.Count {
	return pitchseq.Count{Balls: t.pitch.Balls, Strikes: t.pitch.Strikes}
}

// group is the records sharing one loose at-bat key of one pitcher.
type group struct {
	key       int
	firstSeen int
	records   []telemetry
	consumed  bool
}

// majority returns the (batter, inning) pair most records agree on; ties go
// to the pair seen first.
func (g *group) majority() (batter, inning int) {
	type pair struct{ batter, inning int }
	counts := make(map[pair]int, 2)
	var order []pair
	for _, r := range g.records {
		p := pair{r.pitch.BatterID, r.pitch.Inning}
		if _, ok := counts[p]; !ok {
			order = append(order, p)
		}
		counts[p]++
	}
	best := pair{}
	bestN := 0
	for _, p := range order {
		if counts[p] > bestN {
			best, bestN = p, counts[p]
		}
	}
	return best.batter, best.inning
}

// matchedAtBat is one play-by-play at-bat and the telemetry assigned to it.
// kept is in (ordinal, count, emission) order.
type matchedAtBat struct {
	atBat            scrape.AtBat
	kept             []telemetry
	duplicates       []telemetry
	identityMismatch bool
}

func (m matchedAtBat) groupSize() int {
	return len(m.kept) + len(m.duplicates)
}

type matchResult struct {
	atBats  []matchedAtBat
	orphans []combined.TelemetryPitch
}

// match assigns every telemetry group to at most one at-bat. atBats must be
// in (inning, half, ordinal) order.
func match(atBats []scrape.AtBat, records []telemetry, window time.Duration) matchResult {
	buckets := bucketByPitcher(records)

	res := matchResult{atBats: make([]matchedAtBat, 0, len(atBats))}
	for _, ab := range atBats {
		m := matchedAtBat{atBat: ab}
		for _, g := range buckets[ab.Event.PitcherID] {
			if g.consumed {
				continue
			}
			batter, inning := g.majority()
			if batter != ab.Event.BatterID || inning != ab.Inning {
				continue
			}
			g.consumed = true
			m.kept, m.duplicates = dedupe(g.records, window)
			markOutOfSequence(m.kept)
			for _, r := range g.records {
				if r.pitch.BatterID != ab.Event.BatterID || r.pitch.PitcherID != ab.Event.PitcherID {
					m.identityMismatch = true
					break
				}
			}
			break
		}
		res.atBats = append(res.atBats, m)
	}

	var leftover []*group
	for _, groups := range buckets {
		for _, g := range groups {
			if !g.consumed {
				leftover = append(leftover, g)
			}
		}
	}
	sort.Slice(leftover, func(i, j int) bool { return leftover[i].firstSeen < leftover[j].firstSeen })
	for _, g := range leftover {
		for _, r := range g.records {
			res.orphans = append(res.orphans, r.pitch)
		}
	}
	return res
}

// bucketByPitcher groups records by owning pitcher and loose at-bat key.
// Groups keep the order in which their key was first emitted.
func bucketByPitcher(records []telemetry) map[int][]*group {
	buckets := make(map[int][]*group)
	index := make(map[[2]int]*group)
	for _, r := range records {
		k := [2]int{r.owner, r.pitch.AtBatKey}
		g, ok := index[k]
		if !ok {
			g = &group{key: r.pitch.AtBatKey, firstSeen: r.pitch.EmissionIndex}
			index[k] = g
			buckets[r.owner] = append(buckets[r.owner], g)
		}
		g.records = append(g.records, r)
	}
	for _, groups := range buckets {
		for _, g := range groups {
			sortGroup(g.records)
		}
	}
	return buckets
}

func sortGroup(records []telemetry) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].pitch, records[j].pitch
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		if a.Balls+a.Strikes != b.Balls+b.Strikes {
			return a.Balls+a.Strikes < b.Balls+b.Strikes
		}
		return a.EmissionIndex < b.EmissionIndex
	})
}

// dedupe splits a sorted group into kept records and duplicates. A record is
// a duplicate of a kept predecessor with the same count and pitch type thrown
// within window of it; when either timestamp is unreadable the ordinals must
// match instead.
func dedupe(records []telemetry, window time.Duration) (kept, dups []telemetry) {
	kept = make([]telemetry, 0, len(records))
	for _, r := range records {
		if isDuplicate(r, kept, window) {
			r.pitch.DuplicateRemoved = true
			dups = append(dups, r)
			continue
		}
		kept = append(kept, r)
	}
	return kept, dups
}

func isDuplicate(r telemetry, kept []telemetry, window time.Duration) bool {
	for _, k := range kept {
		if k.pitch.Balls != r.pitch.Balls || k.pitch.Strikes != r.pitch.Strikes || k.pitch.PitchType != r.pitch.PitchType {
			continue
		}
		if k.tsOK && r.tsOK {
			gap := r.ts.Sub(k.ts)
			if gap < 0 {
				gap = -gap
			}
			if gap <= window {
				return true
			}
			continue
		}
		if k.pitch.Ordinal == r.pitch.Ordinal {
			return true
		}
	}
	return false
}

// markOutOfSequence flags kept records whose balls or strikes fall below the
// previous kept record's. Ball/strike monotonicity decides; timestamps are
// only consulted for duplicates.
func markOutOfSequence(kept []telemetry) {
	for i := 1; i < len(kept); i++ {
		prev, cur := kept[i-1].pitch, kept[i].pitch
		if cur.Balls < prev.Balls || cur.Strikes < prev.Strikes {
			kept[i].pitch.OutOfSequence = true
		}
	}
}
