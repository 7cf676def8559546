package reconcile

import (
	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/pitchseq"
)

// reconcileAtBat compares the counts-as-pitch tokens of one at-bat with the
// telemetry kept for it and fills the entry's category and counters.
//
// Counter rules, per at-bat:
//   - Complete (Patched when the sequence was overridden) = paired pitches
//   - Missing = play-by-play pitches left unpaired
//   - Extra = kept telemetry left unpaired
//   - DuplicatesRemoved = records dropped by the matcher
//   - an invalid at-bat pairs nothing: Missing = play-by-play pitches and
//     Invalid = every record of its group
func reconcileAtBat(game gameid.GameID, m matchedAtBat) combined.AtBat {
	ev := m.atBat.Event
	id := gameid.AtBatID{
		Game:        game,
		Inning:      m.atBat.Inning,
		Half:        m.atBat.Half,
		PitcherTeam: ev.PitcherTeam,
		PitcherID:   ev.PitcherID,
		BatterTeam:  ev.BatterTeam,
		BatterID:    ev.BatterID,
		Ordinal:     ev.Ordinal,
	}
	seq, unknown := pitchseq.ParseLenient(ev.PitchSequence)
	pbp := seq.Pitches()

	entry := combined.AtBat{
		AtBatID:              id.String(),
		Inning:               m.atBat.Inning,
		Half:                 m.atBat.Half,
		RowNumber:            ev.RowNumber,
		Ordinal:              ev.Ordinal,
		PitcherID:            ev.PitcherID,
		PitcherTeam:          ev.PitcherTeam,
		BatterID:             ev.BatterID,
		BatterTeam:           ev.BatterTeam,
		PitchSequence:        ev.PitchSequence,
		PitchSequencePatched: ev.PitchSequencePatched,
		UnknownTokens:        string(unknown),
		RunsOutsResult:       ev.RunsOutsResult,
		Description:          ev.Description,
		PBPPitchCount:        len(pbp),
		Pitches:              make([]combined.PairedPitch, len(pbp)),
	}
	for i, p := range pbp {
		entry.Pitches[i] = combined.PairedPitch{
			Number:      p.Number,
			Position:    p.Position,
			Token:       string(p.Token.Symbol),
			CountBefore: p.CountBefore,
		}
	}
	for _, d := range m.duplicates {
		entry.DuplicatesRemoved = append(entry.DuplicatesRemoved, d.pitch)
	}
	for _, k := range m.kept {
		if k.pitch.OutOfSequence {
			entry.Counts.OutOfSequence++
		}
	}

	switch {
	case m.identityMismatch:
		entry.Category = combined.CategoryInvalid
		entry.InvalidRecords = invalidate(m.kept, m.duplicates)
		entry.DuplicatesRemoved = nil
		entry.Counts.Missing = len(pbp)
		entry.Counts.Invalid = m.groupSize()
		entry.MissingPitches = pitchNumbers(pbp)
		return entry
	case len(pbp) == 0 && m.groupSize() > 0:
		entry.Category = combined.CategoryInvalidIntentionalWalk
		entry.InvalidRecords = invalidate(m.kept, m.duplicates)
		entry.DuplicatesRemoved = nil
		entry.Counts.Invalid = m.groupSize()
		return entry
	}

	pairs := align(pbp, m.kept)
	paired := make([]bool, len(m.kept))
	for _, pr := range pairs {
		t := m.kept[pr.telemetry].pitch
		pp := &entry.Pitches[pr.pbp]
		pp.Telemetry = &t
		pp.Plausible = pitchseq.Plausible(pbp[pr.pbp].Token, t.Class)
		paired[pr.telemetry] = true
	}
	for i, pp := range entry.Pitches {
		if pp.Telemetry == nil {
			entry.MissingPitches = append(entry.MissingPitches, pbp[i].Number)
		}
	}
	for i, k := range m.kept {
		if !paired[i] {
			entry.ExtraPitches = append(entry.ExtraPitches, k.pitch)
		}
	}

	if ev.PitchSequencePatched {
		entry.Counts.Patched = len(pairs)
	} else {
		entry.Counts.Complete = len(pairs)
	}
	entry.Counts.Missing = len(pbp) - len(pairs)
	entry.Counts.Extra = len(m.kept) - len(pairs)
	entry.Counts.DuplicatesRemoved = len(m.duplicates)

	switch {
	case len(pbp) > len(m.kept):
		entry.Category = combined.CategoryMissingPitches
	case len(pbp) < len(m.kept):
		entry.Category = combined.CategoryExtraPitches
	case ev.PitchSequencePatched:
		entry.Category = combined.CategoryPatched
	case len(m.duplicates) > 0:
		entry.Category = combined.CategoryRemovedDuplicates
	default:
		entry.Category = combined.CategoryComplete
	}

	// Plausibility is only consulted when the counts disagree.
	if len(pbp) != len(m.kept) {
		for _, pp := range entry.Pitches {
			if pp.Telemetry != nil && !pp.Plausible {
				entry.SuspectedSwaps = append(entry.SuspectedSwaps, pp.Number)
			}
		}
	}
	return entry
}

func invalidate(groups ...[]telemetry) []combined.TelemetryPitch {
	var out []combined.TelemetryPitch
	for _, g := range groups {
		for _, r := range g {
			p := r.pitch
			p.Invalid = true
			p.DuplicateRemoved = false
			out = append(out, p)
		}
	}
	return out
}

func pitchNumbers(pbp []pitchseq.Pitch) []int {
	if len(pbp) == 0 {
		return nil
	}
	out := make([]int, len(pbp))
	for i, p := range pbp {
		out[i] = p.Number
	}
	return out
}

type pair struct {
	pbp       int
	telemetry int
}

// align pairs play-by-play pitches with telemetry records, keeping both in
// order. When the counts agree the pairing is positional. Otherwise records
// pair with the token whose count-before equals theirs, plausible pairings
// scoring higher; if that leaves any of the shorter side unpaired the
// alignment falls back to positional pairing of the shorter side.
func align(pbp []pitchseq.Pitch, kept []telemetry) []pair {
	n, m := len(pbp), len(kept)
	short := n
	if m < short {
		short = m
	}
	if n == m {
		return positional(short)
	}

	// score[i][j] is the best alignment of pbp[i:] with kept[j:].
	score := make([][]int, n+1)
	for i := range score {
		score[i] = make([]int, m+1)
	}
	weight := func(i, j int) int {
		if pbp[i].CountBefore != kept[j].count() {
			return 0
		}
		if pitchseq.Plausible(pbp[i].Token, kept[j].pitch.Class) {
			return 3
		}
		return 2
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			best := score[i+1][j]
			if s := score[i][j+1]; s > best {
				best = s
			}
			if w := weight(i, j); w > 0 && w+score[i+1][j+1] > best {
				best = w + score[i+1][j+1]
			}
			score[i][j] = best
		}
	}

	pairs := make([]pair, 0, short)
	for i, j := 0, 0; i < n && j < m; {
		if w := weight(i, j); w > 0 && score[i][j] == w+score[i+1][j+1] {
			pairs = append(pairs, pair{pbp: i, telemetry: j})
			i++
			j++
			continue
		}
		if score[i][j] == score[i][j+1] && n-i <= m-j {
			j++
			continue
		}
		if score[i][j] == score[i+1][j] {
			i++
			continue
		}
		j++
	}
	if len(pairs) < short {
		return positional(short)
	}
	return pairs
}

func positional(n int) []pair {
	out := make([]pair, n)
	for i := range out {
		out[i] = pair{pbp: i, telemetry: i}
	}
	return out
}
