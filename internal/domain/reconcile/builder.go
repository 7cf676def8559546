package reconcile

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

func build(
	game gameid.GameID,
	longID string,
	box scrape.Boxscore,
	logs scrape.PitchLogSet,
	entries []combined.AtBat,
	orphans []combined.TelemetryPitch,
	records []telemetry,
) combined.GameRecord {
	rec := combined.GameRecord{
		Tag:           true,
		GameID:        box.GameID,
		PitchFXGameID: longID,
		GameDate:      game.Date.Format(scrape.DateLayout),
		Boxscore: combined.BoxscoreSummary{
			Meta:      box.Meta,
			Away:      teamLine(box.AwayTeam),
			Home:      teamLine(box.HomeTeam),
			Officials: box.Officials,
		},
		AtBats:  entries,
		Orphans: orphans,
	}

	audit := combined.AuditSummary{
		TotalAtBats:          len(entries),
		BoxscorePitchCount:   box.PitchCount(),
		TelemetryRecordCount: len(records),
		OrphanCount:          len(orphans),
		AtBatIDs: combined.AtBatLists{
			MissingPitches:         []string{},
			ExtraPitches:           []string{},
			RemovedDuplicates:      []string{},
			Patched:                []string{},
			Invalid:                []string{},
			InvalidIntentionalWalk: []string{},
		},
		PitchLogMismatches: []combined.PitchLogMismatch{},
		Issues:             []combined.Issue{},
	}
	for _, ab := range entries {
		audit.AtBats.Inc(ab.Category)
		audit.Pitches = audit.Pitches.Add(ab.Counts)
		audit.AtBatIDs.Add(ab.Category, ab.AtBatID)
		audit.Issues = append(audit.Issues, atBatIssues(ab)...)
	}
	if len(orphans) > 0 {
		audit.Issues = append(audit.Issues, combined.Issue{
			Kind:   combined.IssueOrphanTelemetry,
			Count:  len(orphans),
			Detail: fmt.Sprintf("%d pfx records could not be assigned to an at-bat", len(orphans)),
		})
	}

	recordsByPitcher := make(map[int]int)
	for _, r := range records {
		recordsByPitcher[r.owner]++
	}

	teams := []*combined.TeamAudit{
		{TeamID: box.AwayTeam.TeamID},
		{TeamID: box.HomeTeam.TeamID},
	}
	for ti, summary := range []scrape.TeamSummary{box.AwayTeam, box.HomeTeam} {
		for _, line := range summary.Pitching {
			pa := combined.PitcherAudit{
				PitchAppID:         gameid.PitchAppID{Game: game, PitcherID: line.PlayerID}.String(),
				PitcherID:          line.PlayerID,
				TeamID:             summary.TeamID,
				BoxscorePitchCount: line.PitchCount,
				BattersFaced:       line.BattersFaced,
				TelemetryRecords:   recordsByPitcher[line.PlayerID],
			}
			if log, ok := logs.Log(line.PlayerID); ok {
				pa.PitchLogPresent = true
				pa.PitchLogPitchCount = log.TotalPitchCount
				if log.TotalPitchCount != line.PitchCount {
					audit.PitchLogMismatches = append(audit.PitchLogMismatches, combined.PitchLogMismatch{
						PitchAppID:    pa.PitchAppID,
						PitchLogCount: log.TotalPitchCount,
						BoxscoreCount: line.PitchCount,
					})
					audit.Issues = append(audit.Issues, combined.Issue{
						Kind:       combined.IssuePitchLogMismatch,
						PitchAppID: pa.PitchAppID,
						Count:      log.TotalPitchCount - line.PitchCount,
						Detail:     fmt.Sprintf("pitch log reports %d pitches, boxscore %d", log.TotalPitchCount, line.PitchCount),
					})
				}
			}
			for _, ab := range entries {
				if ab.PitcherID != line.PlayerID {
					continue
				}
				pa.AtBatCount++
				pa.AtBats.Inc(ab.Category)
				pa.Counts = pa.Counts.Add(ab.Counts)
			}
			if pa.AtBatCount != line.BattersFaced {
				audit.Issues = append(audit.Issues, combined.Issue{
					Kind:       combined.IssueBattersFaced,
					PitchAppID: pa.PitchAppID,
					Count:      pa.AtBatCount - line.BattersFaced,
					Detail:     fmt.Sprintf("boxscore reports %d batters faced, play-by-play has %d at-bats", line.BattersFaced, pa.AtBatCount),
				})
			}
			rec.Pitchers = append(rec.Pitchers, pa)

			teams[ti].BoxscorePitchCount += line.PitchCount
			teams[ti].Counts = teams[ti].Counts.Add(pa.Counts)
			teams[ti].AtBats = teams[ti].AtBats.Add(pa.AtBats)
		}
	}
	rec.Teams = []combined.TeamAudit{*teams[0], *teams[1]}
	rec.Audit = audit
	return rec
}

func teamLine(t scrape.TeamSummary) combined.TeamLine {
	line := combined.TeamLine{
		TeamID: t.TeamID,
		Runs:   t.Totals.Runs,
		Hits:   t.Totals.Hits,
		Errors: t.Totals.Errors,
	}
	for _, p := range t.Pitching {
		line.PitchCount += p.PitchCount
	}
	return line
}

func atBatIssues(ab combined.AtBat) []combined.Issue {
	var out []combined.Issue
	if n := len(ab.DuplicatesRemoved); n > 0 {
		out = append(out, combined.Issue{
			Kind:    combined.IssueDuplicateTelemetry,
			AtBatID: ab.AtBatID,
			Count:   n,
			Detail:  fmt.Sprintf("%d duplicate pfx records removed", n),
		})
	}
	if ab.UnknownTokens != "" {
		out = append(out, combined.Issue{
			Kind:    combined.IssueUnknownPitchToken,
			AtBatID: ab.AtBatID,
			Count:   len(ab.UnknownTokens),
			Detail:  fmt.Sprintf("pitch sequence characters %q read as unknown pitches", ab.UnknownTokens),
		})
	}
	if ab.Counts.OutOfSequence > 0 {
		out = append(out, combined.Issue{
			Kind:    combined.IssueOutOfSequence,
			AtBatID: ab.AtBatID,
			Count:   ab.Counts.OutOfSequence,
			Detail:  fmt.Sprintf("%d pfx records break ball/strike order", ab.Counts.OutOfSequence),
		})
	}
	switch ab.Category {
	case combined.CategoryInvalid:
		out = append(out, combined.Issue{
			Kind:    combined.IssueInvalidAtBat,
			AtBatID: ab.AtBatID,
			Count:   ab.Counts.Invalid,
			Detail:  "pfx batter or pitcher does not match the play-by-play",
		})
	case combined.CategoryInvalidIntentionalWalk:
		out = append(out, combined.Issue{
			Kind:    combined.IssueInvalidAtBat,
			AtBatID: ab.AtBatID,
			Count:   ab.Counts.Invalid,
			Detail:  "pfx records found for an at-bat without pitches",
		})
	case combined.CategoryMissingPitches, combined.CategoryExtraPitches:
		out = append(out, combined.Issue{
			Kind:    combined.IssuePitchCountMismatch,
			AtBatID: ab.AtBatID,
			Count:   ab.Counts.Residual(),
			Detail:  fmt.Sprintf("play-by-play has %d pitches, pfx has %d", ab.PBPPitchCount, ab.PBPPitchCount-ab.Counts.Missing+ab.Counts.Extra),
		})
	}
	if n := len(ab.SuspectedSwaps); n > 0 {
		out = append(out, combined.Issue{
			Kind:    combined.IssueSuspectedSwap,
			AtBatID: ab.AtBatID,
			Count:   n,
			Detail:  fmt.Sprintf("pitches %v paired with implausible pfx records", ab.SuspectedSwaps),
		})
	}
	return out
}

// checkArithmetic verifies the two identities every record must satisfy:
//
//	complete + patched + missing = boxscore pitch count (per pitcher and total)
//	complete + patched + extra + duplicates + invalid + orphans = pfx records
func checkArithmetic(box scrape.Boxscore, rec combined.GameRecord, telemetryRecords int) error {
	for _, pa := range rec.Pitchers {
		if got := pa.Counts.PlayByPlay(); got != pa.BoxscorePitchCount {
			return crerr.Wrapf(ErrAuditArithmetic,
				"game %s pitcher %d: play-by-play accounts for %d pitches, boxscore reports %d",
				box.GameID, pa.PitcherID, got, pa.BoxscorePitchCount)
		}
	}
	a := rec.Audit
	if got := a.Pitches.PlayByPlay(); got != a.BoxscorePitchCount {
		return crerr.Wrapf(ErrAuditArithmetic,
			"game %s: play-by-play accounts for %d pitches, boxscore reports %d",
			box.GameID, got, a.BoxscorePitchCount)
	}
	if got := a.Pitches.Telemetry() + a.OrphanCount; got != telemetryRecords {
		return crerr.Wrapf(ErrAuditArithmetic,
			"game %s: audit accounts for %d pfx records, stream has %d",
			box.GameID, got, telemetryRecords)
	}
	return nil
}
