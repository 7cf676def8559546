package reconcile

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/a-luna/vigorish-sub003/internal/domain/pitchseq"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

func record(index, ordinal, balls, strikes int, ts string) telemetry {
	return newTelemetry(scrape.PitchFXRecord{
		PitcherID: 1,
		BatterID:  2,
		Inning:    1,
		AtBatKey:  7,
		Ordinal:   ordinal,
		Balls:     balls,
		Strikes:   strikes,
		PitchType: "SL",
		ParkSvID:  ts,
	}, index, 1)
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	records := []telemetry{
		record(0, 1, 0, 0, "190530_190000"),
		record(1, 1, 0, 0, "190530_190002"),
		record(2, 2, 0, 1, "190530_190030"),
		record(3, 3, 0, 1, "190530_190100"),
		record(4, 2, 0, 1, ""),
	}
	sortGroup(records)
	kept, dups := dedupe(records, 2*time.Second)

	var keptIdx, dupIdx []int
	for _, k := range kept {
		keptIdx = append(keptIdx, k.pitch.EmissionIndex)
	}
	for _, d := range dups {
		dupIdx = append(dupIdx, d.pitch.EmissionIndex)
		if !d.pitch.DuplicateRemoved {
			t.Fatalf("record %d should be marked duplicate-removed", d.pitch.EmissionIndex)
		}
	}
	// 1 restates 0 within the window; 4 has no timestamp but repeats ordinal 2;
	// 3 shares 2's count but was thrown 30s later.
	if diff := cmp.Diff([]int{0, 2, 3}, keptIdx); diff != "" {
		t.Fatalf("kept mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 4}, dupIdx); diff != "" {
		t.Fatalf("duplicates mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkOutOfSequence(t *testing.T) {
	t.Parallel()

	kept := []telemetry{
		record(0, 1, 0, 0, ""),
		record(1, 2, 1, 0, ""),
		record(2, 3, 0, 1, ""),
		record(3, 4, 1, 1, ""),
	}
	markOutOfSequence(kept)

	var flagged []int
	for _, k := range kept {
		if k.pitch.OutOfSequence {
			flagged = append(flagged, k.pitch.EmissionIndex)
		}
	}
	if diff := cmp.Diff([]int{2}, flagged); diff != "" {
		t.Fatalf("out-of-sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestAlign(t *testing.T) {
	t.Parallel()

	seq, err := pitchseq.Parse("BBCFX")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	pbp := seq.Pitches()

	cases := []struct {
		name string
		kept []telemetry
		want []pair
	}{
		{
			name: "missing middle pitch",
			kept: []telemetry{
				record(0, 1, 0, 0, ""),
				record(1, 2, 1, 0, ""),
				record(2, 4, 2, 1, ""),
				record(3, 5, 2, 2, ""),
			},
			want: []pair{{0, 0}, {1, 1}, {3, 2}, {4, 3}},
		},
		{
			name: "counts inconsistent falls back to positions",
			kept: []telemetry{
				record(0, 1, 3, 2, ""),
				record(1, 2, 3, 2, ""),
			},
			want: []pair{{0, 0}, {1, 1}},
		},
	}
	for _, tc := range cases {
		got := align(pbp, tc.kept)
		if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(pair{})); diff != "" {
			t.Fatalf("%s: pairs mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}
