package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("*").
		From("status_games").
		Where(Eq("game_date", "2019-05-30"), Eq("label", "successful")).
		OrderBy("bbref_game_id").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM status_games WHERE game_date = $1 AND label = $2 ORDER BY bbref_game_id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "2019-05-30" || args[1] != "successful" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilderMultiRow(t *testing.T) {
	query, args, err := InsertInto("status_applied_sources").
		Columns("scope_id", "source_id").
		Values("game:TOR201905300", "boxscore:abc").
		Values("game:TOR201905300", "pitch_logs:def").
		Suffix("ON CONFLICT (scope_id, source_id) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO status_applied_sources (scope_id, source_id) VALUES ($1, $2), ($3, $4) ON CONFLICT (scope_id, source_id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[3] != "pitch_logs:def" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilderRejectsShortRow(t *testing.T) {
	_, _, err := InsertInto("status_applied_sources").
		Columns("scope_id", "source_id").
		Values("game:TOR201905300").
		ToSQL()
	if err == nil {
		t.Fatalf("expected error for row shorter than column list")
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("status_pitch_apps").
		Where(Eq("bbref_game_id", "TOR201905300")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM status_pitch_apps WHERE bbref_game_id = $1"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "TOR201905300" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("status_pitch_apps").ToSQL(); err == nil {
		t.Fatalf("expected error for unconditional delete")
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		GameID string `db:"bbref_game_id"`
		Label  string `db:"label"`
		skip   string
		Note   string `db:"-"`
	}

	query, args, err := InsertModel("status_games", row{GameID: "TOR201905300", Label: "successful"}, "ON CONFLICT (bbref_game_id) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO status_games (bbref_game_id, label) VALUES ($1, $2) ON CONFLICT (bbref_game_id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModel("status_games", struct{}{}, ""); err == nil {
		t.Fatalf("expected error for model without db columns")
	}
}

type PitchColumns struct {
	Complete int `db:"pitches_complete"`
	Missing  int `db:"pitches_missing"`
}

func TestColumnsAndValuesFlattensEmbedded(t *testing.T) {
	type row struct {
		PitchAppID string `db:"pitch_app_id"`
		PitchColumns
		Ignored string
		Skipped string `db:"-"`
	}

	cols, vals, err := ColumnsAndValues(row{PitchAppID: "TOR201905300_500001", PitchColumns: PitchColumns{Complete: 70, Missing: 2}})
	if err != nil {
		t.Fatalf("columns and values: %v", err)
	}
	wantCols := []string{"pitch_app_id", "pitches_complete", "pitches_missing"}
	if len(cols) != len(wantCols) {
		t.Fatalf("unexpected columns: %+v", cols)
	}
	for i := range wantCols {
		if cols[i] != wantCols[i] {
			t.Fatalf("unexpected columns: %+v", cols)
		}
	}
	if vals[1] != 70 || vals[2] != 2 {
		t.Fatalf("unexpected values: %+v", vals)
	}
}
