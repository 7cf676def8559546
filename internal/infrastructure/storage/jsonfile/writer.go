package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/a-luna/vigorish-sub003/internal/domain/combined"
	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
)

const combinedDataSet = "combined_game_data"

// CombinedWriter stores one file per combined record. Rewriting a game
// replaces the earlier file.
type CombinedWriter struct {
	root string
}

func NewCombinedWriter(root string) *CombinedWriter {
	return &CombinedWriter{root: root}
}

func (w *CombinedWriter) Path(gameID string) (string, error) {
	id, err := gameid.ParseCompact(gameID)
	if err != nil {
		return "", err
	}
	return filepath.Join(w.root, strconv.Itoa(id.Season()), combinedDataSet, gameID+fileExt), nil
}

func (w *CombinedWriter) WriteCombined(ctx context.Context, rec combined.GameRecord) error {
	path, err := w.Path(rec.GameID)
	if err != nil {
		return err
	}
	return writeJSON(ctx, path, rec)
}

// ReadCombined loads a record written by WriteCombined.
func (w *CombinedWriter) ReadCombined(_ context.Context, gameID string) (combined.GameRecord, bool, error) {
	path, err := w.Path(gameID)
	if err != nil {
		return combined.GameRecord{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return combined.GameRecord{}, false, nil
		}
		return combined.GameRecord{}, false, crerr.Wrapf(err, "read %s", path)
	}
	var rec combined.GameRecord
	if err := sonic.ConfigStd.Unmarshal(data, &rec); err != nil {
		return combined.GameRecord{}, false, crerr.Wrapf(err, "decode %s", path)
	}
	return rec, true, nil
}

// writeJSON encodes v into a pooled buffer and swaps it into place through a
// temp file in the same directory.
func writeJSON(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	enc := sonic.ConfigStd.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return crerr.Wrapf(err, "encode %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return crerr.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*"+fileExt)
	if err != nil {
		return crerr.Wrapf(err, "create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.B); err != nil {
		_ = tmp.Close()
		return crerr.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return crerr.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return crerr.Wrapf(err, "rename into %s", path)
	}
	return nil
}
