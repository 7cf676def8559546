package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/a-luna/vigorish-sub003/internal/config"
	"github.com/a-luna/vigorish-sub003/internal/platform/logging"
)

func TestNewWithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.DataDir = dir
	cfg.CombinedDir = dir
	cfg.PatchDir = filepath.Join(dir, "patches")
	cfg.MetricsTextfile = filepath.Join(dir, "vig.prom")

	a, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if a.Patches.Len() != 0 {
		t.Fatalf("expected empty patch registry, got %d", a.Patches.Len())
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("close app: %v", err)
	}
	if _, err := os.Stat(cfg.MetricsTextfile); err != nil {
		t.Fatalf("expected metrics textfile: %v", err)
	}
}

func TestNewRejectsEmptyDataDir(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataDir = ""

	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty data dir")
	}
}
