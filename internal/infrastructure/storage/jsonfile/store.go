// Package jsonfile reads scraped inputs from and writes combined records to
// a directory tree of JSON files:
//
//	<root>/<season>/<data set>/<url id>.json
package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

const fileExt = ".json"

type validatable interface {
	Validate() error
}

// Store is a file-backed input source. It is safe for concurrent use as long
// as no two goroutines save the same input at once.
type Store struct {
	root     string
	validate *validator.Validate
}

func NewStore(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, crerr.New("jsonfile: root directory is required")
	}
	return &Store{root: root, validate: validator.New()}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Path returns where the input identified by ds and urlID lives.
func (s *Store) Path(ds scrape.DataSet, urlID string) (string, error) {
	year, err := seasonOf(ds, urlID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, strconv.Itoa(year), string(ds), urlID+fileExt), nil
}

func seasonOf(ds scrape.DataSet, urlID string) (int, error) {
	switch ds {
	case scrape.DataSetDayIndex:
		date, err := time.Parse(scrape.DateLayout, urlID)
		if err != nil {
			return 0, crerr.Wrapf(gameid.ErrMalformedIdentifier, "day index url id %q", urlID)
		}
		return date.Year(), nil
	case scrape.DataSetBoxscore, scrape.DataSetPitchLogs:
		id, err := gameid.ParseCompact(urlID)
		if err != nil {
			return 0, err
		}
		return id.Season(), nil
	case scrape.DataSetPitchFX:
		app, err := gameid.ParsePitchAppID(urlID)
		if err != nil {
			return 0, err
		}
		return app.Game.Season(), nil
	default:
		return 0, crerr.Newf("jsonfile: unknown data set %q", ds)
	}
}

func (s *Store) DayIndex(ctx context.Context, date time.Time) (scrape.DayIndex, bool, error) {
	var out scrape.DayIndex
	found, err := s.load(ctx, scrape.DataSetDayIndex, date.Format(scrape.DateLayout), &out)
	return out, found, err
}

func (s *Store) Boxscore(ctx context.Context, gameID string) (scrape.Boxscore, bool, error) {
	var out scrape.Boxscore
	found, err := s.load(ctx, scrape.DataSetBoxscore, gameID, &out)
	return out, found, err
}

func (s *Store) PitchLogs(ctx context.Context, gameID string) (scrape.PitchLogSet, bool, error) {
	var out scrape.PitchLogSet
	found, err := s.load(ctx, scrape.DataSetPitchLogs, gameID, &out)
	return out, found, err
}

func (s *Store) PitchFX(ctx context.Context, pitchAppID string) (scrape.PitchFXStream, bool, error) {
	var out scrape.PitchFXStream
	found, err := s.load(ctx, scrape.DataSetPitchFX, pitchAppID, &out)
	return out, found, err
}

// ScrapedDates lists the dates of year that have a day index file, oldest
// first. Files whose name is not a date are ignored.
func (s *Store) ScrapedDates(_ context.Context, year int) ([]time.Time, error) {
	dir := filepath.Join(s.root, strconv.Itoa(year), string(scrape.DataSetDayIndex))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, crerr.Wrapf(err, "list %s", dir)
	}

	out := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		date, err := time.Parse(scrape.DateLayout, strings.TrimSuffix(name, fileExt))
		if err != nil || date.Year() != year {
			continue
		}
		out = append(out, date)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Save writes in to its path, replacing any earlier copy.
func (s *Store) Save(ctx context.Context, in scrape.Input) error {
	path, err := s.Path(in.DataSet(), in.URLID())
	if err != nil {
		return err
	}
	return writeJSON(ctx, path, in)
}

func (s *Store) load(ctx context.Context, ds scrape.DataSet, urlID string, out validatable) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.Path(ds, urlID)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, crerr.Wrapf(err, "read %s", path)
	}
	if err := sonic.ConfigStd.Unmarshal(data, out); err != nil {
		return false, crerr.Wrapf(scrape.ErrInvalid, "decode %s: %v", path, err)
	}
	if err := s.validate.StructCtx(ctx, out); err != nil {
		return false, crerr.Wrapf(scrape.ErrInvalid, "%s: %v", path, err)
	}
	if err := out.Validate(); err != nil {
		return false, crerr.Wrapf(err, "%s", path)
	}
	return true, nil
}
