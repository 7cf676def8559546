package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

// InputStore holds scraped inputs in process. Values are cloned on the way
// in and out so callers can never alias each other's copies.
type InputStore struct {
	mu        sync.RWMutex
	days      map[string]scrape.DayIndex
	boxscores map[string]scrape.Boxscore
	pitchLogs map[string]scrape.PitchLogSet
	pitchFX   map[string]scrape.PitchFXStream
}

func NewInputStore() *InputStore {
	return &InputStore{
		days:      make(map[string]scrape.DayIndex),
		boxscores: make(map[string]scrape.Boxscore),
		pitchLogs: make(map[string]scrape.PitchLogSet),
		pitchFX:   make(map[string]scrape.PitchFXStream),
	}
}

func (s *InputStore) PutDayIndex(idx scrape.DayIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[idx.URLID()] = idx.Clone()
}

func (s *InputStore) PutBoxscore(box scrape.Boxscore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxscores[box.GameID] = box.Clone()
}

func (s *InputStore) PutPitchLogs(logs scrape.PitchLogSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pitchLogs[logs.GameID] = logs.Clone()
}

func (s *InputStore) PutPitchFX(stream scrape.PitchFXStream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pitchFX[stream.PitchAppID] = stream.Clone()
}

func (s *InputStore) DayIndex(_ context.Context, date time.Time) (scrape.DayIndex, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.days[date.Format(scrape.DateLayout)]
	return item.Clone(), ok, nil
}

func (s *InputStore) Boxscore(_ context.Context, gameID string) (scrape.Boxscore, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.boxscores[gameID]
	return item.Clone(), ok, nil
}

func (s *InputStore) PitchLogs(_ context.Context, gameID string) (scrape.PitchLogSet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.pitchLogs[gameID]
	return item.Clone(), ok, nil
}

func (s *InputStore) PitchFX(_ context.Context, pitchAppID string) (scrape.PitchFXStream, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.pitchFX[pitchAppID]
	return item.Clone(), ok, nil
}

func (s *InputStore) ScrapedDates(_ context.Context, year int) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]time.Time, 0)
	for _, idx := range s.days {
		if idx.Date.Year() == year {
			out = append(out, idx.Date)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
