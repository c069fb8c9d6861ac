package decisions

import (
	"sync"
	"time"

	"fraudguard/internal/model"
)

// record pairs a decision with the time it was made, for the since filter.
type record struct {
	Decision model.RiskDecision
	At       time.Time
}

// Store keeps the most recent decisions in a bounded ring for the API.
type Store struct {
	mu    sync.RWMutex
	buf   []record
	limit int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{limit: limit}
}

func (s *Store) Add(d model.RiskDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := record{Decision: d, At: time.Now().UTC()}
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, rec)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = rec
}

func (s *Store) List(limit int) []model.RiskDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]model.RiskDecision, 0, limit)
	start := len(s.buf) - limit
	if start < 0 {
		start = 0
	}
	for i := start; i < len(s.buf); i++ {
		out = append(out, s.buf[i].Decision)
	}
	return out
}

func (s *Store) Since(ts time.Time) []model.RiskDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RiskDecision, 0)
	for _, rec := range s.buf {
		if !rec.At.Before(ts) {
			out = append(out, rec.Decision)
		}
	}
	return out
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}
