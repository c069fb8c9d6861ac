package decisions

import (
	"sync"

	"fraudguard/internal/model"
)

// CaseStore keeps the most recent suspicious cases in a bounded ring.
type CaseStore struct {
	mu    sync.RWMutex
	buf   []model.SuspiciousCase
	limit int
}

func NewCaseStore(limit int) *CaseStore {
	if limit <= 0 {
		limit = 1000
	}
	return &CaseStore{limit: limit}
}

func (s *CaseStore) Add(c model.SuspiciousCase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, c)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = c
}

func (s *CaseStore) List(limit int) []model.SuspiciousCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]model.SuspiciousCase, 0, limit)
	start := len(s.buf) - limit
	if start < 0 {
		start = 0
	}
	for i := start; i < len(s.buf); i++ {
		out = append(out, s.buf[i])
	}
	return out
}

func (s *CaseStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}
