package state

import (
	"context"
	"sync"

	"fraudguard/internal/model"
)

// Memory is the in-process store used for tests and single-node runs.
type Memory struct {
	mu    sync.RWMutex
	users map[string]model.UserVelocityState
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]model.UserVelocityState)}
}

func (m *Memory) Init(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) Get(ctx context.Context, userID string) (model.UserVelocityState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID], nil
}

func (m *Memory) Put(ctx context.Context, userID string, st model.UserVelocityState) error {
	if userID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = st
	return nil
}
