package state

import (
	"context"
	"errors"
	"strings"

	"fraudguard/internal/config"
	"fraudguard/internal/model"
)

// Store holds per-user velocity state. Get returns the zero state for an
// unknown user. The read-modify-write cycle around it is not atomic: two
// concurrent transactions for one user race and the later Put wins.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	Get(ctx context.Context, userID string) (model.UserVelocityState, error)
	Put(ctx context.Context, userID string, st model.UserVelocityState) error
}

func NewStore(cfg config.StateConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	case "redis":
		return NewRedis(cfg.DSN)
	default:
		return nil, errors.New("unsupported state driver")
	}
}
