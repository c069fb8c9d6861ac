package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"fraudguard/internal/config"
	"fraudguard/internal/model"
)

// Archive persists every scored transaction and each suspicious case. It is
// best-effort: callers log failures and keep serving decisions.
type Archive interface {
	Init(ctx context.Context) error
	Close() error
	SaveRaw(ctx context.Context, txn model.Transaction, decision model.RiskDecision) error
	SaveSuspicious(ctx context.Context, c model.SuspiciousCase) error
}

func NewArchive(cfg config.StorageConfig) (Archive, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func encodeJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

// partition buckets a raw record by date and hour, derived from the event
// timestamp.
func partition(tsMs int64) (string, string) {
	t := time.UnixMilli(tsMs).UTC()
	return t.Format("2006-01-02"), t.Format("15")
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
