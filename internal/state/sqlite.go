package state

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "modernc.org/sqlite"

	"fraudguard/internal/model"
)

type sqliteStore struct {
	db *sql.DB
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:fraudguard.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS user_state (
			user_id TEXT PRIMARY KEY,
			last_ts_ms INTEGER NOT NULL,
			last_country TEXT NOT NULL,
			rapid_count INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	return err
}

func (s *sqliteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, userID string) (model.UserVelocityState, error) {
	var st model.UserVelocityState
	err := s.db.QueryRowContext(ctx,
		`SELECT last_ts_ms, last_country, rapid_count, updated_at FROM user_state WHERE user_id = ?`,
		userID,
	).Scan(&st.LastTimestampMs, &st.LastCountry, &st.RapidCount, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserVelocityState{}, nil
	}
	if err != nil {
		return model.UserVelocityState{}, err
	}
	return st, nil
}

func (s *sqliteStore) Put(ctx context.Context, userID string, st model.UserVelocityState) error {
	if userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_state (user_id, last_ts_ms, last_country, rapid_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			last_ts_ms = excluded.last_ts_ms,
			last_country = excluded.last_country,
			rapid_count = excluded.rapid_count,
			updated_at = excluded.updated_at`,
		userID, st.LastTimestampMs, st.LastCountry, st.RapidCount, st.UpdatedAt,
	)
	return err
}
