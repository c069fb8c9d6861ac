package state

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fraudguard/internal/model"
)

type postgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/fraudguard?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{db: db}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS user_state (
			user_id TEXT PRIMARY KEY,
			last_ts_ms BIGINT NOT NULL,
			last_country TEXT NOT NULL,
			rapid_count INTEGER NOT NULL,
			updated_at BIGINT NOT NULL
		)`)
	return err
}

func (s *postgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *postgresStore) Get(ctx context.Context, userID string) (model.UserVelocityState, error) {
	var st model.UserVelocityState
	err := s.db.QueryRowContext(ctx,
		`SELECT last_ts_ms, last_country, rapid_count, updated_at FROM user_state WHERE user_id = $1`,
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

func (s *postgresStore) Put(ctx context.Context, userID string, st model.UserVelocityState) error {
	if userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_state (user_id, last_ts_ms, last_country, rapid_count, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			last_ts_ms = EXCLUDED.last_ts_ms,
			last_country = EXCLUDED.last_country,
			rapid_count = EXCLUDED.rapid_count,
			updated_at = EXCLUDED.updated_at`,
		userID, st.LastTimestampMs, st.LastCountry, st.RapidCount, st.UpdatedAt,
	)
	return err
}
