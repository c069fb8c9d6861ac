package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"fraudguard/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Archive, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:fraudguard.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS raw_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			txn_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			amount REAL NOT NULL,
			currency TEXT NOT NULL,
			merchant TEXT NOT NULL,
			mcc TEXT,
			channel TEXT NOT NULL,
			country TEXT NOT NULL,
			city TEXT NOT NULL,
			device_id TEXT NOT NULL,
			ts_ms INTEGER NOT NULL,
			ts_utc TEXT NOT NULL,
			dt TEXT NOT NULL,
			hour TEXT NOT NULL,
			risk REAL NOT NULL,
			rules_json TEXT NOT NULL,
			alert_sent INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_txn_dt_hour ON raw_transactions(dt, hour)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_txn_user ON raw_transactions(user_id)`,
		`CREATE TABLE IF NOT EXISTS suspicious_cases (
			txn_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			amount REAL NOT NULL,
			currency TEXT NOT NULL,
			merchant TEXT NOT NULL,
			country TEXT NOT NULL,
			city TEXT NOT NULL,
			device_id TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			risk_score REAL NOT NULL,
			explanation_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_suspicious_user ON suspicious_cases(user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveRaw(ctx context.Context, txn model.Transaction, decision model.RiskDecision) error {
	if s.db == nil {
		return nil
	}
	dt, hour := partition(txn.TimestampMs)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO raw_transactions (txn_id, user_id, amount, currency, merchant, mcc, channel, country, city, device_id, ts_ms, ts_utc, dt, hour, risk, rules_json, alert_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.TxnID,
		txn.UserID,
		txn.Amount,
		txn.Currency,
		txn.Merchant,
		txn.MCC,
		txn.Channel,
		txn.Country,
		txn.City,
		txn.DeviceID,
		txn.TimestampMs,
		txn.TimestampUTC,
		dt,
		hour,
		decision.Risk,
		encodeJSON(decision.Rules),
		decision.AlertSent,
		nowUTC(),
	)
	return err
}

func (s *sqliteStore) SaveSuspicious(ctx context.Context, c model.SuspiciousCase) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO suspicious_cases (txn_id, user_id, amount, currency, merchant, country, city, device_id, timestamp_ms, risk_score, explanation_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.TxnID,
		c.UserID,
		c.Amount,
		c.Currency,
		c.Merchant,
		c.Country,
		c.City,
		c.DeviceID,
		c.TimestampMs,
		c.RiskScore,
		encodeJSON(c.Explanation),
		c.CreatedAt,
	)
	return err
}
