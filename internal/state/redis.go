package state

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"fraudguard/internal/model"
)

type redisStore struct {
	client *redis.Client
}

// NewRedis builds a redis-backed store from a redis:// DSN. Each user's
// state lives in one hash so Get and Put stay single round trips.
func NewRedis(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, err
	}
	return &redisStore{client: redis.NewClient(opts)}, nil
}

func (s *redisStore) Init(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func stateKey(userID string) string {
	return "velocity:" + userID
}

func (s *redisStore) Get(ctx context.Context, userID string) (model.UserVelocityState, error) {
	fields, err := s.client.HGetAll(ctx, stateKey(userID)).Result()
	if err != nil {
		return model.UserVelocityState{}, err
	}
	if len(fields) == 0 {
		return model.UserVelocityState{}, nil
	}
	var st model.UserVelocityState
	st.LastTimestampMs, _ = strconv.ParseInt(fields["last_ts_ms"], 10, 64)
	st.LastCountry = fields["last_country"]
	if n, err := strconv.Atoi(fields["rapid_count"]); err == nil {
		st.RapidCount = n
	}
	st.UpdatedAt, _ = strconv.ParseInt(fields["updated_at"], 10, 64)
	return st, nil
}

func (s *redisStore) Put(ctx context.Context, userID string, st model.UserVelocityState) error {
	if userID == "" {
		return nil
	}
	return s.client.HSet(ctx, stateKey(userID),
		"last_ts_ms", st.LastTimestampMs,
		"last_country", st.LastCountry,
		"rapid_count", st.RapidCount,
		"updated_at", st.UpdatedAt,
	).Err()
}
