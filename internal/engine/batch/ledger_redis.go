package batch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/logger"
)

// redisLedgerKey is the hash holding digest → entry JSON.
const redisLedgerKey = "jobclean:ledger"

// RedisLedger shares the processed-content ledger across hosts.
type RedisLedger struct {
	rdb *redis.Client
	key string
}

// OpenRedisLedger connects to redisURL, retrying transient dial failures.
func OpenRedisLedger(ctx context.Context, redisURL string) (*RedisLedger, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "ledger: invalid redis URL")
	}
	rdb := redis.NewClient(opts)
	_, err = engine.RetryDo(ctx, engine.DefaultRetryConfig, func() (struct{}, error) {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return struct{}{}, rdb.Ping(pctx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, "ledger: redis unreachable")
	}
	logger.Logger.Infow("redis ledger connected",
		logger.FieldComponent, "ledger",
		"addr", opts.Addr)
	return &RedisLedger{rdb: rdb, key: redisLedgerKey}, nil
}

// Seen reports whether digest was recorded before.
func (l *RedisLedger) Seen(ctx context.Context, digest string) (bool, error) {
	ok, err := l.rdb.HExists(ctx, l.key, digest).Result()
	if err != nil {
		return false, errors.Wrap(err, "ledger: hexists")
	}
	return ok, nil
}

// Record writes entries with a single HSET.
func (l *RedisLedger) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make(map[string]any, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return errors.Wrapf(err, "ledger: encode %s", e.File)
		}
		values[e.Digest] = data
	}
	return errors.Wrap(l.rdb.HSet(ctx, l.key, values).Err(), "ledger: hset")
}

// Size returns the number of recorded digests.
func (l *RedisLedger) Size(ctx context.Context) (int, error) {
	n, err := l.rdb.HLen(ctx, l.key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "ledger: hlen")
	}
	return int(n), nil
}

// Close closes the client.
func (l *RedisLedger) Close() error { return l.rdb.Close() }
