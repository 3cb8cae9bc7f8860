package lease

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// releaseScript deletes the key only if it still carries our token, so an
// expired lease never frees a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by SET NX PX.
type Redis struct {
	client redis.UniversalClient
	log    *slog.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, log: logger.With(slog.String("component", "lease"))}
}

// Dial parses a Redis URL, connects, and verifies the connection with a ping.
func Dial(ctx context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	options.PoolSize = 2
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	logger.Info("redis client connected", slog.String("addr", options.Addr))
	return client, nil
}

// Acquire sets key to a fresh token if it is unset.
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring lease %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	r.log.Debug("lease acquired", slog.String("key", key), slog.Duration("ttl", ttl))
	return &redisLease{client: r.client, key: key, token: token}, nil
}

type redisLease struct {
	client   redis.UniversalClient
	key      string
	token    string
	released bool
}

func (l *redisLease) Release(ctx context.Context) error {
	if l.released {
		return nil
	}
	l.released = true
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("releasing lease %s: %w", l.key, err)
	}
	return nil
}
