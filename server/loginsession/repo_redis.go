package loginsession

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/jrsteele09/calzado-portal/session"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix       = "calzado:login_session:"
	accessField     = "access_token"
	refreshField    = "refresh_token"
	dialTimeout     = 3 * time.Second
	readTimeout     = 2 * time.Second
	writeTimeout    = 2 * time.Second
	pingTimeout     = 2 * time.Second
	defaultPoolSize = 10
)

var _ Repo = (*RedisLoginSessionRepo)(nil)

// RedisLoginSessionRepo keeps each pair in one hash so both halves are written,
// expired and deleted together.
type RedisLoginSessionRepo struct {
	client *redis.Client
}

func NewRedisLoginSessionRepo(client *redis.Client) *RedisLoginSessionRepo {
	return &RedisLoginSessionRepo{client: client}
}

// NewRedisClient parses redisURL, sizes the pool and pings the server before returning.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewRedisClient] invalid redis url")
	}
	options.PoolSize = defaultPoolSize
	options.MinIdleConns = 2
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "[NewRedisClient] ping failed")
	}

	log.Info().Str("addr", options.Addr).Int("pool_size", options.PoolSize).Msg("redis client connected")
	return client, nil
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *RedisLoginSessionRepo) Upsert(ctx context.Context, sessionID string, pair session.TokenPair) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if !pair.Complete() {
		return apperrors.ErrIncompletePair
	}
	ttl, err := pairTTL(pair)
	if err != nil {
		return err
	}

	key := sessionKey(sessionID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, accessField, pair.Access, refreshField, pair.Refresh)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[Upsert] redis login session write failed")
	}
	return nil
}

func (r *RedisLoginSessionRepo) Get(ctx context.Context, sessionID string) (session.TokenPair, error) {
	if sessionID == "" {
		return session.TokenPair{}, fmt.Errorf("sessionID is required")
	}

	fields, err := r.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return session.TokenPair{}, errors.Wrap(err, "[Get] redis login session read failed")
	}
	if len(fields) == 0 {
		return session.TokenPair{}, apperrors.ErrNoTokens
	}

	pair := session.TokenPair{Access: fields[accessField], Refresh: fields[refreshField]}
	if !pair.Complete() {
		return pair, apperrors.ErrIncompletePair
	}
	return pair, nil
}

func (r *RedisLoginSessionRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "[Delete] redis login session delete failed")
	}
	return nil
}
