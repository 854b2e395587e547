package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisCredentialRepository implements [CredentialStore] on a redis server, for profiles shared
// between machines (kiosks, CI runners). Keys are namespaced as "<prefix>:credential:<key>".
type RedisCredentialRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCredentialRepository creates a new [RedisCredentialRepository] using client.
func NewRedisCredentialRepository(client redis.UniversalClient, prefix string) *RedisCredentialRepository {
	return &RedisCredentialRepository{client: client, prefix: strings.TrimSuffix(prefix, ":")}
}

func (r *RedisCredentialRepository) Name() string { return "redis" }

func (r *RedisCredentialRepository) key(key string) string {
	if r.prefix == "" {
		return "credential:" + key
	}
	return r.prefix + ":credential:" + key
}

// Save sets the value under key without expiry; the credential's own expiry is enforced by the session.
func (r *RedisCredentialRepository) Save(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return storageError("save", r.Name(), err)
	}
	return nil
}

func (r *RedisCredentialRepository) Load(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageError("load", r.Name(), err)
	}
	return value, true, nil
}

func (r *RedisCredentialRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return storageError("delete", r.Name(), err)
	}
	return nil
}

// Ping checks the server is reachable.
func (r *RedisCredentialRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return storageError("ping", r.Name(), err)
	}
	return nil
}
