package redisclients

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const DefaultMaxRetries = 10

type goRedisClient struct {
	client     redis.UniversalClient
	maxRetries int
}

// NewGoRedisClient wraps a go-redis client. With Redis Cluster every key passed
// to a single Update must hash to the same slot.
func NewGoRedisClient(client redis.UniversalClient) RedisClient {
	return NewGoRedisClientWithRetries(client, DefaultMaxRetries)
}

func NewGoRedisClientWithRetries(client redis.UniversalClient, maxRetries int) RedisClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &goRedisClient{client: client, maxRetries: maxRetries}
}

func (g *goRedisClient) Read(ctx context.Context, key string) (Value, error) {
	return read(ctx, g.client, key)
}

func (g *goRedisClient) Update(ctx context.Context, fn func(values []Value) ([]byte, error), keys ...string) error {
	if len(keys) == 0 {
		return errors.New("no keys to update")
	}
	txf := func(tx *redis.Tx) error {
		values := make([]Value, 0, len(keys))
		for _, key := range keys {
			v, readErr := read(ctx, tx, key)
			if readErr != nil {
				return readErr
			}
			values = append(values, v)
		}
		data, fnErr := fn(values)
		if fnErr != nil || data == nil {
			return fnErr
		}
		_, execErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keys[0], data, redis.KeepTTL)
			return nil
		})
		return execErr
	}

	for attempt := 0; attempt < g.maxRetries; attempt++ {
		err := g.client.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return errors.Wrapf(redis.TxFailedErr, "%d attempts to update %v failed", g.maxRetries, keys)
}

func (g *goRedisClient) Delete(ctx context.Context, key string) error {
	return g.client.Del(ctx, key).Err()
}

type valueReader interface {
	Type(ctx context.Context, key string) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

func read(ctx context.Context, r valueReader, key string) (Value, error) {
	keyType, typeErr := r.Type(ctx, key).Result()
	if typeErr != nil {
		return Value{}, errors.Wrapf(typeErr, "type of %q", key)
	}
	v := Value{Key: key, Type: keyType}
	if keyType != TypeString {
		return v, nil
	}
	data, getErr := r.Get(ctx, key).Bytes()
	if errors.Is(getErr, redis.Nil) {
		// expired or removed after TYPE
		v.Type = TypeNone
		return v, nil
	}
	if getErr != nil {
		return Value{}, errors.Wrapf(getErr, "get %q", key)
	}
	v.Data = data
	return v, nil
}

var _ RedisClient = &goRedisClient{}
