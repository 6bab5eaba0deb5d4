package bloom

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vkuptcov/bloomstore/redisclients"
)

// RedisStore keeps every filter in a Redis string value. Updates run in a
// WATCH/MULTI transaction, so concurrent writers to one key never lose bits.
type RedisStore struct {
	redisClient redisclients.RedisClient
}

func NewRedisStore(redisClient redisclients.RedisClient) *RedisStore {
	return &RedisStore{redisClient: redisClient}
}

func (r *RedisStore) Create(ctx context.Context, key string, size int, fn func(buf []byte) error) error {
	return r.redisClient.Update(ctx, func(values []redisclients.Value) ([]byte, error) {
		if t := values[0].Type; t != redisclients.TypeNone && t != redisclients.TypeString {
			return nil, errors.Wrapf(ErrWrongType, "key %q holds a %s", key, t)
		}
		buf := make([]byte, size)
		if err := fn(buf); err != nil {
			return nil, err
		}
		return buf, nil
	}, key)
}

func (r *RedisStore) View(ctx context.Context, key string, fn func(buf []byte) error) error {
	v, readErr := r.redisClient.Read(ctx, key)
	if readErr != nil {
		return errors.Wrap(readErr, "redis read failed")
	}
	if err := checkStringValue(v); err != nil {
		return err
	}
	return fn(v.Data)
}

func (r *RedisStore) Update(ctx context.Context, key string, fn func(buf []byte) error) error {
	return r.redisClient.Update(ctx, func(values []redisclients.Value) ([]byte, error) {
		if err := checkStringValue(values[0]); err != nil {
			return nil, err
		}
		if err := fn(values[0].Data); err != nil {
			return nil, err
		}
		return values[0].Data, nil
	}, key)
}

func (r *RedisStore) UpdateWith(ctx context.Context, dst, src string, fn func(dst, src []byte) error) error {
	return r.redisClient.Update(ctx, func(values []redisclients.Value) ([]byte, error) {
		for _, v := range values {
			if err := checkStringValue(v); err != nil {
				return nil, err
			}
		}
		if err := fn(values[0].Data, values[1].Data); err != nil {
			return nil, err
		}
		return values[0].Data, nil
	}, dst, src)
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return errors.Wrapf(r.redisClient.Delete(ctx, key), "redis delete %q failed", key)
}

func checkStringValue(v redisclients.Value) error {
	switch v.Type {
	case redisclients.TypeString:
		return nil
	case redisclients.TypeNone:
		return errors.Wrapf(ErrNotFound, "key %q", v.Key)
	default:
		return errors.Wrapf(ErrWrongType, "key %q holds a %s", v.Key, v.Type)
	}
}

var _ Store = &RedisStore{}
