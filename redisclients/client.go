package redisclients

import (
	"context"
)

const (
	TypeNone   = "none"
	TypeString = "string"
)

type RedisClient interface {
	// Read returns the type of the value stored under key and, for strings, its bytes
	Read(ctx context.Context, key string) (Value, error)
	// Update watches keys, reads their values and passes them to fn in the same order.
	// A non-nil slice returned by fn is written to the first key in a MULTI/EXEC block,
	// which is retried when a watched key changes in between.
	Update(ctx context.Context, fn func(values []Value) ([]byte, error), keys ...string) error
	Delete(ctx context.Context, key string) error
}

type Value struct {
	Key  string
	Type string
	Data []byte
}
