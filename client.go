package bloom

import (
	"context"
)

// Store owns the filter buffers. A view handed to a callback is only valid
// until the callback returns, and the store guarantees the callback exclusive
// access to every buffer it may modify.
type Store interface {
	// Create replaces the value under key with size zero bytes, lets fn fill
	// them and persists the result if fn succeeds.
	Create(ctx context.Context, key string, size int, fn func(buf []byte) error) error
	// View gives fn read access to the value under key.
	View(ctx context.Context, key string, fn func(buf []byte) error) error
	// Update gives fn write access to the value under key. Changes are
	// persisted only if fn succeeds.
	Update(ctx context.Context, key string, fn func(buf []byte) error) error
	// UpdateWith gives fn write access to dst and read access to src.
	UpdateWith(ctx context.Context, dst, src string, fn func(dst, src []byte) error) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
