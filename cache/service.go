package cache

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
)

// KeySerializer builds a cache key from an entity namespace + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// Cache is the key-value capability the stores consume. Values are opaque bytes;
// a missing key is reported with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// PrefixInvalidator is implemented by caches that can drop every entry of a
// key namespace at once. The sturdyc-backed service returned by
// NewCacheService implements it.
type PrefixInvalidator interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetValue decodes the entry stored under key.
func GetValue[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var zero T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	var out T
	if err := msgpack.Unmarshal(raw, &out); err != nil {
		return zero, false, err
	}
	return out, true, nil
}

// SetValue encodes value and stores it under key.
func SetValue[T any](ctx context.Context, c Cache, key string, value T) error {
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw)
}
