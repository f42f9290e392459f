package cache

import (
	"context"
	"fmt"
)

// Query is Read with a typed fetcher.
func Query[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error), opts ...ReadOption) (T, error) {
	v, err := c.Read(ctx, key, func(ctx context.Context) (any, error) { return fetch(ctx) }, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: %s holds %T", key, v)
	}
	return out, nil
}

// Get is Peek with a type assertion.
func Get[T any](c *Cache, key Key) (T, bool) {
	v, ok := c.Peek(key)
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// PatchOf patches key when it holds a T. fn must not modify its argument in place.
func PatchOf[T any](c *Cache, key Key, fn func(T) T) Snapshot {
	return c.Patch(key, func(old any, ok bool) (any, bool) {
		v, typed := old.(T)
		if !ok || !typed {
			return nil, false
		}
		return fn(v), true
	})
}

// PatchPrefixOf patches every entry under prefix that holds a T.
func PatchPrefixOf[T any](c *Cache, prefix Key, fn func(Key, T) T) Snapshot {
	return c.PatchPrefix(prefix, func(k Key, old any) (any, bool) {
		v, ok := old.(T)
		if !ok {
			return nil, false
		}
		return fn(k, v), true
	})
}
