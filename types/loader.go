package types

import "context"

// Loader is the contract between the cache and a backing source.
type Loader[K comparable, V any] interface {

	/*
		Load is called by GetOrLoad when the cache misses.
		1. Cache checks memory → key not found or expired
		2. Cache calls Load(key), once per key even under concurrent misses
		3. Loader fetches from DB/API
		4. Cache stores the result with the requested TTL
		5. Cache returns the value
	*/
	Load(ctx context.Context, key K) (V, error)
}

// LoaderFunc adapts a plain function to Loader.
type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

func (f LoaderFunc[K, V]) Load(ctx context.Context, key K) (V, error) {
	return f(ctx, key)
}
