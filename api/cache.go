package cache

import (
	"context"
	"time"

	"github.com/krisalay/expiry-cache/types"
)

/*
Cache defines the PUBLIC API of the expiry cache.
This is a contract that guarantees certain behaviors, without exposing internals.
Sharding, the sweep policy and the background sweeper are hidden behind it,
so both policies are interchangeable wherever a Cache is expected.
*/
type Cache[K comparable, V any] interface {

	/*
		Put stores a key-value pair for ttl units of unit.

		BEHAVIOR:
		---------
		- Overwrites any previous value and expiry of the key
		- ttl <= 0 or an unspecified unit: does nothing, silently
	*/
	Put(key K, value V, ttl int, unit types.TimeUnit)

	// PutWithTTL is Put with a time.Duration.
	PutWithTTL(key K, value V, ttl time.Duration)

	/*
		Get retrieves the value associated with the given key.

		BEHAVIOR:
		-------------------
		1. If the key exists and is NOT expired:
		   - Return the value and true
		2. If the key exists but is expired:
		   - Remove it and return false
		3. If the key does NOT exist:
		   - Return false
	*/
	Get(key K) (V, bool)

	/*
		GetOrLoad is Get with a read-through fallback.
		On a miss the configured loader is called once per key, and the result is stored for ttl.
	*/
	GetOrLoad(ctx context.Context, key K, ttl time.Duration) (V, error)

	/*
		Remove deletes a key from the cache immediately.

		This operation is idempotent:
		- Removing a non-existing key is safe
	*/
	Remove(key K)

	/*
		TTL returns the remaining time-to-live for a key.
		The boolean is false if the key does not exist or is already expired.
	*/
	TTL(key K) (time.Duration, bool)

	// Len returns how many entries are physically stored, expired ones included.
	Len() int

	/*
		Close stops the background sweeper.

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close()
}
