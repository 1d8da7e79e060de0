package types

import "time"

// Entry is what the store keeps for one key.
// An Entry is never mutated after it is stored; an overwrite replaces the pointer.
// Compare-and-remove relies on that pointer identity.
type Entry[V any] struct {
	Value    V
	ExpireAt time.Time
}

// ExpiredAt reports whether the entry is no longer visible at now.
// An entry expiring exactly at now is treated as expired.
func (e *Entry[V]) ExpiredAt(now time.Time) bool {
	return !e.ExpireAt.After(now)
}
