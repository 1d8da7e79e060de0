package types

import "time"

// TimeUnit qualifies the integer ttl passed to Put.
// The zero value is Unspecified; a Put carrying it is dropped.
type TimeUnit int

const (
	Unspecified TimeUnit = iota
	Nanoseconds
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

var unitDurations = [...]time.Duration{ //nolint:gochecknoglobals
	Nanoseconds:  time.Nanosecond,
	Microseconds: time.Microsecond,
	Milliseconds: time.Millisecond,
	Seconds:      time.Second,
	Minutes:      time.Minute,
	Hours:        time.Hour,
	Days:         24 * time.Hour,
}

var unitNames = [...]string{ //nolint:gochecknoglobals
	Unspecified:  "unspecified",
	Nanoseconds:  "ns",
	Microseconds: "us",
	Milliseconds: "ms",
	Seconds:      "s",
	Minutes:      "m",
	Hours:        "h",
	Days:         "d",
}

// Valid reports whether u names a real unit.
func (u TimeUnit) Valid() bool {
	return u > Unspecified && u <= Days
}

/*
Duration converts ttl expressed in u into a time.Duration.

It returns false when:
  - u is Unspecified or out of range
  - ttl is not positive
  - the result would overflow time.Duration
*/
func (u TimeUnit) Duration(ttl int) (time.Duration, bool) {
	if !u.Valid() || ttl <= 0 {
		return 0, false
	}

	step := unitDurations[u]
	if int64(ttl) > int64(1<<63-1)/int64(step) {
		return 0, false
	}

	return time.Duration(ttl) * step, true
}

func (u TimeUnit) String() string {
	if u < Unspecified || u > Days {
		return "invalid"
	}

	return unitNames[u]
}

// ParseTimeUnit maps the short names produced by String back to a unit.
// Unknown names yield Unspecified.
func ParseTimeUnit(s string) TimeUnit {
	for u := Nanoseconds; u <= Days; u++ {
		if unitNames[u] == s {
			return u
		}
	}

	return Unspecified
}
