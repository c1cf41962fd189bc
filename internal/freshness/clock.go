package freshness

import "time"

// Clock is injectable so TTL behaviour can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
