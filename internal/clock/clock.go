// internal/clock/clock.go
package clock

import "time"

// Clock abstracts time retrieval so scheduling and snapshot dating are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Real returns the actual current time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }
