// ABOUTME: Time source for session expiry scheduling
// ABOUTME: Lets tests drive expiry timers with simulated time

package session

import "time"

// Timer is a cancelable scheduled callback
type Timer interface {
	Stop() bool
}

// Clock provides the current time and one-shot timers
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
