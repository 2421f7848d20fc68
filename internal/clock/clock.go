// Package clock abstracts the time operations the refresh scheduler needs so
// tests can drive cadence and elapsed time deterministically.
//
// Production code uses Real(). Tests use Fake, advance it explicitly and use
// WaitForTimers to avoid racing the goroutine that registers a timer:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go a.Run(ctx)
//	c.WaitForTimers(1)
//	c.Advance(3 * time.Second)
package clock

import "time"

type Clock interface {
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
