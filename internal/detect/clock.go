package detect

import "time"

// Clock supplies time to the poll loop. Tests inject a manual clock so no
// real sleeping happens.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock uses the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
