package payments

import "time"

// Clock abstracts wall-clock waits so the poller's interval and attempt
// budget are testable without real time passing
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// RealClock returns the wall clock
func RealClock() Clock {
	return realClock{}
}
