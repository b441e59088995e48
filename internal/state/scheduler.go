package state

import "time"

// Scheduler abstracts delayed execution so debounce behavior can be
// tested without wall-clock waits.
type Scheduler interface {
	// Schedule runs fn after d on an arbitrary goroutine. The returned
	// cancel stops the call and reports whether it had not yet fired.
	Schedule(d time.Duration, fn func()) (cancel func() bool)
}

// timerScheduler is the production Scheduler backed by time.AfterFunc.
type timerScheduler struct{}

// NewTimerScheduler returns the wall-clock scheduler.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) Schedule(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
