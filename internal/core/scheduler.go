package core

import "time"

// Timer is a cancelable single-shot timer.
type Timer interface {
	// Stop reports whether the call prevented the timer from firing.
	Stop() bool
}

// Scheduler schedules single-shot callbacks. Tests swap it for a manual one.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler is backed by time.AfterFunc.
func RealScheduler() Scheduler { return realScheduler{} }
