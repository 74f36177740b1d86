// Package ticker provides the repeating timers behind the ringtone, the
// notification cues and the call duration counter.
package ticker

import (
	"sync"
	"time"
)

// Repeater runs fn every interval between Start and Stop. A Repeater has a
// single owner which must call Stop when leaving the state that started it.
type Repeater struct {
	interval time.Duration
	fn       func(time.Time)

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// New returns a stopped Repeater.
func New(interval time.Duration, fn func(time.Time)) *Repeater {
	if interval <= 0 {
		interval = time.Second
	}
	return &Repeater{interval: interval, fn: fn}
}

// Start launches the loop. It returns false when already running.
func (r *Repeater) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		return false
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(r.stop, r.done)
	return true
}

// Stop halts the loop and waits for it to exit, so no tick is delivered after
// Stop returns. Stopping a stopped Repeater is a no-op.
func (r *Repeater) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the loop is active.
func (r *Repeater) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop != nil
}

func (r *Repeater) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-t.C:
			// A stop that raced with the tick wins.
			select {
			case <-stop:
				return
			default:
			}
			r.fn(now)
		}
	}
}
