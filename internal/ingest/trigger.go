package ingest

import (
	"time"
)

// Trigger coalesces bursts of rebuild requests into one invocation of fn
// after the burst goes quiet. Every Fire restarts the quiet period.
type Trigger struct {
	interval time.Duration
	fn       func()
	fireCh   chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
}

// NewTrigger starts the debounce loop. interval <= 0 defaults to 2s.
func NewTrigger(interval time.Duration, fn func()) *Trigger {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	t := &Trigger{
		interval: interval,
		fn:       fn,
		fireCh:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.loop()
	return t
}

// Fire requests a rebuild. Never blocks; pending requests coalesce.
func (t *Trigger) Fire() {
	select {
	case t.fireCh <- struct{}{}:
	default:
	}
}

// Stop shuts down the debounce loop. A pending, not-yet-run request is
// discarded.
func (t *Trigger) Stop() {
	close(t.stopCh)
	<-t.done
}

func (t *Trigger) loop() {
	defer close(t.done)

	timer := time.NewTimer(t.interval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-t.fireCh:
			timer.Reset(t.interval)
		case <-timer.C:
			t.fn()
		case <-t.stopCh:
			return
		}
	}
}
