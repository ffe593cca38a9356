package lifecycle

import (
	"sync"
	"time"
)

// repeater invokes fn on a fixed interval until stopped. Invocations run
// sequentially on one goroutine, so a callback never overlaps itself. Stop
// invalidates the handle: a firing already queued behind it becomes a no-op.
type repeater struct {
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

func startRepeater(interval time.Duration, fn func()) *repeater {
	r := &repeater{
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-r.stop:
				return
			case <-r.ticker.C:
				select {
				case <-r.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return r
}

// Stop is safe to call more than once and from the callback itself.
func (r *repeater) Stop() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.ticker.Stop()
		close(r.stop)
	})
}
