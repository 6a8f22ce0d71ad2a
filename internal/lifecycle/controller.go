package lifecycle

import (
	"context"
	"log"
	"sync"

	"optimus-coordinator/internal/messaging"
	"optimus-coordinator/internal/statuspub"
)

// Controller is C5: the Running/Stopped guard the rest of the process
// waits on (spec.md §4.4). The once-guarded Stop shape is grounded on
// the teacher's UpdaterService.Start/Stop, generalized from a
// goroutine-launching service lifecycle to a condition-variable-guarded
// flag the other components and main() block against.
type Controller struct {
	mu      sync.Mutex
	cond    *sync.Cond
	running bool

	broker   messaging.Broker
	recorder *statuspub.Recorder

	pendingFunc func() int

	stopOnce sync.Once
	unsub    func()
}

func NewController(broker messaging.Broker, recorder *statuspub.Recorder) *Controller {
	c := &Controller{running: true, broker: broker, recorder: recorder}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// WithPendingCount records a callback Stop consults to log how many
// requests were still queued in C3 at shutdown (spec.md §5 "Shutdown":
// in-flight solves are abandoned; SPEC_FULL.md's graceful-drain logging
// supplements this with an observability-only count, no behavior
// change).
func (c *Controller) WithPendingCount(f func() int) *Controller {
	c.pendingFunc = f
	return c
}

// Start subscribes to the stop topic (spec.md §6) so an external Stop
// command drives the same transition as a programmatic Stop call.
func (c *Controller) Start(ctx context.Context) error {
	unsub, err := c.broker.Subscribe(ctx, messaging.TopicStop, func(ctx context.Context, _ messaging.Message) {
		c.Stop(ctx)
	})
	if err != nil {
		return err
	}
	c.unsub = unsub
	return nil
}

// Running reports the current lifecycle flag.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Stop transitions Running -> Stopped exactly once, records the
// transition on the status topic, and wakes every WaitUntilStopped
// caller.
func (c *Controller) Stop(ctx context.Context) {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		c.cond.Broadcast()

		if c.pendingFunc != nil {
			if pending := c.pendingFunc(); pending > 0 {
				log.Printf("lifecycle: stopping with %d request(s) still queued; in-flight solves are abandoned", pending)
			}
		}

		if c.recorder != nil {
			if err := c.recorder.Record(ctx, "Stopped", "execution control received stop command"); err != nil {
				log.Printf("lifecycle: failed to record stop status: %v", err)
			}
		}
		if c.unsub != nil {
			c.unsub()
		}
	})
}

// WaitUntilStopped blocks until Stop has been called or ctx is done,
// whichever comes first. main() uses this to hold the process open.
func (c *Controller) WaitUntilStopped(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.cond.Broadcast()
			c.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	c.mu.Lock()
	defer c.mu.Unlock()
	for c.running && ctx.Err() == nil {
		c.cond.Wait()
	}
}
