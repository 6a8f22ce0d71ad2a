package inprocess

import (
	"context"
	"log"
	"strings"
	"sync"

	"optimus-coordinator/internal/messaging"
)

// subscription is one channel-backed listener on a topic pattern.
type subscription struct {
	id      uint64
	pattern string
	ch      chan messaging.Message
	cancel  context.CancelFunc
}

// Bus is the default Broker: a goroutine-safe topic -> subscriber fan-out
// built the way the teacher's queue.UpdateQueue builds one channel per
// node, generalized from "per node" to "per subscription".
type Bus struct {
	mu          sync.RWMutex
	subs        map[uint64]*subscription
	nextID      uint64
	queueSize   int
	closed      bool
}

type Option func(*Bus)

func WithQueueSize(n int) Option {
	return func(b *Bus) { b.queueSize = n }
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:      make(map[uint64]*subscription),
		queueSize: 64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := messaging.Message{Topic: topic, Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, s := range b.subs {
		if !topicMatches(s.pattern, topic) {
			continue
		}
		select {
		case s.ch <- msg:
		default:
			log.Printf("inprocess bus: dropping message on %s, subscriber %d queue is full", topic, s.id)
		}
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, pattern string, handler messaging.Handler) (func(), error) {
	ch := make(chan messaging.Message, b.queueSize)
	workerCtx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	sub := &subscription{id: id, pattern: pattern, ch: ch, cancel: cancel}
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-workerCtx.Done():
				return
			case msg := <-ch:
				handler(workerCtx, msg)
			}
		}
	}()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		cancel()
	}, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		s.cancel()
	}
	b.subs = make(map[uint64]*subscription)
	return nil
}

// topicMatches supports an exact match or a "prefix.*" wildcard, the two
// shapes spec.md §6 needs (metric-value.<name> subscribes with a
// wildcard on the metric-value prefix).
func topicMatches(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(topic, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
