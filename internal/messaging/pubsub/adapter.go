package pubsub

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	"github.com/cenkalti/backoff/v4"

	"optimus-coordinator/internal/messaging"
)

// Config names the Google Cloud project the broker lives in and the
// endpoint name used to scope subscription names, per spec.md §6's
// command-line surface.
type Config struct {
	Project      string
	EndpointName string
}

// Broker is a messaging.Broker backed by Google Cloud Pub/Sub, grounded
// on ohsu-comp-bio-funnel's events.PubSubWriter/ReadPubSub shape:
// topics and subscriptions are created lazily if they do not already
// exist, and publish goes through the same exponential-backoff wrapper
// the teacher's BackendClient uses for its outbound HTTP calls.
type Broker struct {
	client *gpubsub.Client
	cfg    Config

	mu     sync.Mutex
	topics map[string]*gpubsub.Topic
}

func NewBroker(ctx context.Context, cfg Config) (*Broker, error) {
	client, err := gpubsub.NewClient(ctx, cfg.Project)
	if err != nil {
		return nil, err
	}
	return &Broker{client: client, cfg: cfg, topics: make(map[string]*gpubsub.Topic)}, nil
}

func (b *Broker) topicFor(ctx context.Context, topic string) (*gpubsub.Topic, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[topic]; ok {
		return t, nil
	}

	name := sanitizeTopicName(topic)
	t := b.client.Topic(name)
	ok, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		t, err = b.client.CreateTopic(ctx, name)
		if err != nil {
			return nil, err
		}
	}
	b.topics[topic] = t
	return t, nil
}

func (b *Broker) Publish(ctx context.Context, topic string, payload []byte) error {
	t, err := b.topicFor(ctx, topic)
	if err != nil {
		return err
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.RetryNotify(
		func() error {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			result := t.Publish(ctx, &gpubsub.Message{Data: payload})
			_, err := result.Get(ctx)
			return err
		},
		expBackoff,
		func(err error, d time.Duration) {
			log.Printf("pubsub: publish to %s failed: %v, retrying in %.2fs", topic, err, d.Seconds())
		},
	)
}

func (b *Broker) Subscribe(ctx context.Context, topic string, handler messaging.Handler) (func(), error) {
	subName := sanitizeTopicName(b.cfg.EndpointName + "-" + topic)
	t, err := b.topicFor(ctx, topic)
	if err != nil {
		return nil, err
	}

	sub := b.client.Subscription(subName)
	ok, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		sub, err = b.client.CreateSubscription(ctx, subName, gpubsub.SubscriptionConfig{Topic: t})
		if err != nil {
			return nil, err
		}
	}

	// One message outstanding at a time, so handler runs sequentially as
	// messaging.Handler requires.
	sub.ReceiveSettings.NumGoroutines = 1
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	recvCtx, cancel := context.WithCancel(ctx)
	go func() {
		err := sub.Receive(recvCtx, func(c context.Context, m *gpubsub.Message) {
			handler(c, messaging.Message{Topic: topic, Payload: m.Data})
			m.Ack()
		})
		if err != nil && recvCtx.Err() == nil {
			log.Printf("pubsub: subscription %s receive loop ended: %v", subName, err)
		}
	}()

	return cancel, nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	for _, t := range b.topics {
		t.Stop()
	}
	b.mu.Unlock()
	return b.client.Close()
}

func sanitizeTopicName(name string) string {
	return strings.NewReplacer(".", "-", "*", "wild").Replace(name)
}
