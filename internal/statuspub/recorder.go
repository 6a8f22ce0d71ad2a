package statuspub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"optimus-coordinator/internal/messaging"
)

// Status is the status topic payload spec.md §6 names:
// {when, state, message}.
type Status struct {
	When    time.Time `json:"when"`
	State   string    `json:"state"`
	Message string    `json:"message"`
}

// Recorder publishes component lifecycle status, grounded on the
// teacher's pkg/resource.EventInfo.NormalRecord/WarningRecord retry
// shape, generalized from a Kubernetes Event write to a plain
// messaging.Broker publish — this deployment has no Kubernetes surface
// to write events against.
type Recorder struct {
	broker messaging.Broker
}

func NewRecorder(broker messaging.Broker) *Recorder {
	return &Recorder{broker: broker}
}

func (r *Recorder) Record(ctx context.Context, state, message string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	payload, err := json.Marshal(Status{When: time.Now().UTC(), State: state, Message: message})
	if err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 15 * time.Second

	return backoff.Retry(func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err := r.broker.Publish(ctx, messaging.TopicStatus, payload); err != nil {
			log.Printf("statuspub: failed to publish status %q: %v", state, err)
			return err
		}
		return nil
	}, b)
}
