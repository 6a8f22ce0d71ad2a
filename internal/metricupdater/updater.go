package metricupdater

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/messaging"
)

// Dispatcher is the C3 surface C4 needs: handing off a synthesized
// exec-context request. Kept as a narrow interface rather than an
// import of the dispatcher package's full Manager so this component's
// tests can stub it out.
type Dispatcher interface {
	Enqueue(ctx context.Context, req *domain.ExecContextRequest) error
}

// Updater is C4: it keeps the metric registry in step with the
// metric-list, tracks the application lifecycle, and synthesizes
// exec-context requests from SLO-violation triggers (spec.md §4.3).
// The subscribe-per-name bookkeeping is grounded on the teacher's
// DefaultMetricsStateTracker, generalized from "per-node readiness" to
// "per-metric-name subscription management".
type Updater struct {
	broker     messaging.Broker
	registry   *Registry
	dispatcher Dispatcher

	mu        sync.Mutex
	lifecycle domain.AppLifecycleState

	subMu      sync.Mutex
	metricSubs map[string]func()
	coreSubs   []func()
}

func NewUpdater(broker messaging.Broker, dispatcher Dispatcher) *Updater {
	return &Updater{
		broker:     broker,
		registry:   NewRegistry(),
		dispatcher: dispatcher,
		lifecycle:  domain.AppStateNew,
		metricSubs: make(map[string]func()),
	}
}

// Registry exposes the metric registry for status introspection.
func (u *Updater) Registry() *Registry { return u.registry }

// Lifecycle reports the last observed app-lifecycle state.
func (u *Updater) Lifecycle() domain.AppLifecycleState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lifecycle
}

// Start subscribes to the three topics C4 owns: metric-list,
// app-lifecycle, slo-violation. Per-metric subscriptions are added and
// removed dynamically as the metric-list handler runs.
func (u *Updater) Start(ctx context.Context) error {
	unsubList, err := u.broker.Subscribe(ctx, messaging.TopicMetricList, u.handleMetricList)
	if err != nil {
		return err
	}
	unsubLifecycle, err := u.broker.Subscribe(ctx, messaging.TopicAppLifecycle, u.handleAppLifecycle)
	if err != nil {
		unsubList()
		return err
	}
	unsubSLO, err := u.broker.Subscribe(ctx, messaging.TopicSLOViolation, u.handleSLOViolation)
	if err != nil {
		unsubList()
		unsubLifecycle()
		return err
	}
	u.coreSubs = []func(){unsubList, unsubLifecycle, unsubSLO}
	return nil
}

// Stop releases every subscription C4 holds, core topics and
// per-metric ones alike.
func (u *Updater) Stop() {
	u.subMu.Lock()
	for _, unsub := range u.metricSubs {
		unsub()
	}
	u.metricSubs = make(map[string]func())
	subs := u.coreSubs
	u.coreSubs = nil
	u.subMu.Unlock()

	for _, unsub := range subs {
		unsub()
	}
}

// handleMetricList implements spec.md §4.3's metric-list handler: diff
// against the current registry, insert/subscribe for additions, and
// remove/unsubscribe for removals.
func (u *Updater) handleMetricList(ctx context.Context, msg messaging.Message) {
	names, err := decodeMetricList(msg.Payload)
	if err != nil {
		log.Printf("metricupdater: malformed metric-list payload: %v", err)
		return
	}

	added, removed := u.registry.Diff(names)

	for _, name := range added {
		u.registry.Add(name)
		u.subscribeMetricValue(ctx, name)
	}
	for _, name := range removed {
		u.registry.Remove(name)
		u.unsubscribeMetricValue(name)
	}
}

func (u *Updater) subscribeMetricValue(ctx context.Context, name string) {
	topic := messaging.TopicMetricValuePrefix + name
	unsub, err := u.broker.Subscribe(ctx, topic, func(ctx context.Context, msg messaging.Message) {
		u.handleMetricValue(ctx, name, msg)
	})
	if err != nil {
		log.Printf("metricupdater: failed to subscribe to %s: %v", topic, err)
		return
	}
	u.subMu.Lock()
	u.metricSubs[name] = unsub
	u.subMu.Unlock()
}

func (u *Updater) unsubscribeMetricValue(name string) {
	u.subMu.Lock()
	unsub, ok := u.metricSubs[name]
	delete(u.metricSubs, name)
	u.subMu.Unlock()
	if ok {
		unsub()
	}
}

// handleMetricValue implements spec.md §4.3's metric-value handler.
func (u *Updater) handleMetricValue(_ context.Context, name string, msg messaging.Message) {
	wire, err := decodeMetricValue(msg.Payload)
	if err != nil {
		log.Printf("metricupdater: malformed metric-value payload for %s: %v", name, err)
		return
	}
	if !u.registry.Update(name, wire.Value, wire.Timestamp) {
		log.Printf("metricupdater: value for unregistered metric %s dropped", name)
	}
}

// handleAppLifecycle implements spec.md §4.3's lifecycle handler: parse
// and store the state, dropping anything unrecognized.
func (u *Updater) handleAppLifecycle(_ context.Context, msg messaging.Message) {
	raw, err := decodeAppLifecycle(msg.Payload)
	if err != nil {
		log.Printf("metricupdater: malformed app-lifecycle payload: %v", err)
		return
	}
	state, ok := domain.ParseAppLifecycleState(raw)
	if !ok {
		log.Printf("metricupdater: unrecognized app-lifecycle state %q dropped", raw)
		return
	}
	u.mu.Lock()
	u.lifecycle = state
	u.mu.Unlock()
}

// handleSLOViolation implements spec.md §4.3's SLO-violation handler:
// honour the trigger only while Running, with a non-empty registry
// that is known (or confirmed) to carry no null records.
func (u *Updater) handleSLOViolation(ctx context.Context, msg messaging.Message) {
	u.mu.Lock()
	running := u.lifecycle == domain.AppStateRunning
	u.mu.Unlock()
	if !running {
		return
	}

	if u.registry.IsEmpty() {
		return
	}

	if !u.registry.AllValuesSet() && !u.registry.ScanAllValuesSet() {
		return
	}

	wire, err := decodeSLOViolation(msg.Payload)
	if err != nil {
		log.Printf("metricupdater: malformed slo-violation payload: %v", err)
		return
	}

	contextID := wire.ContextID
	if contextID == "" {
		// A caller that omits a context id still wants the later-rejected
		// duplicate check to mean something; synthesize one so two
		// unrelated triggers never collide on the empty string.
		contextID = uuid.NewString()
	}

	req := &domain.ExecContextRequest{
		Timestamp:         domain.Timestamp(time.Now().UnixMicro()),
		ObjectiveFunction: wire.ObjectiveFunction,
		Metrics:           u.registry.Snapshot(),
		DeploySolution:    wire.DeploySolution,
		ContextID:         contextID,
		RequesterTopic:    messaging.TopicSLOViolation,
	}

	if err := u.dispatcher.Enqueue(ctx, req); err != nil {
		log.Printf("metricupdater: failed to enqueue exec-context request: %v", err)
		return
	}

	u.mu.Lock()
	u.lifecycle = domain.AppStateDeploying
	u.mu.Unlock()
}
