package metricupdater

import (
	"sync"

	"optimus-coordinator/internal/domain"
)

// Registry is C4's metric registry (spec.md §3): a set of metric
// records kept in bijection with the component's topic subscriptions,
// plus the "all values set" flag that gates SLO-violation handling.
// The mutex-guarded-map shape is grounded on the teacher's
// DefaultMetricsStateTracker, generalized from a per-node readiness map
// to a per-metric-name value registry.
type Registry struct {
	mu          sync.RWMutex
	records     map[string]*domain.MetricRecord
	allValuesSet bool
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*domain.MetricRecord)}
}

// Names returns the metric names currently registered, in no
// particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	return names
}

// Diff computes, against wanted, the names to add and the names to
// drop so the registry mirrors the latest metric-list (spec.md §4.3
// metric-list handler).
func (r *Registry) Diff(wanted []string) (added, removed []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]struct{}, len(wanted))
	for _, name := range wanted {
		want[name] = struct{}{}
		if _, ok := r.records[name]; !ok {
			added = append(added, name)
		}
	}
	for name := range r.records {
		if _, ok := want[name]; !ok {
			removed = append(removed, name)
		}
	}
	return added, removed
}

// Add inserts a null record for name. The "all values set" flag drops
// immediately: a freshly added name has no value yet.
func (r *Registry) Add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[name] = &domain.MetricRecord{Name: name}
	r.allValuesSet = false
}

// Remove drops name from the registry entirely.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, name)
}

// Update stores a new observation for name, advancing the record's
// validity timestamp to the maximum of its current value and ts
// (spec.md §4.3 metric-value handler). Reports whether name was known.
func (r *Registry) Update(name string, value domain.Value, ts domain.Timestamp) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return false
	}
	rec.Value = value
	rec.HasValue = true
	if ts > rec.ValidityTimestamp {
		rec.ValidityTimestamp = ts
	}
	return true
}

// AllValuesSet reports the latched flag without scanning.
func (r *Registry) AllValuesSet() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allValuesSet
}

// ScanAllValuesSet performs the one-shot scan spec.md §4.3 allows when
// the flag is not yet latched: if every record is non-null, the flag
// latches true so future SLO-violation checks skip the scan.
func (r *Registry) ScanAllValuesSet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allValuesSet {
		return true
	}
	if len(r.records) == 0 {
		return false
	}
	for _, rec := range r.records {
		if !rec.HasValue {
			return false
		}
	}
	r.allValuesSet = true
	return true
}

// IsEmpty reports whether the registry currently holds no metrics.
func (r *Registry) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records) == 0
}

// Snapshot copies out the registered names that currently carry a
// value, for building an exec-context request's metric snapshot.
func (r *Registry) Snapshot() map[string]domain.Value {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domain.Value, len(r.records))
	for name, rec := range r.records {
		if rec.HasValue {
			out[name] = rec.Value
		}
	}
	return out
}
