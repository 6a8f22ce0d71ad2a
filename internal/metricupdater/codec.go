package metricupdater

import (
	"encoding/json"
	"strings"

	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/messaging"
)

// metricListWire is the metric-list payload: the full set of metric
// names the application wants predicted, replacing any prior list.
type metricListWire struct {
	Metrics []string `json:"Metrics"`
}

func decodeMetricList(payload []byte) ([]string, error) {
	var wire metricListWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	return wire.Metrics, nil
}

// metricValueWire carries one observation plus its validity timestamp.
type metricValueWire struct {
	Value     domain.Value    `json:"Value"`
	Timestamp domain.Timestamp `json:"Timestamp"`
}

func decodeMetricValue(payload []byte) (metricValueWire, error) {
	var wire metricValueWire
	err := json.Unmarshal(payload, &wire)
	return wire, err
}

// metricNameFromTopic strips messaging.TopicMetricValuePrefix from a
// metric-value topic to recover the bare metric name (spec.md §4.3
// metric-value handler). The Updater subscribes once per metric topic and
// passes the name to handleMetricValue directly, so it does not call this.
func metricNameFromTopic(topic string) string {
	return strings.TrimPrefix(topic, messaging.TopicMetricValuePrefix)
}

type appLifecycleWire struct {
	State string `json:"State"`
}

func decodeAppLifecycle(payload []byte) (string, error) {
	var wire appLifecycleWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return "", err
	}
	return wire.State, nil
}

// sloViolationWire is the trigger message: an optional objective
// override and an optional context id for duplicate-rejection, plus
// whether the resulting solution should be deployed.
type sloViolationWire struct {
	ObjectiveFunction *string `json:"ObjectiveFunction,omitempty"`
	ContextID         string  `json:"ContextId,omitempty"`
	DeploySolution    bool    `json:"DeploySolution"`
}

func decodeSLOViolation(payload []byte) (sloViolationWire, error) {
	var wire sloViolationWire
	err := json.Unmarshal(payload, &wire)
	return wire, err
}
