package handler

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "ibc"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of dispatched messages, by type URL and outcome.
	Messages metrics.Counter
	// Time spent dispatching a message.
	MessageDuration metrics.Histogram

	// Packets committed by SendPacket.
	PacketsSent metrics.Counter
	// Packets received by the host.
	PacketsReceived metrics.Counter
	// Packets settled by an acknowledgement.
	PacketsAcknowledged metrics.Counter
	// Packets settled by a timeout.
	PacketsTimedOut metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Messages: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "messages_total",
			Help:      "Number of dispatched IBC messages.",
		}, append(labels, "type_url", "outcome")).With(labelsAndValues...),
		MessageDuration: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "message_duration_seconds",
			Help:      "Time spent validating and executing an IBC message.",
			Buckets:   stdprometheus.ExponentialBuckets(0.0001, 4, 8),
		}, append(labels, "type_url")).With(labelsAndValues...),
		PacketsSent: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "packets_sent",
			Help:      "Number of packets committed for sending.",
		}, labels).With(labelsAndValues...),
		PacketsReceived: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "packets_received",
			Help:      "Number of packets received.",
		}, labels).With(labelsAndValues...),
		PacketsAcknowledged: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "packets_acknowledged",
			Help:      "Number of sent packets settled by an acknowledgement.",
		}, labels).With(labelsAndValues...),
		PacketsTimedOut: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "packets_timed_out",
			Help:      "Number of sent packets settled by a timeout.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Messages:            discard.NewCounter(),
		MessageDuration:     discard.NewHistogram(),
		PacketsSent:         discard.NewCounter(),
		PacketsReceived:     discard.NewCounter(),
		PacketsAcknowledged: discard.NewCounter(),
		PacketsTimedOut:     discard.NewCounter(),
	}
}
