// internal/metrics/metrics.go
// Prometheus collectors for the chat relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery results used as the "result" label of DeliveriesTotal.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

var (
	// ConnectedClients tracks connections currently registered with the hub
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connected_clients",
			Help: "Number of connections currently registered",
		},
	)

	JoinsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_joins_total",
			Help: "Total connections that joined the chat",
		},
	)

	LeavesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_leaves_total",
			Help: "Total connections that left the chat",
		},
	)

	// MessagesTotal counts chat envelopes accepted for relay
	MessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total chat messages relayed",
		},
	)

	ParseErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_parse_errors_total",
			Help: "Total inbound payloads rejected as malformed",
		},
	)

	// DeliveriesTotal counts per-recipient send attempts by result
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_deliveries_total",
			Help: "Per-recipient delivery attempts by result",
		},
		[]string{"result"},
	)
)
