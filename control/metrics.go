// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus counters for client traffic.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const metricsNamespace = "hiochat"

// Metrics holds the client traffic counters.
type Metrics struct {
	Received     prometheus.Counter
	Sent         prometheus.Counter
	Dropped      prometheus.Counter
	DecodeErrors prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Received: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_received_total",
			Help:      "Payloads decoded from the server.",
		}),
		Sent: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_sent_total",
			Help:      "Payloads written to the server.",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_dropped_total",
			Help:      "Payloads discarded because a queue was full or the client was closed.",
		}),
		DecodeErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "decode_errors_total",
			Help:      "Frames from the server that could not be decoded.",
		}),
	}
}

// GetSnapshot returns the current counter values keyed by short name.
func (m *Metrics) GetSnapshot() map[string]float64 {
	return map[string]float64{
		"received":      counterValue(m.Received),
		"sent":          counterValue(m.Sent),
		"dropped":       counterValue(m.Dropped),
		"decode_errors": counterValue(m.DecodeErrors),
	}
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}
