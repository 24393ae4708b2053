package multipart

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional Prometheus instrumentation bundle for parse
// sessions, grounded on packetd-packetd/controller/metrics.go's
// promauto-built counters — adapted from package-level globals (fine for
// packetd's single daemon binary) to an instance registered against a
// caller-supplied prometheus.Registerer, since a library must not force
// global metric registration as a side effect of being imported.
type Metrics struct {
	partsTotal  prometheus.Counter
	errorsTotal *prometheus.CounterVec
}

// NewMetrics builds a Metrics bundle and registers it against reg.
// namespace is used as the Prometheus metric namespace (e.g. "myapp").
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		partsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "multipart",
			Name:      "parts_total",
			Help:      "Parts yielded across all multipart parse sessions.",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "multipart",
			Name:      "errors_total",
			Help:      "Fatal parse errors, labeled by error kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.partsTotal, m.errorsTotal)
	return m
}

// observePart and observeError are passed a session ID only for a future
// per-session breakdown via structured logging, not as a metric label —
// labeling a counter by a unique session ID would give it unbounded
// cardinality.
func (m *Metrics) observePart(sessionID string) {
	if m == nil {
		return
	}
	m.partsTotal.Inc()
}

func (m *Metrics) observeError(sessionID string, kind Kind) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(kind.String()).Inc()
}
