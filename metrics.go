package elog

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts what the error core does. A nil *Metrics records
// nothing, so a Context without WithMetrics pays no cost.
type Metrics struct {
	reports    *prometheus.CounterVec
	sinkErrors *prometheus.CounterVec
	masked     prometheus.Counter
	unwinds    prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg. A nil
// reg leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "elog",
				Name:      "reports_total",
				Help:      "Total number of reports emitted, by severity",
			},
			[]string{"severity"},
		),
		sinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "elog",
				Name:      "sink_errors_total",
				Help:      "Total number of failed writes, by sink",
			},
			[]string{"sink"},
		),
		masked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "elog",
			Name:      "masked_statements_total",
			Help:      "Total number of statements that had secrets masked",
		}),
		unwinds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "elog",
			Name:      "recovered_errors_total",
			Help:      "Total number of errors caught at a recovery point",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.reports, m.sinkErrors, m.masked, m.unwinds)
	}
	return m
}

func (m *Metrics) recordReport(sev Severity) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(sev.String()).Inc()
}

func (m *Metrics) recordSinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}

func (m *Metrics) recordMasked() {
	if m == nil {
		return
	}
	m.masked.Inc()
}

func (m *Metrics) recordCaught() {
	if m == nil {
		return
	}
	m.unwinds.Inc()
}
