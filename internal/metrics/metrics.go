package metrics

import "github.com/prometheus/client_golang/prometheus"

// SyncMetrics expõe contadores das execuções de reconciliação.
// Métodos em receiver nil não fazem nada.
type SyncMetrics struct {
	runsTotal        *prometheus.CounterVec
	writesTotal      *prometheus.CounterVec
	provisionedTotal *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	m := &SyncMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meeting_sync",
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Reconciliation runs by path and result",
		}, []string{"path", "result"}),
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meeting_sync",
			Subsystem: "reconcile",
			Name:      "appointment_writes_total",
			Help:      "Appointment rows written by operation",
		}, []string{"op"}),
		provisionedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meeting_sync",
			Subsystem: "provision",
			Name:      "meetings_total",
			Help:      "Meeting provisioning attempts by result",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "meeting_sync",
			Subsystem: "reconcile",
			Name:      "run_duration_seconds",
			Help:      "Duration of a reconciliation trigger",
			Buckets:   prometheus.DefBuckets,
		}, []string{"trigger"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.writesTotal, m.provisionedTotal, m.runDuration)
	return m
}

func (m *SyncMetrics) ObserveRun(path, result string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(path, result).Inc()
}

func (m *SyncMetrics) ObserveWrites(created, updated, cancelled int) {
	if m == nil {
		return
	}
	m.writesTotal.WithLabelValues("created").Add(float64(created))
	m.writesTotal.WithLabelValues("updated").Add(float64(updated))
	m.writesTotal.WithLabelValues("cancelled").Add(float64(cancelled))
}

func (m *SyncMetrics) ObserveProvision(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.provisionedTotal.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) ObserveDuration(trigger string, seconds float64) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(trigger).Observe(seconds)
}
