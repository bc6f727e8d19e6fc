package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects portal session counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	SessionsActive   prometheus.Gauge
	IdentityUpdates  *prometheus.CounterVec
	Acknowledgments  prometheus.Counter
	SelectionResults *prometheus.CounterVec
	UploadRuns       *prometheus.CounterVec
	UploadDuration   prometheus.Histogram
	Inquiries        *prometheus.CounterVec
	ReaderScans      *prometheus.CounterVec
}

// New registers all portal metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "portal_sessions_active",
			Help: "Number of open portal sessions",
		}),
		IdentityUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_identity_updates_total",
			Help: "Identity record changes by source",
		}, []string{"source"}),
		Acknowledgments: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_acknowledgments_total",
			Help: "Successful acknowledge actions",
		}),
		SelectionResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_file_selections_total",
			Help: "File selection attempts by result",
		}, []string{"result"}),
		UploadRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_upload_runs_total",
			Help: "Finished upload runs by result",
		}, []string{"result"}),
		UploadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "portal_upload_duration_seconds",
			Help:    "Duration of upload runs",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		Inquiries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_inquiries_total",
			Help: "Inquiry send attempts by result",
		}, []string{"result"}),
		ReaderScans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_reader_scans_total",
			Help: "Reader scan requests by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) IdentityUpdated(source string) {
	if m == nil {
		return
	}
	m.IdentityUpdates.WithLabelValues(source).Inc()
}

func (m *Metrics) Acknowledged() {
	if m == nil {
		return
	}
	m.Acknowledgments.Inc()
}

func (m *Metrics) SelectionResult(result string) {
	if m == nil {
		return
	}
	m.SelectionResults.WithLabelValues(result).Inc()
}

// ObserveUpload records a finished run. Call with time.Now() taken when the run began.
func (m *Metrics) ObserveUpload(result string, start time.Time) {
	if m == nil {
		return
	}
	m.UploadRuns.WithLabelValues(result).Inc()
	m.UploadDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) InquiryResult(result string) {
	if m == nil {
		return
	}
	m.Inquiries.WithLabelValues(result).Inc()
}

func (m *Metrics) ReaderScan(outcome string) {
	if m == nil {
		return
	}
	m.ReaderScans.WithLabelValues(outcome).Inc()
}
