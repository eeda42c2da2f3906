package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Plot metrics
	PlotPieceCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "plotengine_plot_piece_count",
			Help: "Number of pieces currently stored in the plot",
		},
	)

	PlotCommitmentsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plotengine_commitments_total",
			Help: "Number of commitments by status",
		},
		[]string{"status"},
	)

	CommitmentCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plotengine_commitment_create_duration_seconds",
			Help:    "Time taken to create a commitment (full tag index build) in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
	)

	CommitmentBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plotengine_commitment_batch_duration_seconds",
			Help:    "Time taken to compute and write one tag batch during commitment creation",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommitmentsAbortedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plotengine_commitments_aborted_total",
			Help: "Total number of commitment creations aborted",
		},
	)

	CommitmentsRemovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plotengine_commitments_removed_total",
			Help: "Total number of commitments removed",
		},
	)

	// Engine request metrics
	EngineQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plotengine_engine_queue_depth",
			Help: "Current number of queued requests by channel kind",
		},
		[]string{"channel"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plotengine_engine_request_duration_seconds",
			Help:    "Time spent servicing an engine request, by request kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plotengine_engine_requests_total",
			Help: "Total number of engine requests processed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Piece I/O metrics
	PieceReadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plotengine_piece_read_duration_seconds",
			Help:    "Time taken to read pieces from the piece file",
			Buckets: prometheus.DefBuckets,
		},
	)

	PieceWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plotengine_piece_write_duration_seconds",
			Help:    "Time taken to write pieces to the piece file",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Record store metrics
	RecordStoreRecordsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plotengine_recordstore_records_total",
			Help: "Number of records currently held, by store kind",
		},
		[]string{"store"},
	)

	RecordStoreProvidersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "plotengine_recordstore_providers_total",
			Help: "Number of provider records currently held",
		},
	)

	RecordStoreEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plotengine_recordstore_evictions_total",
			Help: "Total number of records evicted by the size-limited wrapper",
		},
	)

	RecordStorePutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plotengine_recordstore_put_duration_seconds",
			Help:    "Time taken to put a record into the record store",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(PlotPieceCount)
	prometheus.MustRegister(PlotCommitmentsTotal)
	prometheus.MustRegister(CommitmentCreateDuration)
	prometheus.MustRegister(CommitmentBatchDuration)
	prometheus.MustRegister(CommitmentsAbortedTotal)
	prometheus.MustRegister(CommitmentsRemovedTotal)
	prometheus.MustRegister(EngineQueueDepth)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(PieceReadDuration)
	prometheus.MustRegister(PieceWriteDuration)
	prometheus.MustRegister(RecordStoreRecordsTotal)
	prometheus.MustRegister(RecordStoreProvidersTotal)
	prometheus.MustRegister(RecordStoreEvictionsTotal)
	prometheus.MustRegister(RecordStorePutDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
