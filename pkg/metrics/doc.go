/*
Package metrics provides Prometheus metrics collection and exposition for the
plot engine and record store.

The metrics package defines and registers metrics using the Prometheus client
library, providing observability into plot size, commitment lifecycle,
engine request latency, and record store occupancy. Metrics are exposed via
an HTTP handler for scraping by a Prometheus server embedded in the host
process — this package itself runs no server.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Plot: piece count, commitments by status   │          │
	│  │  Engine: queue depth, request latency       │          │
	│  │  Pieces: read/write duration                │          │
	│  │  Record store: record/provider counts       │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint               │          │
	│  │  - Handler: metrics.Handler()                │          │
	│  │  - Format: Prometheus text exposition        │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

plotengine_plot_piece_count:
  - Type: Gauge
  - Description: Number of pieces currently stored in the plot

plotengine_commitments_total{status}:
  - Type: Gauge
  - Description: Commitments by lifecycle status (in_progress/created/aborted)

plotengine_commitment_create_duration_seconds:
  - Type: Histogram
  - Description: Time to build a full tag index for a commitment

plotengine_commitment_batch_duration_seconds:
  - Type: Histogram
  - Description: Time per tag batch during commitment creation

plotengine_commitments_aborted_total / plotengine_commitments_removed_total:
  - Type: Counter
  - Description: Lifecycle transition counts

plotengine_engine_queue_depth{channel}:
  - Type: Gauge
  - Description: Queued requests by channel (read/write)

plotengine_engine_request_duration_seconds{kind}:
  - Type: Histogram
  - Description: Time servicing a single engine request by kind

plotengine_engine_requests_total{kind,outcome}:
  - Type: Counter
  - Description: Requests processed by kind and outcome (ok/error)

plotengine_piece_read_duration_seconds / plotengine_piece_write_duration_seconds:
  - Type: Histogram
  - Description: Piece file I/O latency

plotengine_recordstore_records_total{store} / plotengine_recordstore_providers_total:
  - Type: Gauge
  - Description: Record store occupancy

plotengine_recordstore_evictions_total:
  - Type: Counter
  - Description: Records evicted by the size-limited wrapper

plotengine_recordstore_put_duration_seconds:
  - Type: Histogram
  - Description: Record store put latency

# Usage

	import "github.com/cuemby/plotengine/pkg/metrics"

	timer := metrics.NewTimer()
	// ... create commitment ...
	timer.ObserveDuration(metrics.CommitmentCreateDuration)

	metrics.PlotPieceCount.Set(float64(plot.PieceCount()))

	collector := metrics.NewCollector(plot, store)
	collector.Start()
	defer collector.Stop()

	http.Handle("/metrics", metrics.Handler())

# Design Patterns

Package Init Registration:
  - All metrics registered in init()
  - MustRegister panics on duplicate registration

Timer Pattern:
  - Create timer at operation start
  - Call ObserveDuration/ObserveDurationVec when it completes

Collector Pattern:
  - Ticker-driven sampling against narrow PlotStats/RecordStoreStats
    interfaces rather than concrete types, so the collector has no import
    dependency on pkg/plot or pkg/recordstore.

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
