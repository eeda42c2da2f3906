package metrics

import "time"

// PlotStats is implemented by the plot façade and exposes the counters the
// collector samples on each tick.
type PlotStats interface {
	PieceCount() uint64
	CommitmentCounts() map[string]int
}

// RecordStoreStats is implemented by recordstore.Store, which pairs a
// record storage with a provider storage.
type RecordStoreStats interface {
	RecordCount() int
	ProviderCount() int
}

// Collector periodically samples a plot and record store into gauges.
type Collector struct {
	plot   PlotStats
	store  RecordStoreStats
	stopCh chan struct{}
}

// NewCollector creates a collector for the given plot. store may be nil if
// the process runs no record store.
func NewCollector(plot PlotStats, store RecordStoreStats) *Collector {
	return &Collector{
		plot:   plot,
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15-second tick.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectPlotMetrics()
	c.collectRecordStoreMetrics()
}

func (c *Collector) collectPlotMetrics() {
	if c.plot == nil {
		return
	}

	PlotPieceCount.Set(float64(c.plot.PieceCount()))

	counts := c.plot.CommitmentCounts()
	for status, count := range counts {
		PlotCommitmentsTotal.WithLabelValues(status).Set(float64(count))
	}
}

func (c *Collector) collectRecordStoreMetrics() {
	if c.store == nil {
		return
	}

	RecordStoreRecordsTotal.WithLabelValues("default").Set(float64(c.store.RecordCount()))
	RecordStoreProvidersTotal.Set(float64(c.store.ProviderCount()))
}
