// Package promexport exposes production-line snapshots as Prometheus metrics.
package promexport

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bakeline/bakeline/sim"
)

// SnapshotSource is anything that can produce a snapshot; *sim.PipelineRun
// satisfies it.
type SnapshotSource interface {
	Snapshot() sim.Snapshot
}

// Collector reads a fresh snapshot on every scrape. It holds no state of its
// own, so values always match what Snapshot reports.
type Collector struct {
	src SnapshotSource

	simTime        *prometheus.Desc
	running        *prometheus.Desc
	completed      *prometheus.Desc
	totalBatches   *prometheus.Desc
	units          *prometheus.Desc
	throughput     *prometheus.Desc
	inFlight       *prometheus.Desc
	stationBusy    *prometheus.Desc
	stationBacklog *prometheus.Desc
}

// NewCollector creates a collector over src.
func NewCollector(src SnapshotSource) *Collector {
	return &Collector{
		src:            src,
		simTime:        prometheus.NewDesc("bakeline_sim_time_minutes", "Current simulation time.", nil, nil),
		running:        prometheus.NewDesc("bakeline_running", "1 while the clock is advancing.", nil, nil),
		completed:      prometheus.NewDesc("bakeline_completed_batches", "Batches in the completed set.", nil, nil),
		totalBatches:   prometheus.NewDesc("bakeline_batches", "Batches created for the current run.", nil, nil),
		units:          prometheus.NewDesc("bakeline_completed_units", "Units produced by completed batches.", nil, nil),
		throughput:     prometheus.NewDesc("bakeline_throughput_units_per_minute", "Completed units per simulation minute.", nil, nil),
		inFlight:       prometheus.NewDesc("bakeline_transfers_in_flight", "Transfers between stations not yet executed.", nil, nil),
		stationBusy:    prometheus.NewDesc("bakeline_station_occupied", "1 while the station holds a batch.", []string{"station"}, nil),
		stationBacklog: prometheus.NewDesc("bakeline_station_backlog", "Batches waiting for the station.", []string{"station"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.simTime
	ch <- c.running
	ch <- c.completed
	ch <- c.totalBatches
	ch <- c.units
	ch <- c.throughput
	ch <- c.inFlight
	ch <- c.stationBusy
	ch <- c.stationBacklog
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.src.Snapshot()
	st := snap.Stats

	ch <- prometheus.MustNewConstMetric(c.simTime, prometheus.GaugeValue, float64(snap.Time))
	ch <- prometheus.MustNewConstMetric(c.running, prometheus.GaugeValue, boolToFloat(snap.Running))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.GaugeValue, float64(st.CompletedCount))
	ch <- prometheus.MustNewConstMetric(c.totalBatches, prometheus.GaugeValue, float64(st.TotalBatches))
	ch <- prometheus.MustNewConstMetric(c.units, prometheus.GaugeValue, float64(st.TotalUnits))
	ch <- prometheus.MustNewConstMetric(c.throughput, prometheus.GaugeValue, st.Throughput)
	ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(st.InFlight))
	for _, u := range st.Utilization {
		ch <- prometheus.MustNewConstMetric(c.stationBusy, prometheus.GaugeValue, boolToFloat(u.Occupied), string(u.Name))
		ch <- prometheus.MustNewConstMetric(c.stationBacklog, prometheus.GaugeValue, float64(u.Backlog), string(u.Name))
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
