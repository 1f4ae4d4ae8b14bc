// Derives aggregate statistics from a snapshot: units, throughput,
// utilization and lead time.

package sim

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/stat"
)

// StationUtilization reports what one station is doing right now.
type StationUtilization struct {
	Name     StationName `json:"name"`
	Occupied bool        `json:"occupied"` // holds a batch, processing or waiting to leave
	Busy     bool        `json:"busy"`     // actively processing
	Backlog  int         `json:"backlog"`
}

// Statistics are pure functions of a snapshot; nothing here is accumulated.
type Statistics struct {
	Time           int64                `json:"time"`
	TotalBatches   int                  `json:"total_batches"`
	CompletedCount int                  `json:"completed_count"`
	TotalUnits     int                  `json:"total_units"` // sum of sizes over the completed set
	Throughput     float64              `json:"throughput"`  // units per minute; 0 at time 0
	InFlight       int                  `json:"in_flight"`
	Utilization    []StationUtilization `json:"utilization"`
	MeanLeadTime   float64              `json:"mean_lead_time"`   // minutes from mix start to completion
	StdDevLeadTime float64              `json:"stddev_lead_time"` // sample standard deviation; 0 below two samples
	MaxLeadTime    int64                `json:"max_lead_time"`
}

// ComputeStatistics derives Statistics from s. s.Stats is ignored.
func ComputeStatistics(s Snapshot) Statistics {
	st := Statistics{
		Time:           s.Time,
		TotalBatches:   s.TotalBatches,
		CompletedCount: len(s.Completed),
		InFlight:       len(s.InFlight),
		Utilization:    make([]StationUtilization, 0, len(s.Stations)),
	}
	for _, b := range s.Completed {
		st.TotalUnits += b.Size
	}
	st.Throughput = Throughput(st.TotalUnits, s.Time)

	for _, v := range s.Stations {
		st.Utilization = append(st.Utilization, StationUtilization{
			Name:     v.Name,
			Occupied: v.Occupant != nil,
			Busy:     v.Busy,
			Backlog:  len(v.Backlog),
		})
	}

	leads := make([]float64, 0, len(s.Completed))
	for _, b := range s.Completed {
		lt := b.LeadTime()
		if lt == Unset {
			continue
		}
		leads = append(leads, float64(lt))
		st.MaxLeadTime = max(st.MaxLeadTime, lt)
	}
	switch len(leads) {
	case 0:
	case 1:
		st.MeanLeadTime = leads[0]
	default:
		st.MeanLeadTime, st.StdDevLeadTime = stat.MeanStdDev(leads, nil)
	}
	return st
}

// Throughput returns units per minute, or 0 when no time has elapsed.
func Throughput(units int, minutes int64) float64 {
	if minutes <= 0 {
		return 0
	}
	return float64(units) / float64(minutes)
}

// Print writes the end-of-run report.
func (st Statistics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Elapsed Time         : %d minutes\n", st.Time)
	fmt.Fprintf(w, "Completed Batches    : %d / %d\n", st.CompletedCount, st.TotalBatches)
	fmt.Fprintf(w, "Total Units          : %s cookies\n", humanize.Comma(int64(st.TotalUnits)))
	fmt.Fprintf(w, "Throughput           : %s cookies/minute\n", humanize.FormatFloat("#,###.##", st.Throughput))
	if st.CompletedCount > 0 {
		fmt.Fprintf(w, "Mean Lead Time       : %.2f minutes\n", st.MeanLeadTime)
		fmt.Fprintf(w, "Lead Time Std Dev    : %.2f minutes\n", st.StdDevLeadTime)
		fmt.Fprintf(w, "Max Lead Time        : %d minutes\n", st.MaxLeadTime)
	}
	for _, u := range st.Utilization {
		state := "available"
		switch {
		case u.Busy:
			state = "busy"
		case u.Occupied:
			state = "holding"
		}
		fmt.Fprintf(w, "%-21s: %s (backlog %d)\n", "Station "+string(u.Name), state, u.Backlog)
	}
}
