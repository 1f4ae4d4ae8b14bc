package trace

import (
	"fmt"
	"io"
)

// TraceSummary aggregates statistics from an event log.
type TraceSummary struct {
	TotalRecords   int          `json:"total_records"`
	KindCounts     map[Kind]int `json:"kind_counts"`
	BatchesTouched int          `json:"batches_touched"` // distinct batch IDs seen
	FirstTime      int64        `json:"first_time"`      // time of the first record
	LastTime       int64        `json:"last_time"`       // time of the last record
}

// Summarize computes aggregate statistics from a list of records.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(records []Record) *TraceSummary {
	summary := &TraceSummary{
		KindCounts: make(map[Kind]int),
	}
	if len(records) == 0 {
		return summary
	}

	summary.TotalRecords = len(records)
	summary.FirstTime = records[0].Time
	summary.LastTime = records[len(records)-1].Time

	batches := make(map[int]struct{})
	for _, r := range records {
		summary.KindCounts[r.Kind]++
		if r.BatchID > 0 {
			batches[r.BatchID] = struct{}{}
		}
	}
	summary.BatchesTouched = len(batches)

	return summary
}

// Print writes the summary with one line per kind that occurred, in Kinds order.
func (s *TraceSummary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Event Log Summary ===")
	fmt.Fprintf(w, "Records              : %d (t=%d..%d)\n", s.TotalRecords, s.FirstTime, s.LastTime)
	fmt.Fprintf(w, "Batches Touched      : %d\n", s.BatchesTouched)
	for _, k := range Kinds {
		if n := s.KindCounts[k]; n > 0 {
			fmt.Fprintf(w, "%-21s: %d\n", "  "+string(k), n)
		}
	}
}
