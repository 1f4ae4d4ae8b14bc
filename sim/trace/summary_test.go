package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestSummarize_EmptyLog_ZeroValues(t *testing.T) {
	// GIVEN an empty log
	l := NewEventLog()

	// WHEN summarized
	summary := Summarize(l.Records())

	// THEN all counts are zero
	if summary.TotalRecords != 0 {
		t.Errorf("expected 0 records, got %d", summary.TotalRecords)
	}
	if summary.BatchesTouched != 0 {
		t.Errorf("expected 0 batches, got %d", summary.BatchesTouched)
	}
	if len(summary.KindCounts) != 0 {
		t.Error("expected empty kind counts")
	}
}

func TestSummarize_PopulatedLog_CorrectCounts(t *testing.T) {
	// GIVEN a log with run-level and batch-level records
	l := NewEventLog()
	l.Append(Record{Time: 0, Kind: KindRunStarted})
	l.Append(Record{Time: 0, Kind: KindAdmitted, BatchID: 1})
	l.Append(Record{Time: 10, Kind: KindFinished, BatchID: 1})
	l.Append(Record{Time: 10, Kind: KindAdmitted, BatchID: 2})
	l.Append(Record{Time: 11, Kind: KindTransferCompleted, BatchID: 1})

	// WHEN summarized
	summary := Summarize(l.Records())

	// THEN counts reflect the records
	if summary.TotalRecords != 5 {
		t.Errorf("expected 5 records, got %d", summary.TotalRecords)
	}
	if summary.KindCounts[KindAdmitted] != 2 {
		t.Errorf("expected 2 admissions, got %d", summary.KindCounts[KindAdmitted])
	}
	if summary.BatchesTouched != 2 {
		t.Errorf("expected 2 batches, got %d", summary.BatchesTouched)
	}
	if summary.FirstTime != 0 || summary.LastTime != 11 {
		t.Errorf("expected time span [0, 11], got [%d, %d]", summary.FirstTime, summary.LastTime)
	}
}

func TestTraceSummary_Print_ListsOccurringKindsInOrder(t *testing.T) {
	// GIVEN a summary with admissions and one finish
	summary := Summarize([]Record{
		{Time: 0, Kind: KindRunStarted},
		{Time: 0, Kind: KindAdmitted, BatchID: 1},
		{Time: 10, Kind: KindFinished, BatchID: 1},
		{Time: 11, Kind: KindAdmitted, BatchID: 2},
	})

	// WHEN printed
	var buf bytes.Buffer
	summary.Print(&buf)
	out := buf.String()

	// THEN kinds appear in lifecycle order and absent kinds are omitted
	if !strings.HasPrefix(out, "=== Event Log Summary ===\n") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "Records              : 4 (t=0..11)") {
		t.Errorf("missing record span in %q", out)
	}
	admitted := strings.Index(out, "admitted")
	finished := strings.Index(out, "finished")
	if admitted < 0 || finished < 0 || admitted > finished {
		t.Errorf("kinds out of order in %q", out)
	}
	if strings.Contains(out, "run_completed") {
		t.Errorf("absent kind printed in %q", out)
	}
}
