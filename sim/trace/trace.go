package trace

import (
	"fmt"
	"strings"
)

// EventLog collects records during a run. Records are never modified or
// pruned; the log is only cleared on reset.
type EventLog struct {
	records []Record
}

// NewEventLog creates an EventLog ready for recording.
func NewEventLog() *EventLog {
	return &EventLog{
		records: make([]Record, 0),
	}
}

// Append adds a record at the end of the log. Unknown kinds and records
// older than the last one panic.
func (l *EventLog) Append(record Record) {
	if !IsValidKind(string(record.Kind)) {
		panic(fmt.Sprintf("EventLog.Append: unknown record kind %q", record.Kind))
	}
	if len(l.records) > 0 && record.Time < l.records[len(l.records)-1].Time {
		panic("EventLog.Append: record time went backwards")
	}
	l.records = append(l.records, record)
}

// Len returns the number of records.
func (l *EventLog) Len() int {
	return len(l.records)
}

// Records returns a copy of the log contents.
func (l *EventLog) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Reset clears the log.
func (l *EventLog) Reset() {
	l.records = l.records[:0]
}

// Text renders one record per line, newline-terminated.
func Text(records []Record) string {
	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(r.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
