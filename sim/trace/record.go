// Package trace provides the append-only event log of a production run.
// This package has no dependencies on sim/; it stores pure data types.
package trace

import (
	"fmt"
	"slices"
)

// Kind classifies a log record.
type Kind string

const (
	KindRunStarted        Kind = "run_started"
	KindAdmitted          Kind = "admitted"
	KindFinished          Kind = "finished"
	KindTransferInitiated Kind = "transfer_initiated"
	KindTransferCompleted Kind = "transfer_completed"
	KindBatchCompleted    Kind = "batch_completed"
	KindRunCompleted      Kind = "run_completed"
)

// Kinds lists every record kind in the order a batch passes through them.
var Kinds = []Kind{
	KindRunStarted,
	KindAdmitted,
	KindFinished,
	KindTransferInitiated,
	KindTransferCompleted,
	KindBatchCompleted,
	KindRunCompleted,
}

// IsValidKind returns true if the given string is a recognized record kind.
func IsValidKind(kind string) bool {
	return slices.Contains(Kinds, Kind(kind))
}

// Record captures a single state transition or transfer event.
type Record struct {
	Time    int64  `json:"time"`
	Kind    Kind   `json:"kind"`
	BatchID int    `json:"batch_id,omitempty"` // 0 for run-level records
	Message string `json:"message"`
}

func (r Record) String() string {
	return fmt.Sprintf("t=%d %s", r.Time, r.Message)
}
