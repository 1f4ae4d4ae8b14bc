// batch.go
//
// Defines the Batch struct which models one production batch moving through
// the line, and the pure transition that advances it one status at a time.

package sim

import (
	"fmt"
)

// BatchStatus represents the lifecycle state of a batch.
type BatchStatus string

const (
	StatusWaiting   BatchStatus = "waiting"
	StatusMixing    BatchStatus = "mixing"
	StatusMixed     BatchStatus = "mixed"
	StatusBaking    BatchStatus = "baking"
	StatusBaked     BatchStatus = "baked"
	StatusPacking   BatchStatus = "packing"
	StatusCompleted BatchStatus = "completed"
)

// statusOrder is the only legal progression. A batch moves exactly one
// position forward per transition.
var statusOrder = []BatchStatus{
	StatusWaiting,
	StatusMixing,
	StatusMixed,
	StatusBaking,
	StatusBaked,
	StatusPacking,
	StatusCompleted,
}

// Rank returns the position of s in the lifecycle, or -1 for unknown values.
func (s BatchStatus) Rank() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the status that follows s. ok is false for completed and
// unknown statuses.
func (s BatchStatus) Next() (next BatchStatus, ok bool) {
	r := s.Rank()
	if r < 0 || r == len(statusOrder)-1 {
		return "", false
	}
	return statusOrder[r+1], true
}

// Unset marks a timestamp that has not been recorded yet.
const Unset int64 = -1

// Batch models one production batch moving through the line, from the mixer
// backlog to the completed set. Each phase timestamp is set once, when the
// batch enters that phase.
type Batch struct {
	ID     int         // Unique, assigned monotonically from 1 at run initialization
	Size   int         // Units produced by this batch
	Status BatchStatus // waiting → mixing → mixed → baking → baked → packing → completed

	MixStart       int64 // Minute the batch entered the mixer slot
	BakeStart      int64 // Minute the batch entered the oven slot
	PackStart      int64 // Minute the batch entered the packer slot
	CompletionTime int64 // Minute the batch reached the completed set
}

// NewBatch creates a waiting batch with every timestamp unset.
func NewBatch(id, size int) *Batch {
	return &Batch{
		ID:             id,
		Size:           size,
		Status:         StatusWaiting,
		MixStart:       Unset,
		BakeStart:      Unset,
		PackStart:      Unset,
		CompletionTime: Unset,
	}
}

// lastStamp returns the most recent recorded timestamp, or Unset.
func (b Batch) lastStamp() int64 {
	last := Unset
	for _, ts := range []int64{b.MixStart, b.BakeStart, b.PackStart, b.CompletionTime} {
		if ts > last {
			last = ts
		}
	}
	return last
}

// Advance returns the next version of b, moved one status forward at minute
// now. The receiver is a copy; callers swap the result in as a whole so no
// partially-updated batch is ever observable.
func (b Batch) Advance(now int64) (Batch, error) {
	next, ok := b.Status.Next()
	if !ok {
		return b, fmt.Errorf("batch #%d: no transition out of status %q", b.ID, b.Status)
	}
	if now < 0 || now < b.lastStamp() {
		return b, fmt.Errorf("batch #%d: timestamp %d precedes last recorded %d", b.ID, now, b.lastStamp())
	}
	b.Status = next
	switch next {
	case StatusMixing:
		b.MixStart = now
	case StatusBaking:
		b.BakeStart = now
	case StatusPacking:
		b.PackStart = now
	case StatusCompleted:
		b.CompletionTime = now
	}
	return b, nil
}

// mustAdvance applies Advance in place and panics on an illegal transition.
// An illegal transition means the controller broke the state machine.
func (b *Batch) mustAdvance(now int64) {
	next, err := b.Advance(now)
	if err != nil {
		panic(err.Error())
	}
	*b = next
}

// LeadTime is the number of minutes from entering the mixer to completion,
// or Unset while the batch is still in progress.
func (b Batch) LeadTime() int64 {
	if b.CompletionTime == Unset || b.MixStart == Unset {
		return Unset
	}
	return b.CompletionTime - b.MixStart
}

// This method returns a human-readable string representation of a Batch.
func (b Batch) String() string {
	return fmt.Sprintf("Batch: (ID: %d, Size: %d, Status: %s)", b.ID, b.Size, b.Status)
}

// label is the form used in event log messages.
func (b Batch) label() string {
	return fmt.Sprintf("Batch #%d (%d cookies)", b.ID, b.Size)
}
