// Implements the Backlog, which holds all batches waiting for a station.
// Batches are enqueued at run initialization or when a transfer lands.

package sim

import (
	"fmt"
	"strings"
)

// Backlog represents a FIFO queue of batches waiting for a station's slot.
// There is no reordering and no priority: admission is strictly head-first.
type Backlog struct {
	queue []*Batch // FIFO queue of batches
}

// Enqueue adds a batch to the back of the backlog.
func (bl *Backlog) Enqueue(b *Batch) {
	if b == nil {
		panic("Enqueue: batch must not be nil")
	}
	bl.queue = append(bl.queue, b)
}

func (bl *Backlog) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range bl.queue {
		sb.WriteString(fmt.Sprint(*val))
		if i < len(bl.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of batches in the backlog.
func (bl *Backlog) Len() int {
	return len(bl.queue)
}

// Peek returns the batch at the front of the backlog without removing it.
// Returns nil if the backlog is empty.
func (bl *Backlog) Peek() *Batch {
	if len(bl.queue) == 0 {
		return nil
	}
	return bl.queue[0]
}

// Items returns the backlog contents for iteration.
// The returned slice is the backlog's internal storage; callers MUST NOT
// append to or reslice it.
func (bl *Backlog) Items() []*Batch {
	return bl.queue
}

// Dequeue removes the batch at the front of the backlog.
func (bl *Backlog) Dequeue() *Batch {
	if len(bl.queue) == 0 {
		return nil
	}
	b := bl.queue[0]
	bl.queue[0] = nil
	bl.queue = bl.queue[1:]
	return b
}

// Clear drops every queued batch.
func (bl *Backlog) Clear() {
	bl.queue = nil
}
