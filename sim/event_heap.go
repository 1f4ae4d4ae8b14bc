package sim

import "container/heap"

// DueQueue holds deferred events until their minute arrives. Events due in
// the same minute drain from the end of the line backwards, matching the
// station sweep, and fall back to scheduling order.
type DueQueue []Event

// dueBefore reports whether a must run before b.
func dueBefore(a, b Event) bool {
	switch {
	case a.Timestamp() != b.Timestamp():
		return a.Timestamp() < b.Timestamp()
	case a.Stage() != b.Stage():
		return a.Stage() > b.Stage()
	default:
		return a.EventID() < b.EventID()
	}
}

func (q DueQueue) Len() int           { return len(q) }
func (q DueQueue) Less(i, j int) bool { return dueBefore(q[i], q[j]) }
func (q DueQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *DueQueue) Push(x any) { *q = append(*q, x.(Event)) }

func (q *DueQueue) Pop() any {
	old := *q
	last := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return last
}

// Schedule queues e.
func (q *DueQueue) Schedule(e Event) {
	heap.Push(q, e)
}

// Next returns the earliest event without removing it, or nil.
func (q DueQueue) Next() Event {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

// PopDue removes and returns, in order, every event due at or before now.
func (q *DueQueue) PopDue(now int64) []Event {
	var due []Event
	for len(*q) > 0 && (*q)[0].Timestamp() <= now {
		due = append(due, heap.Pop(q).(Event))
	}
	return due
}

// Clear drops every queued event.
func (q *DueQueue) Clear() {
	clear(*q)
	*q = (*q)[:0]
}
