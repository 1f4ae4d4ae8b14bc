package sim

import "fmt"

// Link connects a station to its downstream neighbour. A nil To is the
// completed sink at the end of the line.
type Link struct {
	From  *Station
	To    *Station
	Type  EventType
	Stage int // position in the line, 0 for mixer→oven
}

// ToName returns the destination's display name.
func (l *Link) ToName() string {
	if l.To == nil {
		return "shipping"
	}
	return string(l.To.Name)
}

// downstreamFree reports whether the destination can accept a batch now.
// The sink always can.
func (l *Link) downstreamFree() bool {
	return l.To == nil || l.To.Idle()
}

// TransferCoordinator manages the two-phase handoff between adjacent
// stations: initiate now, move once the transit delay has elapsed.
// At most one transfer is in flight per link.
type TransferCoordinator struct {
	Delay int64 // transit delay in minutes

	links    []*Link
	inFlight map[*Link]*TransferEvent
	queue    *DueQueue
	nextID   uint64
}

// NewTransferCoordinator creates a coordinator for the given links.
func NewTransferCoordinator(delay int64, links []*Link) *TransferCoordinator {
	if delay < 0 {
		panic(fmt.Sprintf("NewTransferCoordinator: delay must be >= 0, got %d", delay))
	}
	return &TransferCoordinator{
		Delay:    delay,
		links:    links,
		inFlight: make(map[*Link]*TransferEvent, len(links)),
		queue:    &DueQueue{},
	}
}

// InFlight reports whether a transfer is pending on link.
func (tc *TransferCoordinator) InFlight(link *Link) bool {
	return tc.inFlight[link] != nil
}

// CanInitiate reports whether the source's finished occupant may leave now:
// it is finished, not already being carried, and the destination is free.
func (tc *TransferCoordinator) CanInitiate(link *Link) bool {
	return link.From.Finished() && !tc.InFlight(link) && link.downstreamFree()
}

// Initiate schedules the move of link.From's finished occupant, due at
// now + Delay. The due time is fixed here and never rescaled afterwards.
// Returns nil if CanInitiate is false.
func (tc *TransferCoordinator) Initiate(link *Link, now int64) *TransferEvent {
	if !tc.CanInitiate(link) {
		return nil
	}
	tc.nextID++
	ev := &TransferEvent{
		BaseEvent:   newBaseEvent(now+tc.Delay, link.Type, link.Stage, tc.nextID),
		Link:        link,
		Batch:       link.From.Occupant(),
		InitiatedAt: now,
	}
	tc.inFlight[link] = ev
	tc.queue.Schedule(ev)
	return ev
}

// Due removes and returns every transfer due at or before now.
func (tc *TransferCoordinator) Due(now int64) []*TransferEvent {
	events := tc.queue.PopDue(now)
	out := make([]*TransferEvent, 0, len(events))
	for _, e := range events {
		out = append(out, e.(*TransferEvent))
	}
	return out
}

// Move performs the physical handoff of a due transfer: vacate the source,
// enqueue into the destination, and admit it there at the due minute.
// For the sink the batch is advanced to completed instead. It releases the
// link and returns the moved batch.
func (tc *TransferCoordinator) Move(ev *TransferEvent) *Batch {
	link := ev.Link
	if tc.inFlight[link] != ev {
		panic(fmt.Sprintf("transfer %d on %s is not the in-flight transfer", ev.EventID(), link.Type))
	}
	b := link.From.Vacate()
	if b != ev.Batch {
		panic(fmt.Sprintf("transfer %d: %s occupant changed while in flight", ev.EventID(), link.From.Name))
	}
	at := ev.Timestamp()
	if link.To == nil {
		b.mustAdvance(at)
	} else {
		link.To.Backlog.Enqueue(b)
		if !link.To.TryAdmit(b, at) {
			panic(fmt.Sprintf("transfer %d: %s refused batch #%d", ev.EventID(), link.To.Name, b.ID))
		}
	}
	delete(tc.inFlight, link)
	return b
}

// Pending returns the number of transfers in flight.
func (tc *TransferCoordinator) Pending() int {
	return len(tc.inFlight)
}

// Transfers returns the in-flight transfers in upstream-to-downstream link order.
func (tc *TransferCoordinator) Transfers() []*TransferEvent {
	out := make([]*TransferEvent, 0, len(tc.inFlight))
	for _, l := range tc.links {
		if ev := tc.inFlight[l]; ev != nil {
			out = append(out, ev)
		}
	}
	return out
}

// Reset drops every pending transfer and restarts event numbering.
func (tc *TransferCoordinator) Reset() {
	clear(tc.inFlight)
	tc.queue.Clear()
	tc.nextID = 0
}
