package sim

import "fmt"

// StationName identifies one of the fixed stations on the line.
type StationName string

const (
	StationMixer  StationName = "mixer"
	StationOven   StationName = "oven"
	StationPacker StationName = "packer"
)

// Station is a single-slot processing unit with a fixed duration.
//
// A station owns at most one occupant. The occupant enters in the station's
// active status (mixing, baking, packing) and, once Duration minutes have
// elapsed, is marked finished. A finished occupant keeps the slot until
// Vacate is called by the transfer that carries it downstream; while it waits
// it carries the station's done status (mixed, baked) if the station has one.
type Station struct {
	Name     StationName
	Duration int64 // minutes in the active phase, > 0

	active BatchStatus // status an admitted batch advances into
	done   BatchStatus // status a finished batch advances into; empty for the packer

	Backlog  *Backlog
	occupant *Batch
	finished bool
}

// NewStation creates an idle station. Admission advances a batch from the
// status immediately preceding active.
func NewStation(name StationName, duration int64, active, done BatchStatus) *Station {
	if duration <= 0 {
		panic(fmt.Sprintf("NewStation(%s): duration must be > 0, got %d", name, duration))
	}
	return &Station{
		Name:     name,
		Duration: duration,
		active:   active,
		done:     done,
		Backlog:  &Backlog{},
	}
}

// ActiveStatus returns the status occupants hold while processing.
func (s *Station) ActiveStatus() BatchStatus { return s.active }

// Occupant returns the batch in the slot, or nil.
func (s *Station) Occupant() *Batch { return s.occupant }

// Finished reports whether the occupant has completed processing and is
// waiting for its outbound transfer.
func (s *Station) Finished() bool { return s.occupant != nil && s.finished }

// Busy reports whether the station is actively processing.
func (s *Station) Busy() bool { return s.occupant != nil && !s.finished }

// Idle reports whether the station has neither an occupant nor a backlog.
func (s *Station) Idle() bool { return s.occupant == nil && s.Backlog.Len() == 0 }

// TryAdmit moves b from the backlog head into the slot at minute now.
// It is accepted only if the slot is empty and b is the backlog head;
// otherwise nothing changes and false is returned.
func (s *Station) TryAdmit(b *Batch, now int64) bool {
	if s.occupant != nil || b == nil || s.Backlog.Peek() != b {
		return false
	}
	s.Backlog.Dequeue()
	b.mustAdvance(now)
	if b.Status != s.active {
		panic(fmt.Sprintf("%s admitted batch #%d into status %q, want %q", s.Name, b.ID, b.Status, s.active))
	}
	s.occupant = b
	s.finished = false
	return true
}

// Tick advances the occupant if its elapsed time in the active phase has
// reached Duration. It returns true only on the tick the occupant becomes
// ready to leave.
func (s *Station) Tick(now int64) bool {
	if s.occupant == nil || s.finished {
		return false
	}
	if now-s.activeStart() < s.Duration {
		return false
	}
	if s.done != "" {
		s.occupant.mustAdvance(now)
	}
	s.finished = true
	return true
}

// Vacate removes and returns the finished occupant, clearing the slot.
// It returns nil if the occupant has not finished.
func (s *Station) Vacate() *Batch {
	if !s.Finished() {
		return nil
	}
	b := s.occupant
	s.occupant = nil
	s.finished = false
	return b
}

// Elapsed returns minutes the occupant has spent in the active phase.
func (s *Station) Elapsed(now int64) int64 {
	if s.occupant == nil {
		return 0
	}
	return now - s.activeStart()
}

func (s *Station) activeStart() int64 {
	switch s.active {
	case StatusMixing:
		return s.occupant.MixStart
	case StatusBaking:
		return s.occupant.BakeStart
	case StatusPacking:
		return s.occupant.PackStart
	}
	panic(fmt.Sprintf("%s: no start timestamp for active status %q", s.Name, s.active))
}

// reset discards the occupant and backlog.
func (s *Station) reset() {
	s.occupant = nil
	s.finished = false
	s.Backlog.Clear()
}
