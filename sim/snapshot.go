package sim

import "github.com/bakeline/bakeline/sim/trace"

// StationView is a read-only copy of one station.
type StationView struct {
	Name     StationName `json:"name"`
	Duration int64       `json:"duration"`
	Occupant *Batch      `json:"occupant,omitempty"`
	Busy     bool        `json:"busy"`     // actively processing
	Finished bool        `json:"finished"` // occupant waiting to be carried downstream
	Elapsed  int64       `json:"elapsed"`  // minutes the occupant has spent in the active phase
	Backlog  []Batch     `json:"backlog"`
}

// TransferView is a read-only copy of an in-flight transfer.
type TransferView struct {
	Batch       Batch       `json:"batch"`
	From        StationName `json:"from"`
	To          string      `json:"to"`
	InitiatedAt int64       `json:"initiated_at"`
	DueAt       int64       `json:"due_at"`
}

// Snapshot is everything a presentation layer may read. All values are
// copies; mutating a Snapshot never touches the simulation.
type Snapshot struct {
	RunID        string         `json:"run_id"`
	Time         int64          `json:"time"`
	Running      bool           `json:"running"`
	Halted       bool           `json:"halted"`
	Speed        float64        `json:"speed"`
	TotalBatches int            `json:"total_batches"`
	Stations     []StationView  `json:"stations"`
	InFlight     []TransferView `json:"in_flight"`
	Completed    []Batch        `json:"completed"`
	Log          []trace.Record `json:"log"`
	Stats        Statistics     `json:"stats"`
}

// Station returns the view of the named station, or false.
func (s Snapshot) Station(name StationName) (StationView, bool) {
	for _, st := range s.Stations {
		if st.Name == name {
			return st, true
		}
	}
	return StationView{}, false
}

// snapshot copies the pipeline state. Run-level fields (RunID, Running,
// Speed) are filled in by the owner.
func (p *Pipeline) snapshot() Snapshot {
	snap := Snapshot{
		Time:         p.Clock,
		Halted:       p.halted,
		TotalBatches: len(p.Batches),
		Stations:     make([]StationView, 0, len(p.stations)),
		InFlight:     make([]TransferView, 0, p.Transfers.Pending()),
		Completed:    make([]Batch, 0, len(p.Completed)),
		Log:          p.Log.Records(),
	}
	for _, s := range p.stations {
		view := StationView{
			Name:     s.Name,
			Duration: s.Duration,
			Busy:     s.Busy(),
			Finished: s.Finished(),
			Elapsed:  s.Elapsed(p.Clock),
			Backlog:  make([]Batch, 0, s.Backlog.Len()),
		}
		if occ := s.Occupant(); occ != nil {
			cp := *occ
			view.Occupant = &cp
		}
		for _, b := range s.Backlog.Items() {
			view.Backlog = append(view.Backlog, *b)
		}
		snap.Stations = append(snap.Stations, view)
	}
	for _, ev := range p.Transfers.Transfers() {
		snap.InFlight = append(snap.InFlight, TransferView{
			Batch:       *ev.Batch,
			From:        ev.Link.From.Name,
			To:          ev.Link.ToName(),
			InitiatedAt: ev.InitiatedAt,
			DueAt:       ev.Timestamp(),
		})
	}
	for _, b := range p.Completed {
		snap.Completed = append(snap.Completed, *b)
	}
	snap.Stats = ComputeStatistics(snap)
	return snap
}
