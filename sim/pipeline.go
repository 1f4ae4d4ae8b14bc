// sim/pipeline.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bakeline/bakeline/sim/trace"
)

// Pipeline is the controller that composes the mixer, oven and packer plus
// the completed sink, and drives the per-minute state-transition sweep.
type Pipeline struct {
	Config Config

	Mixer  *Station
	Oven   *Station
	Packer *Station
	// stations in upstream-to-downstream order; swept in reverse
	stations []*Station
	links    []*Link

	Transfers *TransferCoordinator
	Log       *trace.EventLog

	// Clock is the current simulation minute
	Clock int64
	// Batches holds every batch created this run, in creation order
	Batches []*Batch
	// Completed is the completed set, in arrival order
	Completed []*Batch

	nextBatchID int
	initialized bool
	halted      bool
}

// NewPipeline creates an empty line. Call Initialize to load batches.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		Config: cfg,
		Mixer:  NewStation(StationMixer, cfg.MixDuration, StatusMixing, StatusMixed),
		Oven:   NewStation(StationOven, cfg.BakeDuration, StatusBaking, StatusBaked),
		Packer: NewStation(StationPacker, cfg.PackDuration, StatusPacking, ""),
		Log:    trace.NewEventLog(),
	}
	p.stations = []*Station{p.Mixer, p.Oven, p.Packer}
	p.links = []*Link{
		{From: p.Mixer, To: p.Oven, Type: EventTypeMixToBake, Stage: 0},
		{From: p.Oven, To: p.Packer, Type: EventTypeBakeToPack, Stage: 1},
		{From: p.Packer, To: nil, Type: EventTypePackToShip, Stage: 2},
	}
	p.Transfers = NewTransferCoordinator(cfg.TransitDelay, p.links)
	p.nextBatchID = 1
	return p, nil
}

// Stations returns the stations in line order (mixer, oven, packer).
func (p *Pipeline) Stations() []*Station {
	return p.stations
}

// Initialized reports whether batches have been loaded for the current run.
func (p *Pipeline) Initialized() bool { return p.initialized }

// Halted reports whether the run finished.
func (p *Pipeline) Halted() bool { return p.halted }

// Reset returns the line to the empty, time-zero state and restarts batch
// numbering.
func (p *Pipeline) Reset() {
	for _, s := range p.stations {
		s.reset()
	}
	p.Transfers.Reset()
	p.Log.Reset()
	p.Clock = 0
	p.Batches = nil
	p.Completed = nil
	p.nextBatchID = 1
	p.initialized = false
	p.halted = false
}

// Initialize resets the line and creates the configured batches, all
// waiting in the mixer backlog in creation order.
func (p *Pipeline) Initialize() {
	p.Reset()
	for _, size := range p.Config.BatchSizes {
		b := NewBatch(p.nextBatchID, size)
		p.nextBatchID++
		p.Batches = append(p.Batches, b)
		p.Mixer.Backlog.Enqueue(b)
	}
	p.initialized = true
	p.record(trace.KindRunStarted, 0, fmt.Sprintf("Simulation started with %d batches", len(p.Batches)))
}

// Step runs the sweep for minute now: execute due transfers, evaluate
// stations tail-to-head, then check for completion.
func (p *Pipeline) Step(now int64) {
	if now < p.Clock {
		panic(fmt.Sprintf("Clock went backwards: %d < %d", now, p.Clock))
	}
	p.Clock = now
	if p.halted {
		return
	}
	logrus.Debugf("[minute %04d] sweep", now)

	for _, ev := range p.Transfers.Due(now) {
		ev.Execute(p)
	}

	for i := len(p.stations) - 1; i >= 0; i-- {
		p.sweepStation(i, now)
	}

	p.checkCompletion(now)
}

// sweepStation evaluates one station: finish its occupant, hand a finished
// occupant downstream, admit the backlog head into a free slot.
func (p *Pipeline) sweepStation(i int, now int64) {
	s := p.stations[i]
	link := p.links[i]

	if s.Tick(now) {
		b := s.Occupant()
		p.record(trace.KindFinished, b.ID, fmt.Sprintf("%s finished %s", b.label(), s.ActiveStatus()))
	}

	if p.Transfers.CanInitiate(link) {
		ev := p.Transfers.Initiate(link, now)
		p.record(trace.KindTransferInitiated, ev.Batch.ID,
			fmt.Sprintf("%s leaving %s for %s", ev.Batch.label(), s.Name, link.ToName()))
		// zero transit delay: the move happens inside this sweep
		for _, due := range p.Transfers.Due(now) {
			due.Execute(p)
		}
	}

	if s.Occupant() == nil {
		if head := s.Backlog.Peek(); head != nil && s.TryAdmit(head, now) {
			p.record(trace.KindAdmitted, head.ID, fmt.Sprintf("%s started %s", head.label(), s.ActiveStatus()))
		}
	}
}

// completeTransfer is the deferred half of a handoff.
func (p *Pipeline) completeTransfer(ev *TransferEvent) {
	link := ev.Link
	b := p.Transfers.Move(ev)
	if link.To == nil {
		p.Completed = append(p.Completed, b)
		p.record(trace.KindBatchCompleted, b.ID, fmt.Sprintf("%s completed and ready for shipping!", b.label()))
		return
	}
	p.record(trace.KindTransferCompleted, b.ID, fmt.Sprintf("%s moved from %s to %s", b.label(), link.From.Name, link.To.Name))
}

// checkCompletion halts the run only when the line is genuinely finished:
// every station idle, nothing in transit, and every created batch completed.
// A line that is momentarily empty while batches are in transit keeps going.
func (p *Pipeline) checkCompletion(now int64) {
	if !p.initialized || len(p.Batches) == 0 {
		return
	}
	for _, s := range p.stations {
		if !s.Idle() {
			return
		}
	}
	if p.Transfers.Pending() > 0 || len(p.Completed) != len(p.Batches) {
		return
	}
	p.halted = true
	p.record(trace.KindRunCompleted, 0, "All batches completed! Simulation finished.")
	logrus.Infof("[minute %04d] all %d batches completed", now, len(p.Completed))
}

func (p *Pipeline) record(kind trace.Kind, batchID int, msg string) {
	p.Log.Append(trace.Record{Time: p.Clock, Kind: kind, BatchID: batchID, Message: msg})
	logrus.Debugf("[minute %04d] %s", p.Clock, msg)
}
