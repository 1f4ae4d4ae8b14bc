package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PipelineRun owns one production line and is the only way to drive it.
// A presentation layer holds a *PipelineRun, reads Snapshot and calls the
// control surface (Start, Pause, Reset, SetSpeed). Clock ticks and control
// calls are serialized, so a tick sweep and a deferred transfer never
// interleave.
type PipelineRun struct {
	mu       sync.Mutex
	pipeline *Pipeline
	clock    *Clock // nil when ticks are driven manually
	speed    float64
	running  bool
	epoch    uint64 // bumped on every Start; ticks from older epochs are dropped
	runID    uuid.UUID
	// done is closed when a run halts. It is replaced only after it was
	// closed, so a channel obtained from Done before Start, RunToCompletion or
	// Reset is closed by the next completion.
	done       chan struct{}
	doneClosed bool
}

// Option configures a PipelineRun.
type Option func(*runOptions)

type runOptions struct {
	wall   clock.Clock
	manual bool
}

// WithWallClock paces ticks with the given clock (clock.NewMock() in tests).
func WithWallClock(wall clock.Clock) Option {
	return func(o *runOptions) { o.wall = wall }
}

// WithManualTicks disables the wall-clock ticker; the caller advances time
// with Tick or RunToCompletion.
func WithManualTicks() Option {
	return func(o *runOptions) { o.manual = true }
}

// NewPipelineRun validates cfg and creates a run in the empty, time-zero state.
func NewPipelineRun(cfg Config, opts ...Option) (*PipelineRun, error) {
	p, err := NewPipeline(cfg)
	if err != nil {
		return nil, err
	}
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	r := &PipelineRun{
		pipeline: p,
		speed:    cfg.Speed,
		done:     make(chan struct{}),
	}
	if !o.manual {
		r.clock = NewClock(o.wall, cfg.BaseInterval(), cfg.Speed)
	}
	return r, nil
}

// Start resumes the run. If time is 0 or the previous run completed, the
// batches are created afresh and minute 0 is swept first.
func (r *PipelineRun) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.prepareLocked()
	r.running = true
	r.epoch++
	if r.clock != nil {
		epoch := r.epoch
		r.clock.Start(context.Background(), func() { r.tickFromClock(epoch) })
	}
	logrus.Infof("run %s started at minute %d (speed %vx)", r.runID, r.pipeline.Clock, r.speed)
}

// prepareLocked initializes a fresh run when required.
func (r *PipelineRun) prepareLocked() {
	p := r.pipeline
	if p.Initialized() && p.Clock != 0 && !p.Halted() {
		return
	}
	p.Initialize()
	r.runID = uuid.New()
	r.renewDoneLocked()
	p.Step(0)
}

// renewDoneLocked replaces a closed done channel. An open one is kept so
// existing waiters see the next completion.
func (r *PipelineRun) renewDoneLocked() {
	if r.doneClosed {
		r.done = make(chan struct{})
		r.doneClosed = false
	}
}

// Pause halts the clock without altering state. Pending transfers stay
// scheduled at their original due minute.
func (r *PipelineRun) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.stopLocked()
	logrus.Infof("run %s paused at minute %d", r.runID, r.pipeline.Clock)
}

// Reset returns to the empty, time-zero state. A Done channel that has not
// been closed survives the reset and closes when the next run completes.
func (r *PipelineRun) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	r.pipeline.Reset()
	r.runID = uuid.Nil
	r.renewDoneLocked()
	logrus.Info("run reset")
}

// SetSpeed changes the wall-clock pacing. Values outside ValidSpeeds are
// rejected and nothing changes.
func (r *PipelineRun) SetSpeed(m float64) error {
	if err := checkSpeed(m); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clock != nil {
		if err := r.clock.SetSpeed(m); err != nil {
			return err
		}
	}
	r.speed = m
	logrus.Infof("speed set to %vx", m)
	return nil
}

// Speed returns the current multiplier.
func (r *PipelineRun) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speed
}

// Tick advances one minute if the run is running. It returns false when
// paused or halted.
func (r *PipelineRun) Tick() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advanceLocked()
}

func (r *PipelineRun) tickFromClock(epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if epoch != r.epoch {
		return
	}
	r.advanceLocked()
}

func (r *PipelineRun) advanceLocked() bool {
	p := r.pipeline
	if !r.running || p.Halted() {
		return false
	}
	p.Step(p.Clock + 1)
	if p.Halted() {
		r.stopLocked()
		close(r.done)
		r.doneClosed = true
		logrus.Infof("run %s completed at minute %d", r.runID, p.Clock)
	}
	return true
}

func (r *PipelineRun) stopLocked() {
	r.running = false
	if r.clock != nil {
		r.clock.Stop()
	}
}

// RunToCompletion fast-forwards without wall-clock pacing until the run
// halts or maxTicks minutes have been simulated. A previously completed run
// is restarted first.
func (r *PipelineRun) RunToCompletion(maxTicks int64) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clock != nil {
		r.clock.Stop()
	}
	r.prepareLocked()
	r.running = true
	r.epoch++
	for n := int64(0); n < maxTicks; n++ {
		if !r.advanceLocked() {
			break
		}
	}
	if !r.pipeline.Halted() {
		r.stopLocked()
		return r.snapshotLocked(), fmt.Errorf("run did not complete within %d minutes", maxTicks)
	}
	return r.snapshotLocked(), nil
}

// Done returns a channel closed when the current or next run completes.
func (r *PipelineRun) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Snapshot returns a read-only copy of the current state.
func (r *PipelineRun) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *PipelineRun) snapshotLocked() Snapshot {
	s := r.pipeline.snapshot()
	if r.runID != uuid.Nil {
		s.RunID = r.runID.String()
	}
	s.Running = r.running
	s.Speed = r.speed
	return s
}

// Close stops the clock.
func (r *PipelineRun) Close() {
	r.Pause()
}
