package sim

import (
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManualRun(t *testing.T, cfg Config) *PipelineRun {
	t.Helper()
	r, err := NewPipelineRun(cfg, WithManualTicks())
	require.NoError(t, err)
	return r
}

func tickN(r *PipelineRun, n int) {
	for i := 0; i < n; i++ {
		r.Tick()
	}
}

func TestPipelineRun_Start_InitializesAndSweepsMinuteZero(t *testing.T) {
	// GIVEN a fresh run
	r := newManualRun(t, DefaultConfig())

	// WHEN started
	r.Start()
	snap := r.Snapshot()

	// THEN batch 1 is mixing at minute 0 and the rest wait
	assert.True(t, snap.Running)
	assert.NotEmpty(t, snap.RunID)
	assert.Equal(t, int64(0), snap.Time)
	mixer, ok := snap.Station(StationMixer)
	require.True(t, ok)
	require.NotNil(t, mixer.Occupant)
	assert.Equal(t, 1, mixer.Occupant.ID)
	assert.Len(t, mixer.Backlog, 5)
}

func TestPipelineRun_Tick_WhilePaused_TimeDoesNotAdvance(t *testing.T) {
	r := newManualRun(t, DefaultConfig())
	r.Start()
	tickN(r, 5)

	r.Pause()

	assert.False(t, r.Tick())
	assert.Equal(t, int64(5), r.Snapshot().Time)
	assert.False(t, r.Snapshot().Running)
}

func TestPipelineRun_Pause_KeepsPendingTransferAndItsDueTime(t *testing.T) {
	// GIVEN a transfer initiated at minute 10 (due 11)
	r := newManualRun(t, DefaultConfig())
	r.Start()
	tickN(r, 10)
	require.Len(t, r.Snapshot().InFlight, 1)

	// WHEN paused and resumed
	r.Pause()
	paused := r.Snapshot()
	r.Start()
	r.Tick()

	// THEN the transfer was kept while paused and executed at its captured due minute
	assert.Equal(t, int64(11), paused.InFlight[0].DueAt)
	assert.Equal(t, int64(10), paused.InFlight[0].InitiatedAt)
	oven, _ := r.Snapshot().Station(StationOven)
	require.NotNil(t, oven.Occupant)
	assert.Equal(t, int64(11), oven.Occupant.BakeStart)
}

func TestPipelineRun_Resume_MidRun_DoesNotReinitialize(t *testing.T) {
	r := newManualRun(t, DefaultConfig())
	r.Start()
	tickN(r, 20)
	id := r.Snapshot().RunID

	r.Pause()
	r.Start()

	snap := r.Snapshot()
	assert.Equal(t, id, snap.RunID)
	assert.Equal(t, int64(20), snap.Time)
}

func TestPipelineRun_RunToCompletion_HaltsAndClosesDone(t *testing.T) {
	r := newManualRun(t, DefaultConfig())
	done := r.Done()

	snap, err := r.RunToCompletion(10_000)

	require.NoError(t, err)
	assert.True(t, snap.Halted)
	assert.False(t, snap.Running)
	assert.Equal(t, int64(208), snap.Time)
	assert.Len(t, snap.Completed, 6)
	select {
	case <-done:
	default:
		t.Fatal("Done channel not closed after completion")
	}
	assert.False(t, r.Tick(), "a halted run does not advance")
}

func TestPipelineRun_RunToCompletion_Limit_ReturnsError(t *testing.T) {
	r := newManualRun(t, DefaultConfig())

	snap, err := r.RunToCompletion(30)

	assert.Error(t, err)
	assert.Equal(t, int64(30), snap.Time)
	assert.False(t, snap.Halted)
}

func TestPipelineRun_Start_AfterCompletion_Reinitializes(t *testing.T) {
	// GIVEN a completed run
	r := newManualRun(t, DefaultConfig())
	first, err := r.RunToCompletion(10_000)
	require.NoError(t, err)

	// WHEN started again
	r.Start()
	snap := r.Snapshot()

	// THEN a new run begins from minute 0 with fresh batches
	assert.Equal(t, int64(0), snap.Time)
	assert.Empty(t, snap.Completed)
	assert.NotEqual(t, first.RunID, snap.RunID)
	assert.True(t, snap.Running)
}

func TestPipelineRun_Reset_IsIdempotent(t *testing.T) {
	// GIVEN a run part-way through
	r := newManualRun(t, DefaultConfig())
	r.Start()
	tickN(r, 57)

	// WHEN reset once and then again
	r.Reset()
	once := r.Snapshot()
	r.Reset()
	twice := r.Snapshot()

	// THEN both snapshots are the initial one
	assert.Equal(t, once, twice)
	assert.Equal(t, newManualRun(t, DefaultConfig()).Snapshot(), once)
	assert.Equal(t, int64(0), once.Time)
	assert.Empty(t, once.Log)
	assert.Empty(t, once.RunID)
}

func TestPipelineRun_SetSpeed_MidRun_DoesNotChangeTimestamps(t *testing.T) {
	// GIVEN a baseline run at constant speed
	base := newManualRun(t, DefaultConfig())
	want, err := base.RunToCompletion(10_000)
	require.NoError(t, err)

	// WHEN another run changes speed to 0.5 and then 2 mid-run
	r := newManualRun(t, DefaultConfig())
	r.Start()
	tickN(r, 25)
	require.NoError(t, r.SetSpeed(0.5))
	tickN(r, 50)
	require.NoError(t, r.SetSpeed(2))
	got, err := r.RunToCompletion(10_000)
	require.NoError(t, err)

	// THEN the event log and completion times are identical
	assert.Equal(t, want.Log, got.Log)
	assert.Equal(t, want.Completed, got.Completed)
	assert.Equal(t, want.Time, got.Time)
	assert.Equal(t, 2.0, got.Speed)
}

func TestPipelineRun_SetSpeed_Invalid_RejectedWithoutMutation(t *testing.T) {
	r := newManualRun(t, DefaultConfig())
	r.Start()
	tickN(r, 12)
	before := r.Snapshot()

	for _, m := range []float64{-1, 0, 3, 100} {
		err := r.SetSpeed(m)
		assert.ErrorIs(t, err, ErrInvalidSpeed, "speed %v", m)
	}

	assert.Equal(t, 1.0, r.Speed())
	assert.Equal(t, before, r.Snapshot())
}

func TestNewPipelineRun_InvalidSpeed_ReturnsError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speed = 4

	_, err := NewPipelineRun(cfg)

	assert.ErrorIs(t, err, ErrInvalidSpeed)
}

func TestPipelineRun_WallClock_AdvancesOneMinutePerInterval(t *testing.T) {
	// GIVEN a run paced by a mock clock at speed 2 (500ms per minute)
	mock := clock.NewMock()
	cfg := DefaultConfig()
	cfg.Speed = 2
	r, err := NewPipelineRun(cfg, WithWallClock(mock))
	require.NoError(t, err)
	defer r.Close()

	// WHEN started and the wall clock moves three intervals
	r.Start()
	for i := int64(1); i <= 3; i++ {
		mock.Add(500 * time.Millisecond)
		want := i
		assert.Eventually(t, func() bool { return r.Snapshot().Time == want }, time.Second, time.Millisecond)
	}

	// THEN after pausing, wall-clock time no longer advances the run
	r.Pause()
	mock.Add(5 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int64(3), r.Snapshot().Time)
}

func TestPipelineRun_Done_FromBeforeReset_ClosesOnNextCompletion(t *testing.T) {
	// GIVEN a waiter that took Done mid-run
	r := newManualRun(t, DefaultConfig())
	r.Start()
	tickN(r, 15)
	done := r.Done()

	// WHEN the run is reset and then driven to completion
	r.Reset()
	_, err := r.RunToCompletion(10_000)
	require.NoError(t, err)

	// THEN the waiter is released
	select {
	case <-done:
	default:
		t.Fatal("Done channel taken before Reset was never closed")
	}
}

func TestPipelineRun_Done_AfterCompletion_RenewedOnRestart(t *testing.T) {
	// GIVEN a completed run whose Done is closed
	r := newManualRun(t, DefaultConfig())
	_, err := r.RunToCompletion(10_000)
	require.NoError(t, err)
	first := r.Done()

	// WHEN a new run starts
	r.Start()
	second := r.Done()

	// THEN the new run has an open channel and the old one stays closed
	select {
	case <-first:
	default:
		t.Fatal("Done of the completed run must stay closed")
	}
	select {
	case <-second:
		t.Fatal("Done of a fresh run must be open")
	default:
	}
}
