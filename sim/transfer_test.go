package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLink builds mixer→oven with batch 1 already finished mixing at minute 10.
func newTestLink(t *testing.T) (*Link, *Batch) {
	t.Helper()
	mixer := NewStation(StationMixer, 10, StatusMixing, StatusMixed)
	oven := NewStation(StationOven, 30, StatusBaking, StatusBaked)
	b := NewBatch(1, 50)
	mixer.Backlog.Enqueue(b)
	require.True(t, mixer.TryAdmit(b, 0))
	require.True(t, mixer.Tick(10))
	return &Link{From: mixer, To: oven, Type: EventTypeMixToBake}, b
}

func TestTransferCoordinator_Initiate_SchedulesAtNowPlusDelay(t *testing.T) {
	// GIVEN a finished mixer occupant and an idle oven
	link, b := newTestLink(t)
	tc := NewTransferCoordinator(1, []*Link{link})

	// WHEN a transfer is initiated at minute 10
	ev := tc.Initiate(link, 10)

	// THEN it is due at minute 11 and the link is locked
	require.NotNil(t, ev)
	assert.Equal(t, int64(11), ev.Timestamp())
	assert.Equal(t, int64(10), ev.InitiatedAt)
	assert.Same(t, b, ev.Batch)
	assert.True(t, tc.InFlight(link))
	assert.Equal(t, 1, tc.Pending())
}

func TestTransferCoordinator_Initiate_SecondOnSameLink_Refused(t *testing.T) {
	link, _ := newTestLink(t)
	tc := NewTransferCoordinator(1, []*Link{link})
	require.NotNil(t, tc.Initiate(link, 10))

	assert.Nil(t, tc.Initiate(link, 10), "only one transfer per link may be in flight")
	assert.Equal(t, 1, tc.Pending())
}

func TestTransferCoordinator_Initiate_DownstreamBusy_Refused(t *testing.T) {
	// GIVEN an oven that is still baking another batch
	link, _ := newTestLink(t)
	other := &Batch{ID: 9, Size: 100, Status: StatusMixed, MixStart: 0, BakeStart: Unset, PackStart: Unset, CompletionTime: Unset}
	link.To.Backlog.Enqueue(other)
	require.True(t, link.To.TryAdmit(other, 5))
	tc := NewTransferCoordinator(1, []*Link{link})

	// THEN the finished mixer batch must wait
	assert.False(t, tc.CanInitiate(link))
	assert.Nil(t, tc.Initiate(link, 10))
}

func TestTransferCoordinator_Due_BeforeDelay_ReturnsNothing(t *testing.T) {
	link, _ := newTestLink(t)
	tc := NewTransferCoordinator(1, []*Link{link})
	tc.Initiate(link, 10)

	assert.Empty(t, tc.Due(10))
	assert.Len(t, tc.Due(11), 1)
}

func TestTransferCoordinator_Move_AdmitsIntoDestinationAtDueTime(t *testing.T) {
	// GIVEN a transfer initiated at minute 10
	link, b := newTestLink(t)
	tc := NewTransferCoordinator(1, []*Link{link})
	tc.Initiate(link, 10)

	// WHEN it comes due and is moved
	due := tc.Due(11)
	require.Len(t, due, 1)
	moved := tc.Move(due[0])

	// THEN the batch bakes in the oven from minute 11 and the link is free
	assert.Same(t, b, moved)
	assert.Nil(t, link.From.Occupant())
	assert.Same(t, b, link.To.Occupant())
	assert.Equal(t, StatusBaking, b.Status)
	assert.Equal(t, int64(11), b.BakeStart)
	assert.False(t, tc.InFlight(link))
}

func TestTransferCoordinator_Move_ToSink_Completes(t *testing.T) {
	// GIVEN a packer with a finished batch
	packer := NewStation(StationPacker, 5, StatusPacking, "")
	b := &Batch{ID: 1, Size: 50, Status: StatusBaked, MixStart: 0, BakeStart: 11, PackStart: Unset, CompletionTime: Unset}
	packer.Backlog.Enqueue(b)
	require.True(t, packer.TryAdmit(b, 42))
	require.True(t, packer.Tick(47))
	link := &Link{From: packer, To: nil, Type: EventTypePackToShip, Stage: 2}
	tc := NewTransferCoordinator(1, []*Link{link})

	// WHEN carried to the sink
	ev := tc.Initiate(link, 47)
	require.NotNil(t, ev)
	tc.Move(tc.Due(48)[0])

	// THEN it completes at the due minute
	assert.Equal(t, StatusCompleted, b.Status)
	assert.Equal(t, int64(48), b.CompletionTime)
	assert.True(t, packer.Idle())
	assert.Equal(t, "shipping", link.ToName())
}

func TestTransferCoordinator_Reset_DropsPending(t *testing.T) {
	link, _ := newTestLink(t)
	tc := NewTransferCoordinator(1, []*Link{link})
	tc.Initiate(link, 10)

	tc.Reset()

	assert.Equal(t, 0, tc.Pending())
	assert.Empty(t, tc.Due(100))
}

func TestNewTransferCoordinator_NegativeDelay_Panics(t *testing.T) {
	assert.Panics(t, func() { NewTransferCoordinator(-1, nil) })
}
