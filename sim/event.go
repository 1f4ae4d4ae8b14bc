package sim

// EventType names the link a deferred action travels.
type EventType string

const (
	EventTypePackToShip EventType = "PackToShip"
	EventTypeBakeToPack EventType = "BakeToPack"
	EventTypeMixToBake  EventType = "MixToBake"
)

// Event defines the interface for deferred simulation actions.
// Each event has a Timestamp (in minutes) at which it becomes due, the line
// Stage it acts on, and an Execute method that applies it to the pipeline.
type Event interface {
	Timestamp() int64
	EventID() uint64
	Type() EventType
	Stage() int
	Execute(*Pipeline)
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	timestamp int64
	eventID   uint64
	eventType EventType
	stage     int
}

func newBaseEvent(timestamp int64, eventType EventType, stage int, id uint64) BaseEvent {
	return BaseEvent{
		timestamp: timestamp,
		eventID:   id,
		eventType: eventType,
		stage:     stage,
	}
}

func (e *BaseEvent) Timestamp() int64 {
	return e.timestamp
}

func (e *BaseEvent) EventID() uint64 {
	return e.eventID
}

func (e *BaseEvent) Type() EventType {
	return e.eventType
}

// Stage is the position of the event's link in the line, 0 at the mixer.
func (e *BaseEvent) Stage() int {
	return e.stage
}

// TransferEvent carries a finished batch across one link. It is created when
// the transfer is initiated and executes once its due minute is reached.
type TransferEvent struct {
	BaseEvent
	Link        *Link
	Batch       *Batch
	InitiatedAt int64 // minute the transfer was initiated
}

// Execute performs the move.
func (e *TransferEvent) Execute(p *Pipeline) {
	p.completeTransfer(e)
}
