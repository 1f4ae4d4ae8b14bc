package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/sirupsen/logrus"
)

// Clock paces simulation minutes against wall-clock time. It fires onTick
// every BaseInterval/speed. The speed only changes pacing; each firing is
// always exactly one simulation minute.
type Clock struct {
	wall clock.Clock
	base time.Duration

	mu     sync.Mutex
	speed  float64
	cancel context.CancelFunc
	ticker *clock.Ticker
	swap   chan *clock.Ticker // hands a rescheduled ticker to the loop
}

// NewClock creates a stopped clock. wall is usually clock.New(); tests pass
// clock.NewMock().
func NewClock(wall clock.Clock, base time.Duration, speed float64) *Clock {
	if base <= 0 {
		panic(fmt.Sprintf("NewClock: base interval must be > 0, got %v", base))
	}
	if wall == nil {
		wall = clock.New()
	}
	return &Clock{
		wall:  wall,
		base:  base,
		speed: speed,
	}
}

// Interval returns the current wall-clock duration of one minute.
func (c *Clock) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intervalLocked()
}

func (c *Clock) intervalLocked() time.Duration {
	return time.Duration(float64(c.base) / c.speed)
}

// Speed returns the current multiplier.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SetSpeed changes the multiplier. On a running clock the ticker is replaced
// before SetSpeed returns, so the next tick is one new interval from now.
func (c *Clock) SetSpeed(m float64) error {
	if err := checkSpeed(m); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = m
	if c.cancel == nil {
		return nil
	}
	c.ticker.Stop()
	c.ticker = c.wall.Ticker(c.intervalLocked())
	// a ticker the loop has not picked up yet is already stopped
	select {
	case <-c.swap:
	default:
	}
	c.swap <- c.ticker
	logrus.Debugf("clock interval now %v", c.intervalLocked())
	return nil
}

// Running reports whether the ticker loop is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Start launches the ticker loop. It is a no-op if already running.
// onTick runs on the loop goroutine; it must do its own synchronization.
func (c *Clock) Start(ctx context.Context, onTick func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.swap = make(chan *clock.Ticker, 1)
	c.ticker = c.wall.Ticker(c.intervalLocked())
	go c.loop(ctx, c.ticker, c.swap, onTick)
}

// Stop halts future ticks. It does not wait for an in-progress onTick.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.ticker.Stop()
	c.cancel = nil
	c.ticker = nil
	c.swap = nil
}

func (c *Clock) loop(ctx context.Context, ticker *clock.Ticker, swap <-chan *clock.Ticker, onTick func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case ticker = <-swap:
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			onTick()
		}
	}
}
