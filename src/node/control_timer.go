package node

import (
	"time"
)

type timerFactory func(time.Duration) <-chan time.Time

// ControlTimer ticks the node. The tick interval can be changed while it runs.
type ControlTimer struct {
	timerFactory timerFactory
	tickCh       chan struct{}      //sends a signal to listening process
	resetCh      chan time.Duration //receives instruction to reset the timer
	shutdownCh   chan struct{}      //receives instruction to exit Run loop
}

// NewControlTimer ...
func NewControlTimer(timerFactory timerFactory) *ControlTimer {
	return &ControlTimer{
		timerFactory: timerFactory,
		tickCh:       make(chan struct{}),
		resetCh:      make(chan time.Duration),
		shutdownCh:   make(chan struct{}),
	}
}

// NewTickControlTimer uses the system clock.
func NewTickControlTimer() *ControlTimer {
	return NewControlTimer(time.After)
}

// Run ticks every interval until Shutdown. A tick that is not consumed delays
// the next one.
func (c *ControlTimer) Run(interval time.Duration) {
	timer := c.timerFactory(interval)
	for {
		select {
		case <-timer:
			select {
			case c.tickCh <- struct{}{}:
			case <-c.shutdownCh:
				return
			}
			timer = c.timerFactory(interval)
		case t := <-c.resetCh:
			interval = t
			timer = c.timerFactory(interval)
		case <-c.shutdownCh:
			return
		}
	}
}

// Reset changes the tick interval.
func (c *ControlTimer) Reset(interval time.Duration) {
	select {
	case c.resetCh <- interval:
	case <-c.shutdownCh:
	}
}

// Shutdown ...
func (c *ControlTimer) Shutdown() {
	close(c.shutdownCh)
}
