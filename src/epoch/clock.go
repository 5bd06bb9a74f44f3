package epoch

import (
	"sync"
	"time"
)

// Clock numbers epochs.
type Clock interface {
	Epoch() uint64
}

// GenesisClock derives the epoch from the time elapsed since genesis.
type GenesisClock struct {
	genesis time.Time
	length  time.Duration
	now     func() time.Time
}

// NewGenesisClock ...
func NewGenesisClock(genesis time.Time, length time.Duration) *GenesisClock {
	return &GenesisClock{
		genesis: genesis,
		length:  length,
		now:     time.Now,
	}
}

// Epoch implements Clock.
func (c *GenesisClock) Epoch() uint64 {
	now := c.now()
	if now.Before(c.genesis) || c.length <= 0 {
		return 0
	}
	return uint64(now.Sub(c.genesis)/c.length) + 1
}

// EpochStart returns the time at which an epoch begins.
func (c *GenesisClock) EpochStart(epoch uint64) time.Time {
	if epoch == 0 {
		return c.genesis
	}
	return c.genesis.Add(time.Duration(epoch-1) * c.length)
}

// ManualClock is moved forward explicitly. It is used in tests and
// simulations.
type ManualClock struct {
	sync.Mutex
	epoch uint64
}

// NewManualClock ...
func NewManualClock(epoch uint64) *ManualClock {
	return &ManualClock{epoch: epoch}
}

// Epoch implements Clock.
func (c *ManualClock) Epoch() uint64 {
	c.Lock()
	defer c.Unlock()
	return c.epoch
}

// Set ...
func (c *ManualClock) Set(epoch uint64) {
	c.Lock()
	defer c.Unlock()
	c.epoch = epoch
}

// Advance moves to the next epoch and returns it.
func (c *ManualClock) Advance() uint64 {
	c.Lock()
	defer c.Unlock()
	c.epoch++
	return c.epoch
}
