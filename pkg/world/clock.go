package world

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/StoreStation/minebot/pkg/protocol"
)

// defaultTickDuration is the nominal server tick length.
const defaultTickDuration = 50 * time.Millisecond

// Clock tracks the server tick index locally. The first TimeUpdate
// adopts the server world age; later ones trim the tick duration by
// a millisecond at a time so the local counter chases the server's.
type Clock struct {
	currentTick    int64
	currentTickEnd time.Time
	tickDuration   time.Duration
	initialized    bool

	now func() time.Time
}

// NewClock creates a clock one tick away from its first boundary.
func NewClock() *Clock {
	c := &Clock{
		tickDuration: defaultTickDuration,
		now:          time.Now,
	}
	c.currentTickEnd = c.now().Add(c.tickDuration)
	return c
}

// CurrentTick returns the current tick index.
func (c *Clock) CurrentTick() int64 { return c.currentTick }

// CurrentTickEnd is the wall-clock deadline of the current tick,
// used to bound socket reads.
func (c *Clock) CurrentTickEnd() time.Time { return c.currentTickEnd }

// HandlePacket observes a decoded packet; only TimeUpdate matters.
func (c *Clock) HandlePacket(pkt protocol.ServerPacket) {
	p, ok := pkt.(protocol.TimeUpdate)
	if !ok {
		return
	}
	if !c.initialized {
		c.currentTick = p.WorldAge
		c.initialized = true
		return
	}
	if p.WorldAge > c.currentTick && c.tickDuration > time.Millisecond {
		c.tickDuration -= time.Millisecond
	} else if p.WorldAge < c.currentTick {
		c.tickDuration += time.Millisecond
	}
	log.Debugf("New tick duration: %v", c.tickDuration)
}

// Advance rolls the tick counter forward past every elapsed
// boundary and reports whether it crossed at least one.
func (c *Clock) Advance() bool {
	now := c.now()
	crossed := false
	for !c.currentTickEnd.After(now) {
		c.currentTick++
		crossed = true
		c.currentTickEnd = c.currentTickEnd.Add(c.tickDuration)
	}
	return crossed
}
