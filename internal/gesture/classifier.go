// Package gesture classifies raw pointer/touch contact on the interaction
// surface into taps, scrolls, and sustained holds.
package gesture

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

const (
	DefaultHoldDelay       = 500 * time.Millisecond
	DefaultScrollThreshold = 10.0
)

// Point is one contact position in client surface units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scheduler arms the hold-confirmation timer. The returned cancel disarms it.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// Listener receives classification outcomes.
type Listener interface {
	PressingChanged(pressing bool)
	HoldConfirmed()
	ScrollCancelled()
	Released(holdConfirmed bool)
}

// noopListener preserves classifier flow when no listener is wired.
type noopListener struct{}

func (noopListener) PressingChanged(bool) {}
func (noopListener) HoldConfirmed()       {}
func (noopListener) ScrollCancelled()     {}
func (noopListener) Released(bool)        {}

// Config tunes the tap/hold boundary and the scroll displacement threshold.
type Config struct {
	HoldDelay       time.Duration
	ScrollThreshold float64
}

func (c Config) withDefaults() Config {
	if c.HoldDelay <= 0 {
		c.HoldDelay = DefaultHoldDelay
	}
	if c.ScrollThreshold <= 0 {
		c.ScrollThreshold = DefaultScrollThreshold
	}
	return c
}

// Classifier tracks at most one in-progress contact. A contact that survives
// the hold delay without cancelling movement confirms a hold; movement past
// the threshold before confirmation cancels as a scroll.
type Classifier struct {
	logger   *slog.Logger
	cfg      Config
	sched    Scheduler
	listener Listener

	mu            sync.Mutex
	tracking      bool
	holdConfirmed bool
	start         Point
	cancelTimer   func()
}

func NewClassifier(logger *slog.Logger, cfg Config, sched Scheduler, listener Listener) *Classifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if listener == nil {
		listener = noopListener{}
	}
	return &Classifier{
		logger:   logger,
		cfg:      cfg.withDefaults(),
		sched:    sched,
		listener: listener,
	}
}

// Pressing reports whether a contact is currently being tracked.
func (c *Classifier) Pressing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracking
}

// OnContactStart begins tracking a contact and arms the hold timer. A second
// start while one contact is live is ignored.
func (c *Classifier) OnContactStart(pt Point) {
	c.mu.Lock()
	if c.tracking {
		c.mu.Unlock()
		return
	}
	c.tracking = true
	c.holdConfirmed = false
	c.start = pt
	c.cancelTimer = c.sched.AfterFunc(c.cfg.HoldDelay, c.holdTimerFired)
	c.mu.Unlock()

	c.listener.PressingChanged(true)
}

// OnContactMove classifies displacement. Movement past the threshold before a
// hold is confirmed cancels the contact as a scroll; movement during a
// confirmed hold is ignored so the recording continues.
func (c *Classifier) OnContactMove(pt Point) {
	c.mu.Lock()
	if !c.tracking || c.holdConfirmed {
		c.mu.Unlock()
		return
	}

	if math.Hypot(pt.X-c.start.X, pt.Y-c.start.Y) <= c.cfg.ScrollThreshold {
		c.mu.Unlock()
		return
	}

	c.disarmLocked()
	c.tracking = false
	c.mu.Unlock()

	c.logger.Debug("contact cancelled as scroll")
	c.listener.PressingChanged(false)
	c.listener.ScrollCancelled()
}

// OnContactEnd releases the contact, disarming any pending hold timer.
func (c *Classifier) OnContactEnd() {
	c.mu.Lock()
	if !c.tracking {
		c.mu.Unlock()
		return
	}
	c.disarmLocked()
	wasHold := c.holdConfirmed
	c.tracking = false
	c.holdConfirmed = false
	c.mu.Unlock()

	c.listener.PressingChanged(false)
	c.listener.Released(wasHold)
}

// holdTimerFired confirms the hold when the contact is still live and unmoved.
func (c *Classifier) holdTimerFired() {
	c.mu.Lock()
	if !c.tracking || c.holdConfirmed {
		c.mu.Unlock()
		return
	}
	c.holdConfirmed = true
	c.cancelTimer = nil
	c.mu.Unlock()

	c.logger.Debug("hold confirmed")
	c.listener.HoldConfirmed()
}

func (c *Classifier) disarmLocked() {
	if c.cancelTimer != nil {
		c.cancelTimer()
		c.cancelTimer = nil
	}
}
