package playback

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultMaxUnlockAttempts = 5
	DefaultRetryInterval     = time.Second
	DefaultRampDuration      = 300 * time.Millisecond

	rampSteps = 8
)

// ErrNoAsset reports a transport request with nothing loaded.
var ErrNoAsset = errors.New("no playable asset")

// Player is the opaque playback primitive. Play may fail while the output is
// still locked; the session retries around that.
type Player interface {
	Load(data []byte) error
	Play() error
	Pause()
	SeekTo(offset time.Duration) error
	SetVolume(v float64)
	Ended() bool
	Close() error
}

// Scheduler arms retry and ramp timers. The returned cancel disarms.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// Hooks are the session's outward effects. All are optional.
type Hooks struct {
	AssetChanged func(id string)
	Started      func()
	Blocked      func()
	Failed       func(err error)
}

// Config tunes the unlock protocol.
type Config struct {
	MaxUnlockAttempts int
	RetryInterval     time.Duration
	RampDuration      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxUnlockAttempts <= 0 {
		c.MaxUnlockAttempts = DefaultMaxUnlockAttempts
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.RampDuration <= 0 {
		c.RampDuration = DefaultRampDuration
	}
	return c
}

// Session owns the current turn's playable asset. Beginning a new asset tears
// the previous one down strictly before the new one attaches. Automatic
// playback loads muted, ramps volume on success, and retries a bounded number
// of times before surfacing a press-to-play state; one extra retry is spent on
// the next user interaction if nothing has played yet.
type Session struct {
	logger *slog.Logger
	player Player
	sched  Scheduler
	cfg    Config
	hooks  Hooks

	mu                   sync.Mutex
	asset                *Asset
	attempts             int
	played               bool
	exhausted            bool
	interactionRetryUsed bool
	cancelRetry          func()
	cancelRamp           func()
}

func NewSession(logger *slog.Logger, player Player, sched Scheduler, cfg Config, hooks Hooks) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		logger: logger,
		player: player,
		sched:  sched,
		cfg:    cfg.withDefaults(),
		hooks:  hooks,
	}
}

// Begin makes asset the current turn's playback target and starts the unlock
// protocol. The previous asset's timers and playback are released first.
func (s *Session) Begin(asset *Asset) error {
	s.mu.Lock()
	s.teardownLocked()
	s.asset = asset
	s.attempts = 0
	s.played = false
	s.exhausted = false
	s.interactionRetryUsed = false
	s.mu.Unlock()

	if s.hooks.AssetChanged != nil {
		s.hooks.AssetChanged(asset.ID)
	}

	s.player.SetVolume(0)
	if err := s.player.Load(asset.Bytes()); err != nil {
		s.fail(err)
		return err
	}

	s.attemptPlay(false)
	return nil
}

// Asset returns the current asset, or nil between turns.
func (s *Session) Asset() *Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asset
}

// Blocked reports whether automatic unlock attempts have been exhausted.
func (s *Session) Blocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted && !s.played
}

// Played reports whether this asset has played at least once.
func (s *Session) Played() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

// NotifyInteraction spends the single post-interaction retry when automatic
// playback has not yet succeeded for the current asset.
func (s *Session) NotifyInteraction() {
	s.mu.Lock()
	if s.asset == nil || s.played || s.interactionRetryUsed {
		s.mu.Unlock()
		return
	}
	s.interactionRetryUsed = true
	pending := s.cancelRetry
	s.cancelRetry = nil
	s.mu.Unlock()

	if pending != nil {
		pending()
	}
	s.attemptPlay(true)
}

// ManualPlay always runs at full volume and rewinds if the asset already
// reached its end. It works regardless of prior unlock failures.
func (s *Session) ManualPlay() error {
	s.mu.Lock()
	if s.asset == nil {
		s.mu.Unlock()
		return ErrNoAsset
	}
	s.cancelTimersLocked()
	s.mu.Unlock()

	s.player.SetVolume(1)
	if s.player.Ended() {
		if err := s.player.SeekTo(0); err != nil {
			return err
		}
	}
	if err := s.player.Play(); err != nil {
		return err
	}

	s.mu.Lock()
	s.played = true
	s.exhausted = false
	s.mu.Unlock()

	if s.hooks.Started != nil {
		s.hooks.Started()
	}
	return nil
}

// ManualPause pauses playback, leaving position intact.
func (s *Session) ManualPause() error {
	s.mu.Lock()
	if s.asset == nil {
		s.mu.Unlock()
		return ErrNoAsset
	}
	s.mu.Unlock()
	s.player.Pause()
	return nil
}

// ManualSeek repositions playback at full volume.
func (s *Session) ManualSeek(offset time.Duration) error {
	s.mu.Lock()
	if s.asset == nil {
		s.mu.Unlock()
		return ErrNoAsset
	}
	s.mu.Unlock()
	s.player.SetVolume(1)
	return s.player.SeekTo(offset)
}

// Close releases the current asset's timers and pauses playback.
func (s *Session) Close() {
	s.mu.Lock()
	s.teardownLocked()
	s.asset = nil
	s.mu.Unlock()
}

// attemptPlay runs one muted unlock attempt. extra marks the
// interaction-granted attempt, which does not count against the bound.
func (s *Session) attemptPlay(extra bool) {
	s.mu.Lock()
	if s.asset == nil || s.played {
		s.mu.Unlock()
		return
	}
	if !extra {
		if s.attempts >= s.cfg.MaxUnlockAttempts {
			s.mu.Unlock()
			return
		}
		s.attempts++
	}
	attempt := s.attempts
	s.cancelRetry = nil
	s.mu.Unlock()

	s.player.SetVolume(0)
	err := s.player.Play()
	if err == nil {
		s.mu.Lock()
		s.played = true
		s.exhausted = false
		s.mu.Unlock()

		s.logger.Debug("playback unlocked", "attempt", attempt)
		if s.hooks.Started != nil {
			s.hooks.Started()
		}
		s.startRamp()
		return
	}

	s.logger.Debug("playback attempt blocked", "attempt", attempt, "error", err.Error())

	s.mu.Lock()
	if extra || s.attempts >= s.cfg.MaxUnlockAttempts {
		s.exhausted = true
		s.mu.Unlock()
		if s.hooks.Blocked != nil {
			s.hooks.Blocked()
		}
		return
	}
	s.cancelRetry = s.sched.AfterFunc(s.cfg.RetryInterval, func() { s.attemptPlay(false) })
	s.mu.Unlock()
}

// startRamp raises volume from zero to full in fixed steps, avoiding the pop
// of an abrupt unmute.
func (s *Session) startRamp() {
	stepInterval := s.cfg.RampDuration / rampSteps
	var step func(i int)
	step = func(i int) {
		s.player.SetVolume(float64(i) / rampSteps)
		if i >= rampSteps {
			return
		}
		s.mu.Lock()
		s.cancelRamp = s.sched.AfterFunc(stepInterval, func() { step(i + 1) })
		s.mu.Unlock()
	}
	step(1)
}

func (s *Session) fail(err error) {
	s.logger.Warn("playback failed", "error", err.Error())
	if s.hooks.Failed != nil {
		s.hooks.Failed(err)
	}
}

// teardownLocked releases the old asset's resources before a new one attaches.
func (s *Session) teardownLocked() {
	s.cancelTimersLocked()
	if s.asset != nil {
		s.player.Pause()
	}
}

func (s *Session) cancelTimersLocked() {
	if s.cancelRetry != nil {
		s.cancelRetry()
		s.cancelRetry = nil
	}
	if s.cancelRamp != nil {
		s.cancelRamp()
		s.cancelRamp = nil
	}
}
