// Package frames periodically captures a still camera frame and ships it to
// the assistant for visual context, independent of recording state.
package frames

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultInterval = 25 * time.Second

// Source is the opaque still-frame capture primitive.
type Source interface {
	CaptureStill(ctx context.Context) ([]byte, error)
}

// Uploader receives captured frames. Failures are fire-and-forget.
type Uploader interface {
	UploadFrame(ctx context.Context, userID string, frame []byte) error
}

// Sampler runs a fixed-cadence capture/upload loop. Per-tick failures degrade
// to a status message and the loop retries on the next tick.
type Sampler struct {
	logger   *slog.Logger
	interval time.Duration
	uploader Uploader
	status   func(string)

	mu      sync.Mutex
	sched   *cron.Cron
	running bool
	ctx     context.Context
	source  Source
	userID  string
}

func NewSampler(logger *slog.Logger, interval time.Duration, uploader Uploader, status func(string)) *Sampler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if status == nil {
		status = func(string) {}
	}
	return &Sampler{logger: logger, interval: interval, uploader: uploader, status: status}
}

// Start begins the sampling schedule for one camera source and user identity.
// Starting an already-running sampler is a no-op.
func (s *Sampler) Start(ctx context.Context, source Source, userID string) error {
	if source == nil {
		return fmt.Errorf("frame source is required")
	}
	if userID == "" {
		return fmt.Errorf("user identity is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	sched := cron.New()
	if _, err := sched.AddFunc(fmt.Sprintf("@every %s", s.interval), s.tick); err != nil {
		return fmt.Errorf("schedule frame sampling: %w", err)
	}

	s.sched = sched
	s.ctx = ctx
	s.source = source
	s.userID = userID
	s.running = true
	sched.Start()

	s.logger.Info("frame sampling started", "interval", s.interval.String())
	return nil
}

// Running reports whether the schedule is active.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop halts the schedule and releases the timer. Idempotent.
func (s *Sampler) Stop() {
	s.mu.Lock()
	sched := s.sched
	wasRunning := s.running
	s.sched = nil
	s.source = nil
	s.running = false
	s.mu.Unlock()

	if sched != nil {
		<-sched.Stop().Done()
	}
	if wasRunning {
		s.logger.Info("frame sampling stopped")
	}
}

// tick captures one frame and hands it to the uploader. Either step failing
// reports a transient status; the loop never tears down over a bad tick.
func (s *Sampler) tick() {
	s.mu.Lock()
	source := s.source
	userID := s.userID
	base := s.ctx
	s.mu.Unlock()
	if source == nil {
		return
	}
	if base == nil {
		base = context.Background()
	}

	ctx, cancel := context.WithTimeout(base, s.interval)
	defer cancel()

	frame, err := source.CaptureStill(ctx)
	if err != nil {
		s.logger.Warn("frame capture failed", "error", err.Error())
		s.status("camera frame capture failed; retrying")
		return
	}

	if err := s.uploader.UploadFrame(ctx, userID, frame); err != nil {
		s.logger.Warn("frame upload failed", "error", err.Error())
		s.status("context upload failed; retrying")
		return
	}

	s.logger.Debug("frame uploaded", "bytes", len(frame))
}
