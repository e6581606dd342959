// Package record owns the microphone capture lifecycle for one hold-to-talk
// turn: open, buffer chunks, and finalize into a single clip.
package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/sf-hacks-2025-project/foresight/internal/fsm"
)

// ErrEmptyClip reports a finalized session that produced zero captured bytes.
var ErrEmptyClip = errors.New("no audio captured")

// Stream is one open capture handle. RequestStop asks the device to flush and
// finalize; the device signals completion by closing Chunks after its last
// chunk, not synchronously.
type Stream interface {
	Chunks() <-chan []byte
	RequestStop()
	Close() error
}

// Device is the opaque microphone capture primitive.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Hooks are the session's outward effects. All are optional.
type Hooks struct {
	RecordingChanged func(bool)
	Finalized        func(clip []byte)
	Failed           func(err error)
}

// Session drives idle → armed → active → finalizing → idle for one capture.
// Exactly one Finalized callback fires per completed session.
type Session struct {
	logger *slog.Logger
	device Device
	hooks  Hooks

	mu          sync.Mutex
	st          fsm.State
	gen         int
	stream      Stream
	chunks      [][]byte
	pendingStop bool
	discarded   bool
}

func NewSession(logger *slog.Logger, device Device, hooks Hooks) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{logger: logger, device: device, hooks: hooks, st: fsm.StateIdle}
}

// State returns the current lifecycle state snapshot.
func (s *Session) State() fsm.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Start opens the capture device and begins buffering chunks. Calling Start
// while a session is already underway is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.st != fsm.StateIdle {
		s.mu.Unlock()
		return nil
	}
	next, err := fsm.Transition(s.st, fsm.EventArm)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.st = next
	s.gen++
	gen := s.gen
	s.pendingStop = false
	s.discarded = false
	s.chunks = nil
	s.mu.Unlock()

	stream, err := s.device.Open(ctx)
	if err != nil {
		s.mu.Lock()
		s.st, _ = fsm.Transition(s.st, fsm.EventFail)
		s.mu.Unlock()
		s.fail(fmt.Errorf("open capture device: %w", err))
		return err
	}

	s.mu.Lock()
	if s.gen != gen || s.discarded {
		s.mu.Unlock()
		_ = stream.Close()
		return nil
	}
	s.st, _ = fsm.Transition(s.st, fsm.EventOpened)
	s.stream = stream
	stopNow := s.pendingStop
	s.mu.Unlock()

	if s.hooks.RecordingChanged != nil {
		s.hooks.RecordingChanged(true)
	}

	go s.drain(gen, stream)

	if stopNow {
		stream.RequestStop()
	}
	return nil
}

// Stop requests device-level finalization. Completion happens asynchronously
// when the device delivers its last chunk; a Stop before the device finished
// opening is remembered and applied once capture starts.
func (s *Session) Stop() {
	s.mu.Lock()
	switch s.st {
	case fsm.StateArmed:
		s.pendingStop = true
		s.mu.Unlock()
	case fsm.StateActive:
		stream := s.stream
		s.mu.Unlock()
		stream.RequestStop()
	default:
		s.mu.Unlock()
	}
}

// Discard aborts the in-flight session without submitting anything and
// releases the capture handle. Safe to call in any state.
func (s *Session) Discard() {
	s.mu.Lock()
	if s.st == fsm.StateIdle {
		s.mu.Unlock()
		return
	}
	stream := s.stream
	s.stream = nil
	s.chunks = nil
	s.discarded = true
	wasCapturing := s.st == fsm.StateActive || s.st == fsm.StateFinalizing
	s.st, _ = fsm.Transition(s.st, fsm.EventDiscard)
	s.mu.Unlock()

	if stream != nil {
		_ = stream.Close()
	}
	if wasCapturing && s.hooks.RecordingChanged != nil {
		s.hooks.RecordingChanged(false)
	}
	s.logger.Debug("recording session discarded")
}

// drain appends chunks until the device closes the stream, then finalizes.
func (s *Session) drain(gen int, stream Stream) {
	for chunk := range stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		s.mu.Lock()
		if s.gen != gen || s.discarded {
			s.mu.Unlock()
			continue
		}
		s.chunks = append(s.chunks, chunk)
		s.mu.Unlock()
	}

	s.mu.Lock()
	if s.gen != gen || s.discarded {
		s.mu.Unlock()
		return
	}
	next, err := fsm.Transition(s.st, fsm.EventFinalize)
	if err != nil {
		s.mu.Unlock()
		return
	}
	s.st = next
	clip := Concat(s.chunks)
	s.chunks = nil
	s.stream = nil
	s.mu.Unlock()

	_ = stream.Close()

	if s.hooks.RecordingChanged != nil {
		s.hooks.RecordingChanged(false)
	}

	if len(clip) == 0 {
		s.mu.Lock()
		s.st, _ = fsm.Transition(s.st, fsm.EventFail)
		s.mu.Unlock()
		s.fail(ErrEmptyClip)
		return
	}

	s.mu.Lock()
	s.st, _ = fsm.Transition(s.st, fsm.EventComplete)
	s.mu.Unlock()

	s.logger.Debug("recording finalized", "clip_bytes", len(clip))
	if s.hooks.Finalized != nil {
		s.hooks.Finalized(clip)
	}
}

func (s *Session) fail(err error) {
	s.logger.Warn("recording session failed", "error", err.Error())
	if s.hooks.Failed != nil {
		s.hooks.Failed(err)
	}
}

// Concat joins captured chunks into one clip preserving arrival order.
func Concat(chunks [][]byte) []byte {
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total == 0 {
		return nil
	}
	clip := make([]byte, 0, total)
	for _, chunk := range chunks {
		clip = append(clip, chunk...)
	}
	return clip
}
