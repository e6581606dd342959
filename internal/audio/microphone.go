package audio

import (
	"context"

	"github.com/sf-hacks-2025-project/foresight/internal/record"
)

// Microphone is the record.Device backed by PulseAudio. One Open per hold.
type Microphone struct {
	Input    string
	Fallback string
}

// Open resolves device selection and starts a capture stream.
func (m *Microphone) Open(ctx context.Context) (record.Stream, error) {
	selection, err := SelectDevice(ctx, m.Input, m.Fallback)
	if err != nil {
		return nil, err
	}

	capture, err := StartCapture(ctx, selection.Device)
	if err != nil {
		return nil, err
	}

	return &captureStream{capture: capture}, nil
}

// captureStream adapts Capture to the recording session's stream contract.
type captureStream struct {
	capture *Capture
}

func (s *captureStream) Chunks() <-chan []byte {
	return s.capture.Chunks()
}

// RequestStop flushes asynchronously; the chunk channel closes after the last
// residual chunk is delivered.
func (s *captureStream) RequestStop() {
	go func() { _ = s.capture.Stop() }()
}

func (s *captureStream) Close() error {
	return s.capture.Stop()
}
