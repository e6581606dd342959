package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const DefaultPlaybackRate = 24000

// Speaker plays one loaded PCM payload (s16le mono) through PulseAudio with
// software gain, implementing the playback player contract. Play can fail
// while the Pulse server is unreachable or the sink refuses the stream; the
// playback session retries around that.
type Speaker struct {
	SampleRate int

	mu      sync.Mutex
	data    []byte
	pos     int
	volume  float64
	client  *pulse.Client
	stream  *pulse.PlaybackStream
	playing bool
}

func NewSpeaker(sampleRate int) *Speaker {
	if sampleRate <= 0 {
		sampleRate = DefaultPlaybackRate
	}
	return &Speaker{SampleRate: sampleRate, volume: 1}
}

// Load replaces the current payload and rewinds. Any active stream for the
// previous payload is released first.
func (s *Speaker) Load(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseStreamLocked()
	s.data = data
	s.pos = 0
	return nil
}

// Play starts (or resumes) output from the current position.
func (s *Speaker) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.data) == 0 {
		return errors.New("no payload loaded")
	}
	if s.playing {
		return nil
	}

	if s.client == nil {
		client, err := newPulseClient()
		if err != nil {
			return fmt.Errorf("connect pulse server: %w", err)
		}
		s.client = client
	}

	// A fresh stream per play segment; pause discards the old one so the
	// source reader always resumes from s.pos.
	stream, err := s.client.NewPlayback(
		pulse.NewReader(&speakerSource{speaker: s}, pulseproto.FormatInt16LE),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(s.SampleRate),
		pulse.PlaybackMediaName("foresight response"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}

	s.stream = stream
	s.playing = true
	stream.Start()
	return nil
}

// Pause stops output, keeping position for a later Play.
func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseStreamLocked()
}

// SeekTo repositions playback, clamped to the payload and sample-aligned.
func (s *Speaker) SeekTo(offset time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset < 0 {
		offset = 0
	}
	pos := int(offset.Seconds()*float64(s.SampleRate)) * 2
	pos -= pos % 2
	if pos > len(s.data) {
		pos = len(s.data)
	}
	s.pos = pos
	return nil
}

// SetVolume sets software gain in [0, 1].
func (s *Speaker) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.volume = v
}

// Ended reports whether the payload has been consumed to its end.
func (s *Speaker) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data) > 0 && s.pos >= len(s.data)
}

// Close releases the stream and the Pulse connection.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseStreamLocked()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	return nil
}

func (s *Speaker) releaseStreamLocked() {
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
		s.stream = nil
	}
	s.playing = false
}

// speakerSource feeds gain-scaled samples from the speaker's payload.
type speakerSource struct {
	speaker *Speaker
}

func (src *speakerSource) Read(p []byte) (int, error) {
	s := src.speaker
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.data) {
		s.playing = false
		return 0, io.EOF
	}

	n := copy(p, s.data[s.pos:])
	n -= n % 2
	if n == 0 {
		s.playing = false
		return 0, io.EOF
	}
	s.pos += n

	if s.volume < 1 {
		for i := 0; i+1 < n; i += 2 {
			sample := int16(binary.LittleEndian.Uint16(p[i : i+2]))
			scaled := int16(float64(sample) * s.volume)
			binary.LittleEndian.PutUint16(p[i:i+2], uint16(scaled))
		}
	}
	return n, nil
}
