// Package playback reconstructs synthesized-speech payloads into playable
// assets and drives the unlock-retry protocol around an opaque player.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrEmptyResponse reports a synthesis result that carried zero bytes.
var ErrEmptyResponse = errors.New("empty synthesis response")

type SourceKind string

const (
	SourceBuffered SourceKind = "buffered"
	SourceStreamed SourceKind = "streamed"
)

// Asset is one synthesized-speech result, normalized to a single byte payload
// regardless of how the assistant delivered it.
type Asset struct {
	ID   string
	Kind SourceKind
	data []byte
}

// NewBufferedAsset wraps a fully delivered payload.
func NewBufferedAsset(id string, payload []byte) (*Asset, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyResponse
	}
	return &Asset{ID: id, Kind: SourceBuffered, data: payload}, nil
}

// DrainStream consumes a progressively delivered payload until the source
// signals completion, then materializes one asset. A zero-byte stream is an
// ErrEmptyResponse, not a crash.
func DrainStream(ctx context.Context, id string, r io.Reader) (*Asset, error) {
	var data []byte
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("drain synthesis stream: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, ErrEmptyResponse
	}
	return &Asset{ID: id, Kind: SourceStreamed, data: data}, nil
}

// Bytes returns the playable payload.
func (a *Asset) Bytes() []byte { return a.data }

// Size returns the payload length in bytes.
func (a *Asset) Size() int { return len(a.data) }
