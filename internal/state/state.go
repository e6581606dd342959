// Package state holds the shared live session record exposed read-only to
// rendering surfaces.
package state

import "sync"

// Snapshot is one immutable view of the session, safe to hand to renderers.
type Snapshot struct {
	Pressing        bool   `json:"pressing"`
	Recording       bool   `json:"recording"`
	CameraReady     bool   `json:"camera_ready"`
	HasInteracted   bool   `json:"has_interacted"`
	Status          string `json:"status"`
	LastError       string `json:"last_error,omitempty"`
	AssetID         string `json:"asset_id,omitempty"`
	PlaybackBlocked bool   `json:"playback_blocked"`
}

// Store owns the mutable session record. Each field has one designated
// mutator; components only call the mutators for fields they own.
type Store struct {
	mu       sync.RWMutex
	current  Snapshot
	onChange func(Snapshot)
}

func NewStore() *Store {
	return &Store{}
}

// OnChange registers the single change observer. Must be called before the
// store is shared across goroutines.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.onChange = fn
}

// Snapshot returns the current session view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) SetPressing(v bool) {
	s.mutate(func(c *Snapshot) { c.Pressing = v })
}

func (s *Store) SetRecording(v bool) {
	s.mutate(func(c *Snapshot) { c.Recording = v })
}

func (s *Store) SetCameraReady(v bool) {
	s.mutate(func(c *Snapshot) { c.CameraReady = v })
}

func (s *Store) MarkInteracted() {
	s.mutate(func(c *Snapshot) { c.HasInteracted = true })
}

func (s *Store) SetStatus(text string) {
	s.mutate(func(c *Snapshot) { c.Status = text })
}

func (s *Store) SetError(text string) {
	s.mutate(func(c *Snapshot) { c.LastError = text })
}

func (s *Store) ClearError() {
	s.mutate(func(c *Snapshot) { c.LastError = "" })
}

// SetAsset records the current playable asset reference; empty clears it.
func (s *Store) SetAsset(id string) {
	s.mutate(func(c *Snapshot) {
		c.AssetID = id
		if id == "" {
			c.PlaybackBlocked = false
		}
	})
}

func (s *Store) SetPlaybackBlocked(v bool) {
	s.mutate(func(c *Snapshot) { c.PlaybackBlocked = v })
}

func (s *Store) mutate(apply func(*Snapshot)) {
	s.mu.Lock()
	apply(&s.current)
	snap := s.current
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}
