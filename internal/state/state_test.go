package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutatorsUpdateSnapshot(t *testing.T) {
	s := NewStore()

	s.SetPressing(true)
	s.SetRecording(true)
	s.SetCameraReady(true)
	s.MarkInteracted()
	s.SetStatus("listening")
	s.SetError("mic busy")
	s.SetAsset("turn-3")
	s.SetPlaybackBlocked(true)

	snap := s.Snapshot()
	require.True(t, snap.Pressing)
	require.True(t, snap.Recording)
	require.True(t, snap.CameraReady)
	require.True(t, snap.HasInteracted)
	require.Equal(t, "listening", snap.Status)
	require.Equal(t, "mic busy", snap.LastError)
	require.Equal(t, "turn-3", snap.AssetID)
	require.True(t, snap.PlaybackBlocked)

	s.ClearError()
	require.Empty(t, s.Snapshot().LastError)
}

func TestClearingAssetResetsBlockedFlag(t *testing.T) {
	s := NewStore()
	s.SetAsset("turn-1")
	s.SetPlaybackBlocked(true)

	s.SetAsset("")

	snap := s.Snapshot()
	require.Empty(t, snap.AssetID)
	require.False(t, snap.PlaybackBlocked)
}

func TestOnChangeObservesEveryMutation(t *testing.T) {
	s := NewStore()

	var seen []Snapshot
	s.OnChange(func(snap Snapshot) { seen = append(seen, snap) })

	s.SetStatus("thinking")
	s.SetRecording(true)

	require.Len(t, seen, 2)
	require.Equal(t, "thinking", seen[0].Status)
	require.True(t, seen[1].Recording)
	require.Equal(t, "thinking", seen[1].Status)
}
