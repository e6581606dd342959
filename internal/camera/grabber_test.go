package camera

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGrabberDefaultsBinary(t *testing.T) {
	g := NewGrabber(nil, "/dev/video0", "")
	require.Equal(t, DefaultBinary, g.Binary)
	require.Empty(t, g.ExtraArgs)

	g = NewGrabber([]string{"/opt/ffmpeg/bin/ffmpeg", "-hwaccel", "auto"}, "/dev/video2", "640x480")
	require.Equal(t, "/opt/ffmpeg/bin/ffmpeg", g.Binary)
	require.Equal(t, []string{"-hwaccel", "auto"}, g.ExtraArgs)
	require.Equal(t, "/dev/video2", g.Device)
	require.Equal(t, "640x480", g.Size)
}

func TestCaptureStillEmptyOutput(t *testing.T) {
	// `true` exits 0 without writing anything to stdout, which must be
	// treated as a failed capture rather than a zero-byte frame.
	g := NewGrabber([]string{"true"}, "/dev/video0", "")

	frame, err := g.CaptureStill(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty output")
	require.Nil(t, frame)
}

func TestCaptureStillCommandFailure(t *testing.T) {
	g := NewGrabber([]string{"false"}, "/dev/video0", "")

	_, err := g.CaptureStill(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "/dev/video0")
}

func TestCaptureStillMissingBinary(t *testing.T) {
	g := NewGrabber([]string{"definitely-not-a-real-binary"}, "/dev/video0", "")

	_, err := g.CaptureStill(context.Background())
	require.Error(t, err)
}

func TestAvailable(t *testing.T) {
	require.True(t, Available("true"))
	require.False(t, Available("definitely-not-a-real-binary"))
}
