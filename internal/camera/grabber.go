// Package camera captures still frames from a V4L2 device by shelling out to
// ffmpeg, the opaque frame source consumed by the sampling loop.
package camera

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const DefaultBinary = "ffmpeg"

// Grabber produces one MJPEG frame per capture from a video device.
type Grabber struct {
	Binary string
	// ExtraArgs are inserted before the input flags, for things like
	// hardware acceleration switches.
	ExtraArgs []string
	Device    string
	Size      string
}

// NewGrabber builds a grabber from a parsed capture command. argv[0] is the
// binary; the rest become leading ffmpeg arguments.
func NewGrabber(argv []string, device string, size string) *Grabber {
	g := &Grabber{Binary: DefaultBinary, Device: device, Size: size}
	if len(argv) > 0 && strings.TrimSpace(argv[0]) != "" {
		g.Binary = argv[0]
		g.ExtraArgs = argv[1:]
	}
	return g
}

// CaptureStill grabs a single JPEG-encoded frame. Each call opens and
// releases the device; a busy device surfaces as a capture error and the
// caller retries on its own cadence.
func (g *Grabber) CaptureStill(ctx context.Context) ([]byte, error) {
	args := append([]string{}, g.ExtraArgs...)
	args = append(args,
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
	)
	if strings.TrimSpace(g.Size) != "" {
		args = append(args, "-video_size", g.Size)
	}
	args = append(args,
		"-i", g.Device,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, g.Binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	frame, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("capture frame from %s: %w: %s", g.Device, err, detail)
		}
		return nil, fmt.Errorf("capture frame from %s: %w", g.Device, err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("capture frame from %s: empty output", g.Device)
	}
	return frame, nil
}

// Available reports whether the configured ffmpeg binary resolves on PATH.
func Available(binary string) bool {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	_, err := exec.LookPath(binary)
	return err == nil
}
