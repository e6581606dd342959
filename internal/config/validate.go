package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	base := strings.TrimSpace(cfg.Assistant.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("assistant.base_url must not be empty")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("assistant.base_url must be an absolute URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("assistant.base_url must use http or https")
	}

	if cfg.Gesture.HoldMS <= 0 {
		return nil, fmt.Errorf("gesture.hold_ms must be > 0")
	}
	if cfg.Gesture.ScrollThreshold <= 0 {
		return nil, fmt.Errorf("gesture.scroll_threshold must be > 0")
	}
	if cfg.Gesture.HoldMS < 100 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("gesture.hold_ms=%d is short enough to misread taps as holds", cfg.Gesture.HoldMS)})
	}

	if cfg.Frames.IntervalS <= 0 {
		return nil, fmt.Errorf("frames.interval_s must be > 0")
	}

	if strings.TrimSpace(cfg.Audio.Input) == "" {
		return nil, fmt.Errorf("audio.input must not be empty")
	}
	if cfg.Audio.PlaybackRate <= 0 {
		return nil, fmt.Errorf("audio.playback_rate must be > 0")
	}

	if cfg.Playback.UnlockAttempts <= 0 {
		return nil, fmt.Errorf("playback.unlock_attempts must be > 0")
	}
	if cfg.Playback.RetryMS <= 0 {
		return nil, fmt.Errorf("playback.retry_ms must be > 0")
	}
	if cfg.Playback.RampMS <= 0 {
		return nil, fmt.Errorf("playback.ramp_ms must be > 0")
	}

	if strings.TrimSpace(cfg.Gateway.Listen) == "" {
		return nil, fmt.Errorf("gateway.listen must not be empty")
	}

	if cfg.Frames.Enable {
		if strings.TrimSpace(cfg.Camera.Device) == "" {
			return nil, fmt.Errorf("camera.device must not be empty when frames.enable=true")
		}
		if len(cfg.Camera.Command.Argv) == 0 {
			return nil, fmt.Errorf("camera.capture_cmd must not be empty when frames.enable=true")
		}
	}

	return warnings, nil
}
