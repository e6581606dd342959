package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// envOverlay carries FORESIGHT_* environment overrides. Pointer fields stay
// nil when the variable is unset, so only present variables touch the file
// configuration.
type envOverlay struct {
	AssistantBaseURL *string  `env:"FORESIGHT_ASSISTANT_URL"`
	HoldMS           *int     `env:"FORESIGHT_HOLD_MS"`
	ScrollThreshold  *float64 `env:"FORESIGHT_SCROLL_THRESHOLD"`
	FramesEnable     *bool    `env:"FORESIGHT_FRAMES_ENABLE"`
	FrameIntervalS   *int     `env:"FORESIGHT_FRAME_INTERVAL_S"`
	AudioInput       *string  `env:"FORESIGHT_AUDIO_INPUT"`
	PlaybackRate     *int     `env:"FORESIGHT_PLAYBACK_RATE"`
	GatewayListen    *string  `env:"FORESIGHT_GATEWAY_LISTEN"`
	CameraDevice     *string  `env:"FORESIGHT_CAMERA_DEVICE"`
	DBPath           *string  `env:"FORESIGHT_DB_PATH"`
}

// applyEnv layers environment overrides on top of cfg.
func applyEnv(cfg *Config) error {
	var overlay envOverlay
	if err := env.Parse(&overlay); err != nil {
		return fmt.Errorf("parse environment overrides: %w", err)
	}

	if overlay.AssistantBaseURL != nil {
		cfg.Assistant.BaseURL = *overlay.AssistantBaseURL
	}
	if overlay.HoldMS != nil {
		cfg.Gesture.HoldMS = *overlay.HoldMS
	}
	if overlay.ScrollThreshold != nil {
		cfg.Gesture.ScrollThreshold = *overlay.ScrollThreshold
	}
	if overlay.FramesEnable != nil {
		cfg.Frames.Enable = *overlay.FramesEnable
	}
	if overlay.FrameIntervalS != nil {
		cfg.Frames.IntervalS = *overlay.FrameIntervalS
	}
	if overlay.AudioInput != nil {
		cfg.Audio.Input = *overlay.AudioInput
	}
	if overlay.PlaybackRate != nil {
		cfg.Audio.PlaybackRate = *overlay.PlaybackRate
	}
	if overlay.GatewayListen != nil {
		cfg.Gateway.Listen = *overlay.GatewayListen
	}
	if overlay.CameraDevice != nil {
		cfg.Camera.Device = *overlay.CameraDevice
	}
	if overlay.DBPath != nil {
		cfg.Store.DBPath = *overlay.DBPath
	}

	return nil
}
