package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	capture := "ffmpeg"

	return Config{
		Assistant: AssistantConfig{
			BaseURL: "http://127.0.0.1:8000",
		},
		Gesture: GestureConfig{
			HoldMS:          500,
			ScrollThreshold: 10,
		},
		Frames: FramesConfig{
			Enable:    true,
			IntervalS: 25,
		},
		Audio: AudioConfig{
			Input:        "default",
			Fallback:     "default",
			PlaybackRate: 24000,
		},
		Playback: PlaybackConfig{
			UnlockAttempts: 5,
			RetryMS:        1000,
			RampMS:         300,
		},
		Gateway: GatewayConfig{
			Listen: "127.0.0.1:8787",
		},
		Camera: CameraConfig{
			Device:  "/dev/video0",
			Size:    "1280x720",
			Command: CommandConfig{Raw: capture, Argv: mustParseArgv(capture)},
		},
		Store: StoreConfig{},
	}
}
