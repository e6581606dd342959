// Package config resolves, parses, validates, and defaults foresight
// configuration.
package config

// Config is the fully materialized runtime configuration used by the daemon.
type Config struct {
	Assistant AssistantConfig
	Gesture   GestureConfig
	Frames    FramesConfig
	Audio     AudioConfig
	Playback  PlaybackConfig
	Gateway   GatewayConfig
	Camera    CameraConfig
	Store     StoreConfig
}

// AssistantConfig locates the backend that answers turns.
type AssistantConfig struct {
	BaseURL string
}

// GestureConfig tunes press-and-hold classification.
type GestureConfig struct {
	HoldMS          int
	ScrollThreshold float64
}

// FramesConfig controls the background camera sampling loop.
type FramesConfig struct {
	Enable    bool
	IntervalS int
}

// AudioConfig controls capture source selection and playback format.
type AudioConfig struct {
	Input        string
	Fallback     string
	PlaybackRate int
}

// PlaybackConfig tunes the speech playback unlock protocol.
type PlaybackConfig struct {
	UnlockAttempts int
	RetryMS        int
	RampMS         int
}

// GatewayConfig controls the UI websocket listener.
type GatewayConfig struct {
	Listen string
}

// CameraConfig locates the video device and the capture command.
type CameraConfig struct {
	Device  string
	Size    string
	Command CommandConfig
}

// StoreConfig locates the identity and transcript database.
type StoreConfig struct {
	DBPath string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
