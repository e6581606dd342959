package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONCOverridesDefaults(t *testing.T) {
	input := `
{
  // where the assistant lives
  "assistant": { "base_url": "http://assist.local:9000" },
  "gesture": {
    "hold_ms": 650,
    "scroll_threshold": 14.5,
  },
  "frames": { "enable": false, "interval_s": 40 },
  "audio": { "input": "pipewire", "playback_rate": 48000 },
  "playback": { "unlock_attempts": 3 },
  "gateway": { "listen": "0.0.0.0:9001" },
  "camera": {
    "device": "/dev/video2",
    "capture_cmd": "ffmpeg -hwaccel auto", /* hardware decode */
  },
  "store": { "db_path": "/tmp/foresight.sqlite" },
}
`

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "http://assist.local:9000", cfg.Assistant.BaseURL)
	require.Equal(t, 650, cfg.Gesture.HoldMS)
	require.InDelta(t, 14.5, cfg.Gesture.ScrollThreshold, 1e-9)
	require.False(t, cfg.Frames.Enable)
	require.Equal(t, 40, cfg.Frames.IntervalS)
	require.Equal(t, "pipewire", cfg.Audio.Input)
	require.Equal(t, 48000, cfg.Audio.PlaybackRate)
	require.Equal(t, 3, cfg.Playback.UnlockAttempts)
	require.Equal(t, "0.0.0.0:9001", cfg.Gateway.Listen)
	require.Equal(t, "/dev/video2", cfg.Camera.Device)
	require.Equal(t, []string{"ffmpeg", "-hwaccel", "auto"}, cfg.Camera.Command.Argv)
	require.Equal(t, "/tmp/foresight.sqlite", cfg.Store.DBPath)

	// Untouched sections keep defaults.
	require.Equal(t, "default", cfg.Audio.Fallback)
	require.Equal(t, 1000, cfg.Playback.RetryMS)
}

func TestParseJSONCPartialSectionKeepsSiblings(t *testing.T) {
	input := `{ "gesture": { "hold_ms": 800 } }`

	cfg, _, err := Parse(input, Default())
	require.NoError(t, err)
	require.Equal(t, 800, cfg.Gesture.HoldMS)
	require.InDelta(t, 10.0, cfg.Gesture.ScrollThreshold, 1e-9)
}

func TestParseJSONCUnknownKeyFails(t *testing.T) {
	_, _, err := Parse(`{ "gessture": {} }`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseJSONCInvalidCaptureCmd(t *testing.T) {
	_, _, err := Parse(`{ "camera": { "capture_cmd": "ffmpeg \"oops" } }`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "camera.capture_cmd")
}

func TestParseJSONCSyntaxErrorReportsPosition(t *testing.T) {
	input := "{\n  \"gesture\": { \"hold_ms\": }\n}"
	_, _, err := Parse(input, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestParseEmptyContentReturnsDefaults(t *testing.T) {
	cfg, _, err := Parse("   \n\t", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestNormalizeJSONCRemovesCommentsAndTrailingCommas(t *testing.T) {
	input := `
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {
    "enabled": true,
  },
}
`

	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")
	require.NoError(t, json.Unmarshal([]byte(normalized), &map[string]any{}))
}

func TestNormalizeJSONCRetainsCommentLikeTextInsideStrings(t *testing.T) {
	input := `{"value":"contains // and /* comment-like */ text"}`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Contains(t, normalized, "// and /* comment-like */")
}

func TestNormalizeJSONCPreservesOffsets(t *testing.T) {
	input := "{ /* pad */ \"a\": 1 }"
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Len(t, normalized, len(input))
}

func TestNormalizeJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	err := ensureSingleJSONValue(decoder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"

	line, col := offsetToLineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = offsetToLineCol(content, 8)
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)
}
