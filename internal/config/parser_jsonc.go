package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Assistant *jsoncAssistant `json:"assistant"`
	Gesture   *jsoncGesture   `json:"gesture"`
	Frames    *jsoncFrames    `json:"frames"`
	Audio     *jsoncAudio     `json:"audio"`
	Playback  *jsoncPlayback  `json:"playback"`
	Gateway   *jsoncGateway   `json:"gateway"`
	Camera    *jsoncCamera    `json:"camera"`
	Store     *jsoncStore     `json:"store"`
}

type jsoncAssistant struct {
	BaseURL *string `json:"base_url"`
}

type jsoncGesture struct {
	HoldMS          *int     `json:"hold_ms"`
	ScrollThreshold *float64 `json:"scroll_threshold"`
}

type jsoncFrames struct {
	Enable    *bool `json:"enable"`
	IntervalS *int  `json:"interval_s"`
}

type jsoncAudio struct {
	Input        *string `json:"input"`
	Fallback     *string `json:"fallback"`
	PlaybackRate *int    `json:"playback_rate"`
}

type jsoncPlayback struct {
	UnlockAttempts *int `json:"unlock_attempts"`
	RetryMS        *int `json:"retry_ms"`
	RampMS         *int `json:"ramp_ms"`
}

type jsoncGateway struct {
	Listen *string `json:"listen"`
}

type jsoncCamera struct {
	Device     *string `json:"device"`
	Size       *string `json:"size"`
	CaptureCmd *string `json:"capture_cmd"`
}

type jsoncStore struct {
	DBPath *string `json:"db_path"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if payload.Assistant != nil && payload.Assistant.BaseURL != nil {
		cfg.Assistant.BaseURL = strings.TrimSpace(*payload.Assistant.BaseURL)
	}

	if payload.Gesture != nil {
		if payload.Gesture.HoldMS != nil {
			cfg.Gesture.HoldMS = *payload.Gesture.HoldMS
		}
		if payload.Gesture.ScrollThreshold != nil {
			cfg.Gesture.ScrollThreshold = *payload.Gesture.ScrollThreshold
		}
	}

	if payload.Frames != nil {
		if payload.Frames.Enable != nil {
			cfg.Frames.Enable = *payload.Frames.Enable
		}
		if payload.Frames.IntervalS != nil {
			cfg.Frames.IntervalS = *payload.Frames.IntervalS
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
		if payload.Audio.PlaybackRate != nil {
			cfg.Audio.PlaybackRate = *payload.Audio.PlaybackRate
		}
	}

	if payload.Playback != nil {
		if payload.Playback.UnlockAttempts != nil {
			cfg.Playback.UnlockAttempts = *payload.Playback.UnlockAttempts
		}
		if payload.Playback.RetryMS != nil {
			cfg.Playback.RetryMS = *payload.Playback.RetryMS
		}
		if payload.Playback.RampMS != nil {
			cfg.Playback.RampMS = *payload.Playback.RampMS
		}
	}

	if payload.Gateway != nil && payload.Gateway.Listen != nil {
		cfg.Gateway.Listen = strings.TrimSpace(*payload.Gateway.Listen)
	}

	if payload.Camera != nil {
		if payload.Camera.Device != nil {
			cfg.Camera.Device = strings.TrimSpace(*payload.Camera.Device)
		}
		if payload.Camera.Size != nil {
			cfg.Camera.Size = strings.TrimSpace(*payload.Camera.Size)
		}
		if payload.Camera.CaptureCmd != nil {
			raw := *payload.Camera.CaptureCmd
			argv, err := parseArgv(raw)
			if err != nil {
				return fmt.Errorf("invalid camera.capture_cmd: %w", err)
			}
			cfg.Camera.Command = CommandConfig{Raw: raw, Argv: argv}
		}
	}

	if payload.Store != nil && payload.Store.DBPath != nil {
		cfg.Store.DBPath = strings.TrimSpace(*payload.Store.DBPath)
	}

	return nil
}

// normalizeJSONC strips // and /* */ comments and trailing commas in one
// pass, preserving byte offsets for decode error positions by blanking
// comment bytes instead of removing them.
func normalizeJSONC(content string) (string, error) {
	out := []byte(content)

	const (
		stateCode = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	st := stateCode
	escape := false
	var lastComma = -1

	for i := 0; i < len(out); i++ {
		ch := out[i]

		switch st {
		case stateString:
			if escape {
				escape = false
			} else if ch == '\\' {
				escape = true
			} else if ch == '"' {
				st = stateCode
			}

		case stateLineComment:
			if ch == '\n' || ch == '\r' {
				st = stateCode
			} else {
				out[i] = ' '
			}

		case stateBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				st = stateCode
			} else if ch != '\n' && ch != '\r' && ch != '\t' {
				out[i] = ' '
			}

		case stateCode:
			switch {
			case ch == '"':
				st = stateString
				lastComma = -1
			case ch == '/' && i+1 < len(out) && out[i+1] == '/':
				out[i] = ' '
				out[i+1] = ' '
				i++
				st = stateLineComment
			case ch == '/' && i+1 < len(out) && out[i+1] == '*':
				out[i] = ' '
				out[i+1] = ' '
				i++
				st = stateBlockComment
			case ch == ',':
				lastComma = i
			case ch == '}' || ch == ']':
				if lastComma >= 0 {
					out[lastComma] = ' '
				}
				lastComma = -1
			case ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t':
				// whitespace keeps a pending trailing comma pending
			default:
				lastComma = -1
			}
		}
	}

	if st == stateBlockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return string(out), nil
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
