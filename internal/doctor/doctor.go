// Package doctor runs runtime readiness diagnostics for config, tools, audio,
// camera, and the assistant backend.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sf-hacks-2025-project/foresight/internal/assist"
	"github.com/sf-hacks-2025-project/foresight/internal/audio"
	"github.com/sf-hacks-2025-project/foresight/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available for control socket", "XDG_RUNTIME_DIR is empty"))

	if cfg.Config.Frames.Enable {
		checks = append(checks, checkCommand(cfg.Config.Camera.Command.Argv, "camera.capture_cmd"))
		checks = append(checks, checkDevicePath(cfg.Config.Camera.Device))
	}

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkAssistantReady(cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkDevicePath validates that the configured video device node exists.
func checkDevicePath(device string) Check {
	if strings.TrimSpace(device) == "" {
		return Check{Name: "camera.device", Pass: false, Message: "device is empty"}
	}
	if _, err := os.Stat(device); err != nil {
		return Check{Name: "camera.device", Pass: false, Message: fmt.Sprintf("stat %s: %v", device, err)}
	}
	return Check{Name: "camera.device", Pass: true, Message: fmt.Sprintf("found %s", device)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkAssistantReady probes the backend health endpoint.
func checkAssistantReady(cfg config.Config) Check {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := assist.NewClient(nil, cfg.Assistant.BaseURL)
	if err := client.Health(ctx); err != nil {
		return Check{Name: "assistant.ready", Pass: false, Message: err.Error()}
	}
	return Check{Name: "assistant.ready", Pass: true, Message: fmt.Sprintf("ready at %s", cfg.Assistant.BaseURL)}
}
