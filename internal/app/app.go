// Package app dispatches CLI commands to the daemon, IPC forwarding, and
// diagnostic surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/sf-hacks-2025-project/foresight/internal/assist"
	"github.com/sf-hacks-2025-project/foresight/internal/audio"
	"github.com/sf-hacks-2025-project/foresight/internal/camera"
	"github.com/sf-hacks-2025-project/foresight/internal/cli"
	"github.com/sf-hacks-2025-project/foresight/internal/config"
	"github.com/sf-hacks-2025-project/foresight/internal/controller"
	"github.com/sf-hacks-2025-project/foresight/internal/doctor"
	"github.com/sf-hacks-2025-project/foresight/internal/frames"
	"github.com/sf-hacks-2025-project/foresight/internal/gateway"
	"github.com/sf-hacks-2025-project/foresight/internal/gesture"
	"github.com/sf-hacks-2025-project/foresight/internal/identity"
	"github.com/sf-hacks-2025-project/foresight/internal/ipc"
	"github.com/sf-hacks-2025-project/foresight/internal/logging"
	"github.com/sf-hacks-2025-project/foresight/internal/playback"
	"github.com/sf-hacks-2025-project/foresight/internal/timers"
	"github.com/sf-hacks-2025-project/foresight/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("foresight"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("foresight"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandReset:
		return r.forwardOrFail(ctx, ipc.CommandReset)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "not running")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		line := resp.State
		if resp.Message != "" {
			line = fmt.Sprintf("%s (%s)", resp.State, resp.Message)
		}
		fmt.Fprintln(r.Stdout, line)
		return 0
	}

	fmt.Fprintln(r.Stdout, "not running")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active foresight session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandRun starts the long-lived session daemon: control socket, identity
// store, audio, camera sampling, and the UI gateway. It blocks until ctx is
// cancelled.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a foresight session is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	dbPath := cfg.Store.DBPath
	if dbPath == "" {
		dbPath, err = identity.DefaultDBPath()
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: resolve state dir: %v\n", err)
			return 1
		}
	}
	store, err := identity.Open(dbPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: open identity store: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	userID, err := store.EnsureUserID()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("session identity", "user_id", userID, "db", dbPath)

	speaker := audio.NewSpeaker(cfg.Audio.PlaybackRate)
	defer func() { _ = speaker.Close() }()

	registry := timers.NewRegistry()
	defer registry.StopAll()

	var source *camera.Grabber
	if cfg.Frames.Enable {
		source = camera.NewGrabber(cfg.Camera.Command.Argv, cfg.Camera.Device, cfg.Camera.Size)
	}

	ctrl := controller.New(logger, controller.Config{
		Gesture: gesture.Config{
			HoldDelay:       time.Duration(cfg.Gesture.HoldMS) * time.Millisecond,
			ScrollThreshold: cfg.Gesture.ScrollThreshold,
		},
		Playback: playback.Config{
			MaxUnlockAttempts: cfg.Playback.UnlockAttempts,
			RetryInterval:     time.Duration(cfg.Playback.RetryMS) * time.Millisecond,
			RampDuration:      time.Duration(cfg.Playback.RampMS) * time.Millisecond,
		},
		FrameInterval: time.Duration(cfg.Frames.IntervalS) * time.Second,
		FramesEnabled: cfg.Frames.Enable && source != nil,
	}, controller.Deps{
		Scheduler:  registry,
		Microphone: &audio.Microphone{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback},
		Player:     speaker,
		Camera:     frameSource(source),
		Assistant:  assist.NewClient(logger, cfg.Assistant.BaseURL),
		Turns:      store,
		UserID:     userID,
	})
	defer ctrl.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := ctrl.Start(runCtx); err != nil {
		logger.Error("frame sampling unavailable", "error", err.Error())
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
	}

	gw := gateway.NewServer(logger, ctrl)
	gatewayErrCh := make(chan error, 1)
	go func() {
		gatewayErrCh <- gw.Serve(runCtx, cfg.Gateway.Listen)
	}()

	ipcErrCh := make(chan error, 1)
	go func() {
		ipcErrCh <- ipc.Serve(runCtx, listener, ctrl)
	}()

	fmt.Fprintf(r.Stdout, "foresight listening on %s\n", cfg.Gateway.Listen)

	var firstErr error
	select {
	case <-ctx.Done():
	case err := <-gatewayErrCh:
		gatewayErrCh = nil
		if err != nil {
			firstErr = fmt.Errorf("gateway server failed: %w", err)
		}
	case err := <-ipcErrCh:
		ipcErrCh = nil
		if err != nil {
			firstErr = fmt.Errorf("ipc server failed: %w", err)
		}
	}
	cancel()

	if gatewayErrCh != nil {
		drainServerErr(r.Stderr, "gateway", gatewayErrCh)
	}
	if ipcErrCh != nil {
		drainServerErr(r.Stderr, "ipc", ipcErrCh)
	}

	if firstErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", firstErr)
		logger.Error("session daemon failed", "error", firstErr.Error())
		return 1
	}

	logger.Info("session daemon stopped")
	return 0
}

// frameSource keeps a nil *Grabber from masquerading as a non-nil interface.
func frameSource(g *camera.Grabber) frames.Source {
	if g == nil {
		return nil
	}
	return g
}

func drainServerErr(w io.Writer, name string, ch <-chan error) {
	select {
	case err := <-ch:
		if err != nil {
			fmt.Fprintf(w, "error: %s server failed: %v\n", name, err)
		}
	case <-time.After(5 * time.Second):
		fmt.Fprintf(w, "warning: %s server did not stop cleanly\n", name)
	}
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
