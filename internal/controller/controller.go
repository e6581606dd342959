// Package controller coordinates the hold-to-talk turn lifecycle: gesture
// classification, recording, assistant submission, speech playback, and the
// background frame sampling loop.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sf-hacks-2025-project/foresight/internal/assist"
	"github.com/sf-hacks-2025-project/foresight/internal/frames"
	"github.com/sf-hacks-2025-project/foresight/internal/gesture"
	"github.com/sf-hacks-2025-project/foresight/internal/ipc"
	"github.com/sf-hacks-2025-project/foresight/internal/playback"
	"github.com/sf-hacks-2025-project/foresight/internal/record"
	"github.com/sf-hacks-2025-project/foresight/internal/state"
)

const (
	StatusReady     = "hold to talk"
	StatusListening = "listening"
	StatusThinking  = "thinking"
	StatusSpeaking  = "speaking"
	StatusBlocked   = "tap play to hear the response"

	// defaultTurnTimeout bounds one submit-and-synthesize round trip.
	defaultTurnTimeout = 2 * time.Minute
)

// Assistant is the controller-facing subset of the backend client.
type Assistant interface {
	SubmitClip(ctx context.Context, userID string, clip []byte) (assist.ResponseDescriptor, error)
	Synthesize(ctx context.Context, userID string, text string) (assist.SynthesisResult, error)
	UploadFrame(ctx context.Context, userID string, frame []byte) error
	ClearVisualHistory(ctx context.Context, userID string) error
	ClearConversationHistory(ctx context.Context, userID string) error
}

// noopAssistant preserves turn flow when no backend is wired.
type noopAssistant struct{}

func (noopAssistant) SubmitClip(context.Context, string, []byte) (assist.ResponseDescriptor, error) {
	return assist.ResponseDescriptor{}, nil
}
func (noopAssistant) Synthesize(context.Context, string, string) (assist.SynthesisResult, error) {
	return assist.SynthesisResult{}, errors.New("no assistant configured")
}
func (noopAssistant) UploadFrame(context.Context, string, []byte) error      { return nil }
func (noopAssistant) ClearVisualHistory(context.Context, string) error       { return nil }
func (noopAssistant) ClearConversationHistory(context.Context, string) error { return nil }

// TurnLog persists completed turns. All methods are optional effects.
type TurnLog interface {
	AppendTurn(userID string, question string, answer string) error
	ClearHistory(userID string) error
}

type noopTurnLog struct{}

func (noopTurnLog) AppendTurn(string, string, string) error { return nil }
func (noopTurnLog) ClearHistory(string) error               { return nil }

// Scheduler arms delayed callbacks for the gesture and playback timers.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// Config tunes the turn lifecycle.
type Config struct {
	Gesture       gesture.Config
	Playback      playback.Config
	FrameInterval time.Duration
	FramesEnabled bool
	TurnTimeout   time.Duration
}

// Deps are the external collaborators the controller drives.
type Deps struct {
	State      *state.Store
	Scheduler  Scheduler
	Microphone record.Device
	Player     playback.Player
	Camera     frames.Source
	Assistant  Assistant
	Turns      TurnLog
	UserID     string
}

// Controller owns one user's session. It is the gesture listener, the
// recording hook target, and the playback hook target; all cross-module state
// flows through its designated state store mutators.
type Controller struct {
	logger *slog.Logger
	cfg    Config
	st     *state.Store
	assist Assistant
	turns  TurnLog
	camera frames.Source
	userID string

	gest    *gesture.Classifier
	rec     *record.Session
	play    *playback.Session
	sampler *frames.Sampler

	mu     sync.Mutex
	turn   int
	runCtx context.Context
	closed bool
}

// New wires the session modules together around one state store.
func New(logger *slog.Logger, cfg Config, deps Deps) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.State == nil {
		deps.State = state.NewStore()
	}
	if deps.Assistant == nil {
		deps.Assistant = noopAssistant{}
	}
	if deps.Turns == nil {
		deps.Turns = noopTurnLog{}
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}

	c := &Controller{
		logger: logger,
		cfg:    cfg,
		st:     deps.State,
		assist: deps.Assistant,
		turns:  deps.Turns,
		camera: deps.Camera,
		userID: deps.UserID,
		runCtx: context.Background(),
	}

	c.gest = gesture.NewClassifier(logger, cfg.Gesture, deps.Scheduler, c)
	c.rec = record.NewSession(logger, deps.Microphone, record.Hooks{
		RecordingChanged: c.st.SetRecording,
		Finalized:        c.clipFinalized,
		Failed:           c.recordingFailed,
	})
	c.play = playback.NewSession(logger, deps.Player, deps.Scheduler, cfg.Playback, playback.Hooks{
		AssetChanged: c.st.SetAsset,
		Started:      c.playbackStarted,
		Blocked:      c.playbackBlocked,
		Failed:       c.playbackFailed,
	})
	c.sampler = frames.NewSampler(logger, cfg.FrameInterval, deps.Assistant, c.st.SetStatus)

	c.st.SetStatus(StatusReady)
	return c
}

// Start begins background work: the frame sampling loop when a camera is
// wired. The context governs all turn round trips started afterward.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	if !c.cfg.FramesEnabled || c.camera == nil {
		c.logger.Info("frame sampling disabled")
		return nil
	}
	if err := c.sampler.Start(ctx, c.camera, c.userID); err != nil {
		return fmt.Errorf("start frame sampling: %w", err)
	}
	c.st.SetCameraReady(true)
	return nil
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() state.Snapshot {
	return c.st.Snapshot()
}

// OnStateChange registers the observer notified after every state mutation.
func (c *Controller) OnStateChange(fn func(state.Snapshot)) {
	c.st.OnChange(fn)
}

// AssetBytes returns the payload of the current turn's asset, if id matches.
func (c *Controller) AssetBytes(id string) ([]byte, bool) {
	asset := c.play.Asset()
	if asset == nil || asset.ID != id {
		return nil, false
	}
	return asset.Bytes(), true
}

// Pointer surface. The gateway forwards raw contact events here.

func (c *Controller) OnContactStart(pt gesture.Point) { c.gest.OnContactStart(pt) }
func (c *Controller) OnContactMove(pt gesture.Point)  { c.gest.OnContactMove(pt) }
func (c *Controller) OnContactEnd()                   { c.gest.OnContactEnd() }

// gesture.Listener implementation.

func (c *Controller) PressingChanged(v bool) {
	c.st.SetPressing(v)
}

// HoldConfirmed starts a new turn: any pending response is superseded and the
// microphone opens.
func (c *Controller) HoldConfirmed() {
	c.mu.Lock()
	c.turn++
	ctx := c.runCtx
	c.mu.Unlock()

	c.st.ClearError()
	c.st.SetAsset("")
	c.play.Close()

	c.st.SetStatus(StatusListening)
	if err := c.rec.Start(ctx); err != nil {
		c.logger.Error("recording start failed", "error", err)
	}
}

func (c *Controller) ScrollCancelled() {
	c.st.SetStatus(StatusReady)
}

func (c *Controller) Released(holdConfirmed bool) {
	if !holdConfirmed {
		return
	}
	c.st.SetStatus(StatusThinking)
	c.rec.Stop()
}

// record hooks.

func (c *Controller) clipFinalized(clip []byte) {
	c.mu.Lock()
	turn := c.turn
	ctx := c.runCtx
	c.mu.Unlock()

	go c.submitTurn(ctx, turn, clip)
}

func (c *Controller) recordingFailed(err error) {
	if errors.Is(err, record.ErrEmptyClip) {
		c.st.SetStatus(StatusReady)
		c.st.SetError("no speech captured")
		return
	}
	c.logger.Error("recording failed", "error", err)
	c.st.SetStatus(StatusReady)
	c.st.SetError(err.Error())
}

// submitTurn runs one clip through the backend and hands the synthesized
// speech to playback. A newer hold or a reset supersedes the work at each
// checkpoint; superseded turns are dropped without touching playback.
func (c *Controller) submitTurn(ctx context.Context, turn int, clip []byte) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TurnTimeout)
	defer cancel()

	desc, err := c.assist.SubmitClip(ctx, c.userID, clip)
	if err != nil {
		c.turnFailed(turn, fmt.Errorf("submit clip: %w", err))
		return
	}
	if !c.turnCurrent(turn) {
		return
	}

	result, err := c.assist.Synthesize(ctx, c.userID, desc.Text)
	if err != nil {
		c.turnFailed(turn, fmt.Errorf("synthesize response: %w", err))
		return
	}
	defer result.Body.Close()

	asset, err := c.normalize(ctx, result)
	if err != nil {
		c.turnFailed(turn, err)
		return
	}
	if !c.turnCurrent(turn) {
		return
	}

	if err := c.play.Begin(asset); err != nil {
		// Begin reported through the playback failure hook already.
		c.logger.Warn("playback begin failed", "asset_id", asset.ID, "error", err)
	}
	if err := c.turns.AppendTurn(c.userID, "", desc.Text); err != nil {
		c.logger.Warn("transcript append failed", "error", err)
	}
}

// normalize turns a synthesis result into one complete in-memory asset,
// whether the backend answered with a sized body or a chunked stream.
func (c *Controller) normalize(ctx context.Context, result assist.SynthesisResult) (*playback.Asset, error) {
	id := uuid.NewString()
	if result.Buffered {
		payload, err := io.ReadAll(result.Body)
		if err != nil {
			return nil, fmt.Errorf("read synthesis body: %w", err)
		}
		return playback.NewBufferedAsset(id, payload)
	}
	return playback.DrainStream(ctx, id, result.Body)
}

func (c *Controller) turnCurrent(turn int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return turn == c.turn && !c.closed
}

func (c *Controller) turnFailed(turn int, err error) {
	if !c.turnCurrent(turn) {
		return
	}
	c.logger.Error("turn failed", "error", err)
	c.st.SetStatus(StatusReady)
	c.st.SetError(err.Error())
}

// playback hooks.

func (c *Controller) playbackStarted() {
	c.st.SetPlaybackBlocked(false)
	c.st.SetStatus(StatusSpeaking)
}

func (c *Controller) playbackBlocked() {
	c.st.SetPlaybackBlocked(true)
	c.st.SetStatus(StatusBlocked)
}

func (c *Controller) playbackFailed(err error) {
	c.logger.Error("playback failed", "error", err)
	c.st.SetError(err.Error())
}

// NotifyInteraction records that the user has acted on the surface. Playback
// may spend its one deferred retry on it.
func (c *Controller) NotifyInteraction() {
	c.st.MarkInteracted()
	c.play.NotifyInteraction()
}

// Manual transport. Always permitted regardless of unlock state.

func (c *Controller) RequestManualPlay() error {
	if err := c.play.ManualPlay(); err != nil {
		return err
	}
	c.st.SetPlaybackBlocked(false)
	c.st.SetStatus(StatusSpeaking)
	return nil
}

func (c *Controller) RequestManualPause() error {
	return c.play.ManualPause()
}

func (c *Controller) RequestManualSeek(offset time.Duration) error {
	return c.play.ManualSeek(offset)
}

// Reset abandons the in-flight turn and clears conversation and visual
// history on the backend and in the local transcript log.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.turn++
	c.mu.Unlock()

	c.rec.Discard()
	c.play.Close()
	c.st.SetAsset("")
	c.st.ClearError()
	c.st.SetStatus(StatusReady)

	var errs []error
	if err := c.assist.ClearConversationHistory(ctx, c.userID); err != nil {
		errs = append(errs, fmt.Errorf("clear conversation history: %w", err))
	}
	if err := c.assist.ClearVisualHistory(ctx, c.userID); err != nil {
		errs = append(errs, fmt.Errorf("clear visual history: %w", err))
	}
	if err := c.turns.ClearHistory(c.userID); err != nil {
		errs = append(errs, fmt.Errorf("clear transcript log: %w", err))
	}
	return errors.Join(errs...)
}

// Handle serves IPC commands against the running session.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		snap := c.Snapshot()
		return ipc.Response{OK: true, State: snap.Status, Message: statusMessage(snap)}
	case ipc.CommandReset:
		if err := c.Reset(ctx); err != nil {
			return ipc.Response{OK: false, State: c.Snapshot().Status, Error: err.Error()}
		}
		return ipc.Response{OK: true, State: c.Snapshot().Status, Message: "session reset"}
	default:
		return ipc.Response{OK: false, State: c.Snapshot().Status, Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func statusMessage(snap state.Snapshot) string {
	switch {
	case snap.Recording:
		return "recording"
	case snap.PlaybackBlocked:
		return "response waiting on user gesture"
	case snap.AssetID != "":
		return "response ready"
	default:
		return "idle"
	}
}

// Close stops background work and releases playback. The controller cannot be
// reused afterward.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.turn++
	c.mu.Unlock()

	c.sampler.Stop()
	c.rec.Discard()
	c.play.Close()
}
