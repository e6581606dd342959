// Package gateway serves the UI surface: a websocket of pointer and transport
// events inbound, state snapshots outbound, plus the asset download endpoint.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sf-hacks-2025-project/foresight/internal/gesture"
	"github.com/sf-hacks-2025-project/foresight/internal/state"
)

const (
	writeTimeout    = 5 * time.Second
	maxMessageBytes = 1 << 16

	// sendBuffer bounds the per-connection outbound queue. A client that
	// cannot keep up with snapshot pushes is dropped.
	sendBuffer = 32
)

// Session is the gateway-facing subset of the session controller.
type Session interface {
	OnContactStart(pt gesture.Point)
	OnContactMove(pt gesture.Point)
	OnContactEnd()
	NotifyInteraction()
	RequestManualPlay() error
	RequestManualPause() error
	RequestManualSeek(offset time.Duration) error
	Reset(ctx context.Context) error
	Snapshot() state.Snapshot
	OnStateChange(fn func(state.Snapshot))
	AssetBytes(id string) ([]byte, bool)
}

// Server owns the HTTP listener and all websocket connections.
type Server struct {
	logger   *slog.Logger
	sess     Session
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]chan []byte
}

func NewServer(logger *slog.Logger, sess Session) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		logger: logger,
		sess:   sess,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]chan []byte),
	}
	sess.OnStateChange(s.broadcastState)
	return s
}

// Handler returns the full gateway routing surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/asset/", s.handleAsset)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs the listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("gateway listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeAll()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway listener: %w", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(maxMessageBytes)

	send := make(chan []byte, sendBuffer)
	s.mu.Lock()
	s.conns[conn] = send
	s.mu.Unlock()

	s.logger.Info("client connected", "remote", conn.RemoteAddr().String())

	// The client gets the current snapshot immediately so it renders the
	// right controls before the first mutation.
	s.enqueue(send, StateFrame{Type: "state", State: s.sess.Snapshot()})

	go s.writeLoop(conn, send)
	s.readLoop(r.Context(), conn, send)

	// The read loop was the only other sender, so closing here is safe and
	// lets the write loop flush and finish.
	s.detach(conn)
	close(send)
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, send chan []byte) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ev ClientEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.enqueue(send, ErrorFrame{Type: "error", Error: "malformed event"})
			continue
		}

		// Any inbound event counts as a user interaction for the
		// playback unlock protocol.
		s.sess.NotifyInteraction()

		if err := s.dispatch(ctx, ev); err != nil {
			s.enqueue(send, ErrorFrame{Type: "error", Event: ev.Type, Error: err.Error()})
		}
	}
}

func (s *Server) dispatch(ctx context.Context, ev ClientEvent) error {
	switch ev.Type {
	case EventContactStart:
		s.sess.OnContactStart(gesture.Point{X: ev.X, Y: ev.Y})
	case EventContactMove:
		s.sess.OnContactMove(gesture.Point{X: ev.X, Y: ev.Y})
	case EventContactEnd:
		s.sess.OnContactEnd()
	case EventPlay:
		return s.sess.RequestManualPlay()
	case EventPause:
		return s.sess.RequestManualPause()
	case EventSeek:
		return s.sess.RequestManualSeek(time.Duration(ev.OffsetMS) * time.Millisecond)
	case EventInteraction:
		// NotifyInteraction already ran.
	case EventReset:
		return s.sess.Reset(ctx)
	default:
		return fmt.Errorf("unknown event type: %s", ev.Type)
	}
	return nil
}

func (s *Server) writeLoop(conn *websocket.Conn, send chan []byte) {
	for payload := range send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			// Leave the channel open; the read loop's exit closes it.
			s.detach(conn)
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	_ = conn.Close()
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/asset/")
	if id == "" {
		http.Error(w, "asset id is required", http.StatusBadRequest)
		return
	}
	payload, ok := s.sess.AssetBytes(id)
	if !ok {
		http.Error(w, "no such asset", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(payload)))
	_, _ = w.Write(payload)
}

// broadcastState fans one snapshot out to every connected client.
func (s *Server) broadcastState(snap state.Snapshot) {
	payload, err := json.Marshal(StateFrame{Type: "state", State: snap})
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, send := range s.conns {
		select {
		case send <- payload:
		default:
			// Slow consumer: skip this snapshot. The next mutation
			// carries full state again.
		}
	}
}

func (s *Server) enqueue(send chan []byte, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case send <- payload:
	default:
	}
}

// detach removes the connection without closing its queue.
func (s *Server) detach(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

// closeAll force-closes every socket; each handler then tears down its own
// queue.
func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}
