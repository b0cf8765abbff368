package ws

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/b0bbywan/go-mpris-bridge/backend"
	"github.com/b0bbywan/go-mpris-bridge/backend/mpris"
	"github.com/b0bbywan/go-mpris-bridge/config"
	"github.com/b0bbywan/go-mpris-bridge/logger"
)

const writeWait = 10 * time.Second

// Registry is the surface of the player registry the WebSocket layer uses.
type Registry interface {
	Snapshot() map[string]mpris.TrackState
	Play(id string) error
	Pause(id string) error
	PlayPause(id string) error
	Stop(id string) error
	Next(id string) error
	Previous(id string) error
	Seek(id string, offsetMicros int64) error
	SetPosition(id string, positionMicros int64) error
}

type Server struct {
	addr        string
	registry    Registry
	broadcaster *backend.Broadcaster
	upgrader    websocket.Upgrader
}

// NewServer builds the WebSocket server. Each connected client gets its own
// broadcaster subscription, so one slow connection never stalls the others.
func NewServer(ctx context.Context, bind string, cfg *config.WSConfig, b *backend.Backend) *Server {
	return &Server{
		addr:        fmt.Sprintf("%s:%d", bind, cfg.Port),
		registry:    b.MPRIS,
		broadcaster: b.NewBroadcaster(ctx),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// No client auth: anyone who can reach the port may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleClient)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: mux,
		// Derive request contexts from ctx so client handlers exit cleanly
		// when the application shuts down.
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Info("[ws] server shutdown error: %v", err)
		}
	}()

	logger.Info("[ws] server running on %s", s.addr)
	return srv.ListenAndServe()
}

// handleClient upgrades the connection, sends the full snapshot and then
// relays broadcast events until the client goes away.
func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[ws] upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	logger.Info("[ws] client connected: %s", conn.RemoteAddr())

	// Subscribe before taking the snapshot: changes racing the connect are
	// queued behind it instead of being lost. A duplicate full-state push is
	// harmless, a missed one is not.
	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debug("[ws] closing %s: %v", conn.RemoteAddr(), err)
		}
		logger.Info("[ws] client disconnected: %s", conn.RemoteAddr())
	}()

	if err := s.send(conn, encodeSnapshot(s.registry.Snapshot())); err != nil {
		logger.Warn("[ws] snapshot send to %s failed: %v", conn.RemoteAddr(), err)
		return
	}

	// Inbound commands are read in their own goroutine; this goroutine owns
	// all writes, which keeps per-client message order intact.
	done := make(chan struct{})
	go s.readLoop(conn, done)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := encodeEvent(e)
			if err != nil {
				logger.Warn("[ws] failed to encode %s event: %v", e.Type, err)
				continue
			}
			if data == nil {
				continue
			}
			if err := s.send(conn, data); err != nil {
				logger.Warn("[ws] send to %s failed: %v", conn.RemoteAddr(), err)
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop parses inbound client messages and routes them as commands.
// Command errors are logged and never answered: the protocol is
// fire-and-forget, state changes surface through the broadcast path.
func (s *Server) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := dispatch(s.registry, raw); err != nil {
			logger.Warn("[ws] command from %s rejected: %v", conn.RemoteAddr(), err)
		}
	}
}
