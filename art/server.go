package art

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/b0bbywan/go-mpris-bridge/backend"
	"github.com/b0bbywan/go-mpris-bridge/cache"
	"github.com/b0bbywan/go-mpris-bridge/config"
	"github.com/b0bbywan/go-mpris-bridge/logger"
)

// Source resolves a player ID to the local path of its current cover art.
// "" means the player exists but its art is remote or absent.
type Source interface {
	ArtPath(id string) (string, error)
}

// Server serves locally cached cover art so remote UIs can render artwork
// without bus access.
type Server struct {
	addr        string
	source      Source
	info        func() (backend.ServerDeviceInfo, error)
	placeholder string

	// paths caches resolved art paths per player so repeated requests
	// don't hammer the bus.
	paths *cache.Cache[string]
}

func NewServer(bind string, cfg *config.ArtConfig, b *backend.Backend) *Server {
	return &Server{
		addr:        fmt.Sprintf("%s:%d", bind, cfg.Port),
		source:      b.MPRIS,
		info:        b.GetServerDeviceInfo,
		placeholder: cfg.Placeholder,
		paths:       cache.New[string](cfg.CacheTTL),
	}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /art/{player}", s.handleArt)
	mux.HandleFunc("GET /server", s.handleServerInfo)

	srv := &http.Server{
		Addr:        s.addr,
		Handler:     mux,
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Info("[art] server shutdown error: %v", err)
		}
	}()

	logger.Info("[art] http server running on %s", s.addr)
	return srv.ListenAndServe()
}

// handleArt serves the cover art file for one player. Unknown players get a
// 404; known players without local art get the placeholder when configured.
func (s *Server) handleArt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("player")

	path, ok := s.paths.Get(id)
	if !ok {
		resolved, err := s.source.ArtPath(id)
		if err != nil {
			logger.Debug("[art] no art for %s: %v", id, err)
			http.NotFound(w, r)
			return
		}
		path = resolved
		s.paths.Set(id, path)
	}

	if !fileExists(path) {
		path = s.placeholder
	}
	if !fileExists(path) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, path)
}

func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.info()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(info); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
