package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"gbswap/internal/config"
	"gbswap/internal/logging"
	"gbswap/internal/session"
)

// formOverhead is the multipart framing allowed on top of the upload limit.
const formOverhead = 1 << 20

// Server serves the upload page and the swap API.
type Server struct {
	bind      string
	token     string
	maxUpload int64
	logger    *slog.Logger
	shell     *session.Shell

	lockPath string
	lock     *flock.Flock

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	running  atomic.Bool
}

// New constructs a server from configuration. It does not listen until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("web server: config is required")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("web server: bind address is required")
	}
	logger = logging.NewComponentLogger(logger, "web")

	srv := &Server{
		bind:      bind,
		token:     cfg.Server.APIToken,
		maxUpload: cfg.Server.MaxUploadBytes,
		logger:    logger,
		shell: session.NewShell(session.Options{
			MaxUploadBytes:  cfg.Server.MaxUploadBytes,
			PreviewMaxWidth: cfg.Server.PreviewMaxWidth,
		}, logger),
		lockPath: cfg.LockPath(),
	}
	srv.lock = flock.New(srv.lockPath)
	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/swap", authMiddleware(s.token, s.handleSwap))
	mux.HandleFunc("/api/help", authMiddleware(s.token, s.handleHelp))
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start takes the state directory lock, binds the listener and serves in the
// background until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("web server already running")
	}
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure state directory: %w", err)
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another gbswap server is already using %s", filepath.Dir(s.lockPath))
	}

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.running.Store(true)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("web server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
		logging.Bool("api_token", s.token != ""),
	)
	return nil
}

// Addr reports the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the lock. It is safe to call more
// than once.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("web server shutdown incomplete", logging.Error(err))
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release lock", logging.Error(err))
	}
	s.logger.Info("web server stopped")
}
