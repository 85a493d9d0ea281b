package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/lovstudio/lovcode/backend/internal/api/http"
	"github.com/lovstudio/lovcode/backend/internal/api/middleware"
	"github.com/lovstudio/lovcode/backend/internal/api/ws"
	"github.com/lovstudio/lovcode/backend/internal/domain/workspace"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/config"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/logging"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/monitoring"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/tracing"
	"github.com/lovstudio/lovcode/backend/internal/providers/terminal"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	http      *http.Server
	terminals *terminal.Registry
	store     *workspace.Store
	hub       *ws.Hub
	tracer    *tracing.Tracer
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing lovcode backend",
		zap.String("addr", cfg.Addr()),
		zap.String("workspace", cfg.Workspace.Path),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("lovcode-backend", logger.Named("tracing"))

	hub := ws.NewHub(logger.Named("ws"), metrics, cfg.Stream.ClientBuffer)
	terminals := terminal.NewRegistry(hub, terminal.Options{
		Logger:  logger.Named("terminal"),
		Metrics: metrics,
		Shell:   cfg.Terminal.Shell,
		Cols:    uint16(cfg.Terminal.Cols),
		Rows:    uint16(cfg.Terminal.Rows),
	})
	store := workspace.NewStore(cfg.Workspace.Path, logger.Named("workspace"), metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(terminals, store, hub, metrics, logger.Named("http"))
	handlers.Register(router)

	wsHandler := ws.NewHandler(hub, terminals, logger.Named("ws"))
	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		terminals: terminals,
		store:     store,
		hub:       hub,
		tracer:    tracer,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Router exposes the HTTP handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until Close is called
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops accepting requests, kills every PTY session and disconnects
// event stream clients.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down HTTP server: %w", err))
	}

	s.hub.Close()

	if err := s.terminals.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop PTY sessions: %w", err))
	}
	s.logger.Info("Closed PTY sessions")

	s.tracer.Close()
	s.logger.Sync()

	return errors.Join(errs...)
}
