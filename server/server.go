package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/server/endpoint"
	"github.com/kbukum/voicegate/server/middleware"
)

// Server is an HTTP server backed by Gin with optional support for
// additional http.Handler mounts on the same port.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	config     Config
	log        *logger.Logger
	announce   io.Writer

	mu   sync.RWMutex
	addr net.Addr
}

// New creates a new Server. The Gin engine is created but no middleware is
// applied yet.
func New(cfg Config, log *logger.Logger) *Server {
	cfg.ApplyDefaults()

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      h2c.NewHandler(mux, h2s),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		config:     cfg,
		log:        log.WithComponent("server"),
		announce:   os.Stdout,
	}
}

// SetAnnounceWriter redirects the "PORT <n>" line printed when
// Config.Announce is set.
func (s *Server) SetAnnounceWriter(w io.Writer) { s.announce = w }

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Routers returns the root router and the API prefix group. Routes that
// must be reachable both with and without the prefix are registered on
// each of them.
func (s *Server) Routers() []gin.IRouter {
	return []gin.IRouter{s.engine, s.engine.Group(s.config.APIPrefix)}
}

// Handle mounts an http.Handler at the given pattern on the root ServeMux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{
		"pattern": pattern,
	})
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := s.listen()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.addr = listener.Addr()
	s.mu.Unlock()

	if s.config.Announce && s.announce != nil {
		fmt.Fprintf(s.announce, "PORT %d\n", s.Port())
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": listener.Addr().String(),
	})
	return nil
}

// listen binds the configured address. Port 0 always lets the kernel pick;
// a busy port does so only when PortFallback is enabled.
func (s *Server) listen() (net.Listener, error) {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err == nil {
		if s.config.Port == 0 {
			s.log.Info("Auto-discovered free port", map[string]interface{}{
				"addr": listener.Addr().String(),
			})
		}
		return listener, nil
	}
	if !s.config.PortFallback || !errors.Is(err, syscall.EADDRINUSE) {
		return nil, fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	s.log.Warn("Port in use, falling back to a free port", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	listener, err = net.Listen("tcp", net.JoinHostPort(s.config.Host, "0"))
	if err != nil {
		return nil, fmt.Errorf("server failed to bind a free port on %s: %w", s.config.Host, err)
	}
	return listener, nil
}

// Stop gracefully shuts down the server within Config.ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.addr != nil {
		return s.addr.String()
	}
	return s.httpServer.Addr
}

// Port returns the bound port once started, otherwise the configured one.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tcp, ok := s.addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return s.config.Port
}

// ApplyMiddleware applies the standard middleware stack to the server's Gin engine:
// recovery, request-ID, CORS, body-size limit, and request logging.
func (s *Server) ApplyMiddleware() {
	s.engine.Use(middleware.Recovery(s.log))
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.CORS(s.config.CORS))
	if s.config.MaxBodySize != "" {
		s.engine.Use(middleware.BodySizeLimit(s.config.MaxBodySize))
	}
	s.engine.Use(middleware.RequestLogger(s.log))
}

// RegisterDefaultEndpoints registers /health, /info and /version on the
// root router and under the API prefix. model feeds the "model" key of /info.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker, model endpoint.ModelInfoFunc) {
	for _, r := range s.Routers() {
		r.GET("/health", endpoint.Health(serviceName, checker))
		r.GET("/info", endpoint.Info(serviceName, model))
		r.GET("/version", endpoint.Version())
	}
	s.engine.GET("/", endpoint.Root(serviceName, s.config.APIPrefix))
}

// ApplyDefaults applies the standard middleware stack and registers default endpoints.
func (s *Server) ApplyDefaults(serviceName string, checker endpoint.HealthChecker, model endpoint.ModelInfoFunc) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(serviceName, checker, model)
}
