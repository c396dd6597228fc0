// internal/api/api.go
// HTTP surface of the chat server: the websocket endpoint, health and user
// listing endpoints, Prometheus metrics and the bundled browser client.
package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/erilali/webchat/internal/config"
	"github.com/erilali/webchat/internal/hub"
	"github.com/erilali/webchat/internal/logger"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Version is reported by /health.
const Version = "1.0.0"

const (
	natsReconnectWait = 2 * time.Second
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

//go:embed static/index.html
var staticFS embed.FS

var indexPage = template.Must(template.ParseFS(staticFS, "static/index.html"))

// ConnectNATS connects to the event feed broker. It returns nil when url is
// empty or the broker cannot be reached; the server then runs without the
// feed.
func ConnectNATS(url string, serverLogger *logger.Logger) *nats.Conn {
	if url == "" {
		serverLogger.Info("NATS_URL not set, event feed disabled")
		return nil
	}

	serverLogger.Infof("Connecting to NATS at %s", url)
	nc, err := nats.Connect(url,
		nats.Name("webchat"),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				serverLogger.Warnf("Disconnected from NATS: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			serverLogger.Infof("Reconnected to NATS at %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		serverLogger.Errorf("Error connecting to NATS: %v", err)
		serverLogger.Warn("Running without NATS connection. Event feed will be disabled.")
		return nil
	}

	serverLogger.Info("Successfully connected to NATS")
	return nc
}

// HubTransport converts the server configuration into hub transport settings.
func HubTransport(cfg config.Config) hub.TransportConfig {
	return hub.TransportConfig{
		MaxMessageSize: cfg.MaxMessageSize,
		SendBufferSize: cfg.SendBufferSize,
		WriteTimeout:   cfg.WriteTimeout,
		PongTimeout:    cfg.PongTimeout,
		PingPeriod:     cfg.PingPeriod(),
		AllowedOrigins: cfg.Origins(),
	}
}

// Server serves the chat endpoint and its companion HTTP routes.
type Server struct {
	cfg    config.Config
	hub    *hub.Hub
	nc     *nats.Conn
	logger *logger.Logger
	http   *http.Server
}

// NewServer wires the routes. nc may be nil.
func NewServer(cfg config.Config, h *hub.Hub, nc *nats.Conn, serverLogger *logger.Logger) *Server {
	if serverLogger == nil {
		serverLogger = logger.Nop()
	}
	s := &Server{cfg: cfg, hub: h, nc: nc, logger: serverLogger}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.hub.ServeWs)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/users", s.handleUsers)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage.Execute(w, struct{ Path string }{s.cfg.Path}); err != nil {
		s.logger.Errorf("Error rendering index page: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	natsStatus := "disabled"
	if s.nc != nil {
		natsStatus = "disconnected"
		if s.nc.Status() == nats.CONNECTED {
			natsStatus = "connected"
		}
	}
	writeJSON(w, s.logger, map[string]interface{}{
		"status":      "ok",
		"nats":        natsStatus,
		"uptime":      time.Since(s.hub.StartTime).Round(time.Second).String(),
		"connections": s.hub.Count(),
		"version":     Version,
	})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users := s.hub.Users()
	writeJSON(w, s.logger, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

func writeJSON(w http.ResponseWriter, log *logger.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Error encoding response: %v", err)
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// within the configured timeout: the HTTP server stops accepting, open chat
// connections are closed and the NATS connection is drained.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Infof("Server started at %s (chat endpoint %s)", ln.Addr(), s.cfg.Path)
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	s.logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Errorf("HTTP server shutdown error: %v", err)
		err = fmt.Errorf("shutdown: %w", err)
	}

	// Hijacked websocket connections are not tracked by http.Server.
	s.hub.Shutdown()

	if s.nc != nil {
		if drainErr := s.nc.Drain(); drainErr != nil {
			s.logger.Warnf("Error draining NATS connection: %v", drainErr)
		}
	}

	s.logger.Info("HTTP server shutdown completed")
	return err
}
