// Package server wires the tracker runtime, HTTP API and health lifecycle.
package server

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

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/events"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/principal"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/timeouts"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/api/httpapi"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/catalog"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/comment"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/reaction"
	trackersqlite "github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage/sqlite"
)

// HealthService is the gRPC health service name reported while serving.
const HealthService = "tracker"

// Config describes one tracker process.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// HealthAddr is the gRPC health listen address; empty disables it.
	HealthAddr string
	DBPath     string
	// NATSURL enables event publishing when set.
	NATSURL    string
	InitStream bool
	Auth       principal.Config
	Logger     *slog.Logger
}

// Server hosts the tracker HTTP API, the optional gRPC health probe and the
// storage lifecycle.
type Server struct {
	logger       *slog.Logger
	httpListener net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	store        *trackersqlite.Store
	catalog      *catalog.Service
	broker       *events.JetStream
}

// New opens the store, connects the event broker and binds listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "tracker.db")
	}

	store, err := openTrackerStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	s := &Server{logger: logger, store: store}

	var publisher events.Publisher = events.Noop{}
	if strings.TrimSpace(cfg.NATSURL) != "" {
		broker, err := events.Connect(ctx, events.Config{URL: cfg.NATSURL, InitStream: cfg.InitStream}, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.broker = broker
		publisher = broker
	}
	emitter := events.NewEmitter(publisher, logger)

	s.catalog = catalog.NewService(store, logger)
	handler := httpapi.NewHandler(httpapi.Config{
		Reactions: reaction.NewService(store, emitter, logger),
		Comments:  comment.NewService(store, emitter, logger),
		Catalog:   s.catalog,
		Health:    s.ready,
		Auth:      cfg.Auth,
		Logger:    logger,
	})

	s.httpListener, err = net.Listen("tcp", cfg.Addr)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	if strings.TrimSpace(cfg.HealthAddr) != "" {
		s.grpcListener, err = net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.HealthAddr, err)
		}
		s.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		s.health = health.NewServer()
		grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
		s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		s.health.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	return s, nil
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the gRPC health listener address, or "" when disabled.
func (s *Server) HealthAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a tracker server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the HTTP API and health probe until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.logger.Info("tracker listening", "addr", s.Addr(), "health_addr", s.HealthAddr())
	serveErr := make(chan error, 2)
	go func() {
		err := s.httpServer.Serve(s.httpListener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()
	if s.grpcServer != nil {
		go func() {
			err := s.grpcServer.Serve(s.grpcListener)
			if errors.Is(err, grpc.ErrServerStopped) {
				err = nil
			}
			serveErr <- err
		}()
	}

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-serveErr:
		if shutdownErr := s.shutdown(); err == nil {
			err = shutdownErr
		}
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

func (s *Server) shutdown() error {
	if s.health != nil {
		s.health.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	s.catalog.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	for _, listener := range []net.Listener{s.httpListener, s.grpcListener} {
		if listener != nil {
			_ = listener.Close()
		}
	}
	s.catalog.Wait()
	if s.broker != nil {
		if err := s.broker.Close(); err != nil {
			s.logger.Warn("close event broker", "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close tracker store", "error", err)
		}
	}
}

func (s *Server) ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return err
	}
	if s.broker != nil {
		if err := s.broker.HealthCheck(); err != nil {
			return fmt.Errorf("event broker: %w", err)
		}
	}
	return nil
}

func openTrackerStore(ctx context.Context, path string) (*trackersqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := trackersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tracker sqlite store: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.StoreOpen)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ping tracker store: %w", err)
	}
	return store, nil
}
