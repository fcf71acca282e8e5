// Package server orchestrates all components: dialect registry, dispatcher, HTTP gateway, NATS, DB.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/dialect-gateway/internal/config"
	"github.com/morezero/dialect-gateway/pkg/bootstrap"
	"github.com/morezero/dialect-gateway/pkg/commsutil"
	"github.com/morezero/dialect-gateway/pkg/db"
	"github.com/morezero/dialect-gateway/pkg/dispatcher"
	"github.com/morezero/dialect-gateway/pkg/events"
	"github.com/morezero/dialect-gateway/pkg/gateway"
	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

const logPrefix = "server:server"

// Server is the dialect-gateway orchestrator.
type Server struct {
	cfg        *config.Config
	reg        *wrapper.Registry
	disp       *dispatcher.Dispatcher
	repo       *db.Repository
	pool       *pgxpool.Pool
	nc         *comms.Conn
	sub        *comms.Subscription
	httpServer *http.Server
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - Starting dialect-gateway", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := New(ctx, cfg)
	if err != nil {
		return err
	}

	if err := s.Start(ctx); err != nil {
		s.Close()
		return err
	}

	slog.Info(fmt.Sprintf("%s - Dialect-gateway is ready", logPrefix))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.HealthCheckTimeout)
	defer shutdownCancel()
	s.Shutdown(shutdownCtx)

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// New builds the registry and dispatcher, then opens the optional database
// and NATS connections named by cfg.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	// Step 1: Dialect registry from builtins plus bootstrap
	reg, err := newRegistry(cfg.BootstrapFile)
	if err != nil {
		return nil, err
	}
	s.reg = reg

	// Step 2: Database call log
	if cfg.CallLogEnabled() {
		if err := s.openDatabase(ctx); err != nil {
			return nil, err
		}
	}

	// Step 3: NATS
	if cfg.CommsEnabled() {
		nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
		}
		s.nc = nc
		slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))
	}

	// Step 4: Dispatcher
	opts := &dispatcher.Options{}
	if s.nc != nil {
		opts.Publisher = events.NewCommsPublisher(s.nc, &events.CommsPublisherOpts{Subject: cfg.CallEventSubject})
	}
	if s.repo != nil {
		opts.Recorder = s.repo
	}
	s.disp = dispatcher.NewDispatcher(opts)
	if err := dispatcher.RegisterSystemMethods(s.disp, reg); err != nil {
		s.Close()
		return nil, fmt.Errorf("%s - failed to register system methods: %w", logPrefix, err)
	}
	return s, nil
}

func newRegistry(bootstrapFile string) (*wrapper.Registry, error) {
	reg, err := wrapper.NewDefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create dialect registry: %w", logPrefix, err)
	}
	bootstrapCfg, err := bootstrap.LoadBootstrapConfig(bootstrapFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load bootstrap config: %w", logPrefix, err)
	}
	if err := bootstrap.Apply(reg, bootstrapCfg); err != nil {
		return nil, fmt.Errorf("%s - failed to apply bootstrap config: %w", logPrefix, err)
	}
	return reg, nil
}

func (s *Server) openDatabase(ctx context.Context) error {
	cfg := s.cfg
	if cfg.RunMigrations {
		if err := db.EnsureDatabase(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("%s - failed to ensure database: %w", logPrefix, err)
		}
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	s.pool = pool

	if cfg.RunMigrations {
		migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			pool.Close()
			return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
			pool.Close()
			return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
	}
	s.repo = db.NewRepository(pool)
	return nil
}

// Handler builds the HTTP mux: the dialect endpoint at "/", JSON-RPC, call
// log, dialect listing and health.
func (s *Server) Handler() (http.Handler, error) {
	gw, err := gateway.NewHandler(gateway.Options{
		Registry:       s.reg,
		Dispatcher:     s.disp,
		DefaultDialect: s.cfg.DefaultDialect,
		MaxBodyBytes:   s.cfg.MaxBodyBytes,
		RequestTimeout: s.cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	rpc, err := gateway.NewJSONRPCHandler(gw)
	if err != nil {
		return nil, err
	}

	var lister gateway.CallLister
	if s.repo != nil {
		lister = s.repo
	}

	mux := http.NewServeMux()
	mux.Handle("/", gw)
	mux.Handle("/jsonrpc", rpc)
	mux.HandleFunc("/calls", gateway.CallsHandler(lister))
	mux.HandleFunc("/dialects", gateway.DialectsHandler(s.reg, s.cfg.DefaultDialect))
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", s.handleReady())
	return mux, nil
}

// Start subscribes to the invoke subject when NATS is enabled and starts the
// HTTP listener in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.nc != nil {
		sub, err := s.subscribeInvoke(ctx, s.cfg.InvokeSubject)
		if err != nil {
			return err
		}
		s.sub = sub
	}

	handler, err := s.Handler()
	if err != nil {
		return fmt.Errorf("%s - failed to build HTTP handler: %w", logPrefix, err)
	}
	s.httpServer = &http.Server{Addr: s.cfg.HTTPAddr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, s.cfg.HTTPAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()
	return nil
}

// subscribeInvoke answers InvokeRequest envelopes on subject.
func (s *Server) subscribeInvoke(ctx context.Context, subject string) (*comms.Subscription, error) {
	requestTimeout := s.cfg.RequestTimeout
	sub, err := s.nc.Subscribe(subject, func(msg *comms.Msg) {
		var req dispatcher.InvokeRequest
		if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			respond(msg, &dispatcher.InvokeResponse{
				Error: &dispatcher.ErrorDetail{
					Code:    dispatcher.CodeInvalidArgument,
					Message: "Failed to decode request",
				},
			})
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		respond(msg, s.disp.Handle(reqCtx, s.reg, s.cfg.DefaultDialect, &req))
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, subject))
	return sub, nil
}

func respond(msg *comms.Msg, resp *dispatcher.InvokeResponse) {
	data, err := commsutil.EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
	}
}

// Shutdown stops the listener and subscription, then closes connections.
func (s *Server) Shutdown(ctx context.Context) {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
		}
	}
	s.Close()
}

// Close releases the NATS connection and database pool.
func (s *Server) Close() {
	if s.nc != nil {
		s.nc.Drain()
		s.nc = nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}
