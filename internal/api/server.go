// Package api provides the HTTP REST API and WebSocket notification
// server for SoundBridge.
//
// It is the thin transport adapter over the core: speakers and the
// control app register devices, drive playback, manage presets and
// zones, and receive change notifications over the websocket feed.
//
// The server follows the usual lifecycle:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wavetable-labs/soundbridge/internal/device"
	"github.com/wavetable-labs/soundbridge/internal/directory"
	"github.com/wavetable-labs/soundbridge/internal/events"
	"github.com/wavetable-labs/soundbridge/internal/infrastructure/config"
	"github.com/wavetable-labs/soundbridge/internal/infrastructure/logging"
	"github.com/wavetable-labs/soundbridge/internal/playback"
	"github.com/wavetable-labs/soundbridge/internal/preset"
	"github.com/wavetable-labs/soundbridge/internal/zone"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Registry  *device.Registry
	Presets   *preset.Store
	Zones     *zone.Coordinator
	Playback  *playback.Machine
	Directory *directory.Client
	Bus       *events.Bus

	// DefaultAccount files requests that carry no account id.
	DefaultAccount string
	Version        string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and the websocket
// hub that drains the core event bus.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	registry  *device.Registry
	presets   *preset.Store
	zones     *zone.Coordinator
	playback  *playback.Machine
	directory *directory.Client
	bus       *events.Bus

	defaultAccount string
	version        string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates an API server from its dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Presets == nil {
		return nil, fmt.Errorf("preset store is required")
	}
	if deps.Zones == nil {
		return nil, fmt.Errorf("zone coordinator is required")
	}
	if deps.Playback == nil {
		return nil, fmt.Errorf("playback machine is required")
	}
	// Directory and Bus are optional; directory endpoints return 502
	// without a client and notifications are simply absent without a bus

	account := deps.DefaultAccount
	if account == "" {
		account = "default"
	}

	return &Server{
		cfg:            deps.Config,
		wsCfg:          deps.WS,
		logger:         deps.Logger,
		registry:       deps.Registry,
		presets:        deps.Presets,
		zones:          deps.Zones,
		playback:       deps.Playback,
		directory:      deps.Directory,
		bus:            deps.Bus,
		defaultAccount: account,
		version:        deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the websocket hub, wires the event bus into it, and
// launches the listener in a background goroutine. Stop with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	if s.bus != nil {
		go s.pumpEvents(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting briefly for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// pumpEvents drains the core event bus into the websocket hub.
func (s *Server) pumpEvents(ctx context.Context) {
	ch, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			s.hub.Broadcast(event.Type, event)
		}
	}
}

// accountID resolves the account partition for a request. The control
// protocol carries it as a query parameter; absent means the default
// account.
func (s *Server) accountID(r *http.Request) string {
	if account := r.URL.Query().Get("account"); account != "" {
		return account
	}
	return s.defaultAccount
}
