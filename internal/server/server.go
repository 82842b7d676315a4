// Package server is the network edge: it accepts websocket clients, turns each into a world
// session, and carries text lines both ways.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/core/world"
)

// Game is the part of the world the server drives. Every call is safe from any goroutine.
type Game interface {
	Connect(id, account string, conn world.Conn) bool
	Input(id, line string) bool
	Disconnect(id string) bool
	// Tick is the number of simulation ticks run so far.
	Tick() uint64
}

// Server accepts clients over websocket.
type Server struct {
	game   Game
	auth   Authenticator
	config Config
	logger log.Log

	http     *http.Server
	listener net.Listener

	clients     sync.Map // map[string]*client
	clientCount int64    // atomic

	running int32 // atomic bool
	closed  int32 // atomic bool

	workerGroup sync.WaitGroup
}

// Config holds server configuration
type Config struct {
	ListenAddr string
	MaxClients int

	// MaxMessageSize bounds one inbound websocket frame.
	MaxMessageSize int64
	// SendBuffer is how many outbound lines may wait for a slow client.
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
	// ClientTimeout drops clients that answer no ping for this long.
	ClientTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:4000",
		MaxClients:     1000,
		MaxMessageSize: 4096,
		SendBuffer:     256,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		ClientTimeout:  90 * time.Second,
	}
}

// Status is the body of the status endpoint.
type Status struct {
	Clients int64  `json:"clients"`
	Tick    uint64 `json:"tick"`
	Running bool   `json:"running"`
}

// NewServer creates a server in front of game.
func NewServer(config Config, game Game, auth Authenticator, logger log.Log) *Server {
	defaults := DefaultServerConfig()
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.ClientTimeout <= config.PingInterval {
		config.ClientTimeout = 3 * config.PingInterval
	}
	if auth == nil {
		auth = QueryAccount{}
	}
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		game:   game,
		auth:   auth,
		config: config,
		logger: logger.With(log.String("component", "server")),
	}
	s.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_clients", config.MaxClients))
	return s
}

// Handler routes the websocket endpoint and the status endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return err
	}
	s.listener = listener
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.workerGroup.Add(1)
	go func() {
		defer s.workerGroup.Done()
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server stopped serving", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound listen address, once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops accepting clients and hangs up on the connected ones.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}
	s.logger.Info("Stopping server")

	err := s.http.Shutdown(ctx)
	// Hijacked websocket connections are not closed by Shutdown.
	s.clients.Range(func(_, value any) bool {
		_ = value.(*client).Close()
		return true
	})
	s.workerGroup.Wait()

	s.logger.Info("Server stopped")
	return err
}

// Close stops the server if it is running and marks it unusable.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 1 {
		return s.Stop(context.Background())
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int64 {
	return atomic.LoadInt64(&s.clientCount)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	status := Status{Clients: s.ClientCount(), Tick: s.game.Tick(), Running: atomic.LoadInt32(&s.running) == 1}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Debug("Failed to write status", log.Error(err))
	}
}
