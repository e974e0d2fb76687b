// Package server exposes a running level over HTTP: a websocket stream of
// snapshots and level events, and a channel of player commands received from
// remote clients. Commands are never applied here; the simulation goroutine
// drains Commands and applies them itself.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/slicer/internal/core/events/bus"
	"github.com/zeusync/slicer/internal/core/level"
	"github.com/zeusync/slicer/internal/core/observability/log"
)

// Server serves the debug stream of one level.
type Server struct {
	config Config
	logger log.Log

	hub      *Hub
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	commands chan level.Command

	// Server state
	running int32 // atomic bool

	received uint64 // atomic
	rejected uint64 // atomic
}

// Config holds server configuration
type Config struct {
	// Network settings
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	MaxClients int    `yaml:"max_clients" json:"max_clients"`

	// Connection settings
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	PongTimeout     time.Duration `yaml:"pong_timeout" json:"pong_timeout"`
	PingInterval    time.Duration `yaml:"ping_interval" json:"ping_interval"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxMessageSize  int64         `yaml:"max_message_size" json:"max_message_size"`
	ReadBufferSize  int           `yaml:"read_buffer_size" json:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size" json:"write_buffer_size"`

	// Queue settings
	SendBufferSize    int `yaml:"send_buffer_size" json:"send_buffer_size"`
	CommandBufferSize int `yaml:"command_buffer_size" json:"command_buffer_size"`

	// Token, when set, must be presented as the token query parameter or
	// as a bearer Authorization header.
	Token string `yaml:"token" json:"-"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		ListenAddr:        "127.0.0.1:8080",
		MaxClients:        64,
		WriteTimeout:      10 * time.Second,
		PongTimeout:       60 * time.Second,
		PingInterval:      30 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxMessageSize:    4096,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		SendBufferSize:    16,
		CommandBufferSize: 64,
	}
}

// Validate checks that every limit is usable.
func (c Config) Validate() error {
	switch {
	case c.MaxClients <= 0:
		return errors.Wrapf(ErrInvalidConfig, "max clients %d", c.MaxClients)
	case c.WriteTimeout <= 0, c.PongTimeout <= 0, c.ShutdownTimeout <= 0:
		return errors.Wrap(ErrInvalidConfig, "timeouts must be positive")
	case c.PingInterval <= 0 || c.PingInterval >= c.PongTimeout:
		return errors.Wrapf(ErrInvalidConfig, "ping interval %s must be below pong timeout %s",
			c.PingInterval, c.PongTimeout)
	case c.MaxMessageSize <= 0:
		return errors.Wrapf(ErrInvalidConfig, "max message size %d", c.MaxMessageSize)
	case c.SendBufferSize <= 0 || c.CommandBufferSize <= 0:
		return errors.Wrap(ErrInvalidConfig, "queue sizes must be positive")
	}
	return nil
}

// Stats is a point-in-time copy of the server counters.
type Stats struct {
	Clients    int    `json:"clients"`
	Broadcasts uint64 `json:"broadcasts"`
	Unchanged  uint64 `json:"unchanged"`
	Dropped    uint64 `json:"dropped"`
	Commands   uint64 `json:"commands"`
	Rejected   uint64 `json:"rejected"`
}

// New creates a server. It does not listen until Serve is called; Handler
// may be mounted elsewhere instead.
func New(config Config, logger log.Log) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.With(log.String("component", "server"))

	s := &Server{
		config: config,
		logger: logger,
		hub:    newHub(config.SendBufferSize, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
		},
		mux:      http.NewServeMux(),
		commands: make(chan level.Command, config.CommandBufferSize),
	}
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/snapshot", s.handleSnapshot)
	return s, nil
}

func (s *Server) Config() Config                 { return s.config }
func (s *Server) Handler() http.Handler          { return s.mux }
func (s *Server) IsRunning() bool                { return atomic.LoadInt32(&s.running) == 1 }
func (s *Server) Clients() int                   { return s.hub.Len() }
func (s *Server) Latest() ([]byte, bool)         { return s.hub.Latest() }
func (s *Server) Hub() *Hub                      { return s.hub }
func (s *Server) Commands() <-chan level.Command { return s.commands }

// Stats returns the current counters.
func (s *Server) Stats() Stats {
	st := s.hub.stats()
	st.Commands = atomic.LoadUint64(&s.received)
	st.Rejected = atomic.LoadUint64(&s.rejected)
	return st
}

// Broadcast sends snap to every client unless it matches the last snapshot
// sent. It reports whether a frame went out.
func (s *Server) Broadcast(snap level.Snapshot) (bool, error) {
	return s.hub.Broadcast(snap)
}

// Attach forwards every event published on eb to the clients.
func (s *Server) Attach(eb bus.EventBus) (bus.Subscription, error) {
	return eb.Subscribe(bus.Wildcard, s.hub.Event)
}

// ListenAndServe listens on the configured address and serves until ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.config.ListenAddr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts the HTTP
// server down and closes every websocket client.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		_ = ln.Close()
		return ErrServerAlreadyRunning
	}
	defer atomic.StoreInt32(&s.running, 0)

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("Server started", log.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown.
	s.hub.Close()
	err := srv.Shutdown(shutdownCtx)
	<-errCh
	s.logger.Info("Server stopped")
	if err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func (s *Server) authorized(r *http.Request) bool {
	if s.config.Token == "" {
		return true
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token == s.config.Token
	}
	return r.Header.Get("Authorization") == "Bearer "+s.config.Token
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}
	data, ok := s.hub.Latest()
	if !ok {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.logger.Warn("Rejected unauthorized client", log.String("remote", r.RemoteAddr))
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}
	if s.hub.Len() >= s.config.MaxClients {
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	c := s.hub.add(conn)
	s.logger.Info("Client connected",
		log.String("client_id", c.id.String()),
		log.String("remote", conn.RemoteAddr().String()))

	go s.writePump(c)
	s.readPump(c)
}

// readPump decodes commands from c until the connection fails.
func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.remove(c)
		_ = c.conn.Close()
		s.logger.Info("Client disconnected", log.String("client_id", c.id.String()))
	}()

	c.conn.SetReadLimit(s.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Websocket read failed", log.String("client_id", c.id.String()), log.Error(err))
			}
			return
		}
		cmd, err := decodeCommand(data)
		if err != nil {
			atomic.AddUint64(&s.rejected, 1)
			s.logger.Warn("Rejected command", log.String("client_id", c.id.String()), log.Error(err))
			continue
		}
		select {
		case s.commands <- cmd:
			atomic.AddUint64(&s.received, 1)
		default:
			atomic.AddUint64(&s.rejected, 1)
			s.logger.Warn("Command queue full", log.String("client_id", c.id.String()),
				log.String("command", string(cmd.Type)))
		}
	}
}

// writePump owns every write to c. It exits when c.send is closed or a
// write fails.
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("Websocket write failed", log.String("client_id", c.id.String()), log.Error(err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("Ping failed", log.String("client_id", c.id.String()), log.Error(err))
				return
			}
		}
	}
}

func decodeCommand(data []byte) (level.Command, error) {
	var cmd level.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, errors.Wrap(ErrInvalidMessage, err.Error())
	}
	if !cmd.Type.Valid() {
		return cmd, errors.Wrapf(ErrInvalidMessage, "unknown command %q", cmd.Type)
	}
	if cmd.Type == level.CommandBlade || cmd.Type == level.CommandSlice {
		if !cmd.Cut.IsValid() {
			return cmd, errors.Wrapf(ErrInvalidMessage, "%s needs a non-zero cut", cmd.Type)
		}
	}
	return cmd, nil
}
