package server

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/core/world"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// client is one websocket connection. It implements world.Conn: Send queues a line for the
// write pump and never blocks the simulation.
type client struct {
	id      string
	account string
	conn    *websocket.Conn
	server  *Server
	logger  log.Log

	send      chan string
	quit      chan struct{}
	closeOnce sync.Once
	closed    int32 // atomic bool
	slow      int32 // atomic bool
}

var _ world.Conn = (*client)(nil)

func (c *client) Send(text string) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	select {
	case c.send <- text:
		return nil
	default:
		// A full buffer means the client stopped reading; it is hung up, not waited for.
		if atomic.CompareAndSwapInt32(&c.slow, 0, 1) {
			c.logger.Warn("Disconnecting slow client", log.Int("buffered", len(c.send)))
		}
		_ = c.Close()
		return ErrSlowClient
	}
}

// Close flushes queued lines and hangs up. It is safe to call more than once.
func (c *client) Close() error {
	c.closeOnce.Do(func() {
		atomic.StoreInt32(&c.closed, 1)
		close(c.quit)
	})
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	account, err := s.auth.Authenticate(r)
	if err != nil {
		s.logger.Debug("Connection refused", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if s.config.MaxClients > 0 && int(atomic.LoadInt64(&s.clientCount)) >= s.config.MaxClients {
		s.logger.Warn("Maximum clients reached, rejecting connection", log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Upgrade failed", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		return
	}

	c := &client{
		id:      uuid.NewString(),
		account: account,
		conn:    conn,
		server:  s,
		send:    make(chan string, s.config.SendBuffer),
		quit:    make(chan struct{}),
	}
	c.logger = s.logger.With(log.String("client_id", c.id), log.String("account", account))

	if !s.game.Connect(c.id, account, c) {
		c.logger.Warn("World refused session", log.Error(ErrWorldStopped))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server is shutting down"),
			time.Now().Add(s.config.WriteTimeout))
		_ = conn.Close()
		return
	}

	s.clients.Store(c.id, c)
	atomic.AddInt64(&s.clientCount, 1)
	c.logger.Info("Client connected",
		log.String("remote_addr", r.RemoteAddr),
		log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))

	s.workerGroup.Add(2)
	go c.writePump()
	go c.readPump()
}

// readPump hands every inbound line to the world until the connection fails.
func (c *client) readPump() {
	s := c.server
	defer func() {
		_ = c.Close()
		s.game.Disconnect(c.id)
		s.clients.Delete(c.id)
		atomic.AddInt64(&s.clientCount, -1)
		c.logger.Info("Client disconnected", log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))
		s.workerGroup.Done()
	}()

	if s.config.MaxMessageSize > 0 {
		c.conn.SetReadLimit(s.config.MaxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(s.config.ClientTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.config.ClientTimeout))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				atomic.LoadInt32(&c.closed) == 0 {
				c.logger.Debug("Failed to receive message", log.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(s.config.ClientTimeout))
		for _, line := range splitLines(string(data)) {
			if !s.game.Input(c.id, line) {
				return
			}
		}
	}
}

// writePump is the only writer on the connection. On Close it drains what is queued first.
func (c *client) writePump() {
	s := c.server
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		s.workerGroup.Done()
	}()

	for {
		select {
		case text := <-c.send:
			if err := c.write(websocket.TextMessage, []byte(text)); err != nil {
				c.logger.Debug("Failed to send message", log.Error(err))
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.quit:
			if atomic.LoadInt32(&c.slow) == 1 {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too slow"))
				return
			}
			c.drain()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *client) drain() {
	for {
		select {
		case text := <-c.send:
			if err := c.write(websocket.TextMessage, []byte(text)); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *client) write(kind int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout)); err != nil {
		return err
	}
	err := c.conn.WriteMessage(kind, data)
	if errors.Is(err, websocket.ErrCloseSent) {
		return ErrClientClosed
	}
	return err
}

// splitLines breaks a frame into input lines. A frame may carry several commands.
func splitLines(data string) []string {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, strings.TrimRight(line, "\r"))
		}
	}
	return out
}
