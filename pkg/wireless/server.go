// Package wireless is the remote control channel: a websocket server
// speaking the same line protocol as the console. Inbound lines are
// handed to a LineHandler, which is expected to enqueue them onto the
// control loop; outbound telemetry and notifications are broadcast to
// every connected client.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package wireless

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"stagectl/pkg/log"
	"stagectl/pkg/metrics"
)

// LineHandler receives one inbound command line. reply sends a
// response back to the originating client only; it is safe to call
// from any goroutine, including later than the handler itself.
type LineHandler func(line string, reply func(string))

// Config holds server configuration.
type Config struct {
	// Addr is the HTTP address to listen on (e.g. ":8765").
	Addr string

	// Handler receives inbound command lines.
	Handler LineHandler
}

// Server accepts websocket control connections.
type Server struct {
	log     *log.Logger
	handler LineHandler
	addr    string

	upgrader websocket.Upgrader
	mux      *http.ServeMux
	httpSrv  *http.Server

	clientMu sync.RWMutex
	clients  map[string]*client
}

func New(cfg Config) *Server {
	s := &Server{
		log:     log.GetLogger("wireless"),
		handler: cfg.Handler,
		addr:    cfg.Addr,
		clients: make(map[string]*client),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/control", s.handleControl)
	return s
}

// ServeHTTP lets the server mount under an existing mux or an
// httptest server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start runs the HTTP listener. Blocks until the server is closed.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{Addr: s.addr, Handler: s.mux}
	s.log.WithField("addr", s.addr).Info("wireless control server starting")
	return s.httpSrv.ListenAndServe()
}

// Stop closes the listener and every client connection.
func (s *Server) Stop() error {
	s.clientMu.Lock()
	for _, c := range s.clients {
		c.close()
	}
	s.clients = make(map[string]*client)
	s.clientMu.Unlock()

	if s.httpSrv != nil {
		return s.httpSrv.Close()
	}
	return nil
}

// Broadcast sends one line to every connected client. Never blocks;
// a client with a full send queue drops the line.
func (s *Server) Broadcast(line string) {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	for _, c := range s.clients {
		c.send(line)
	}
}

// ClientCount reports the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("websocket upgrade failed")
		return
	}

	c := &client{
		id:     uuid.NewString(),
		server: s,
		conn:   conn,
		sendCh: make(chan string, 64),
		done:   make(chan struct{}),
	}

	s.clientMu.Lock()
	s.clients[c.id] = c
	s.clientMu.Unlock()
	metrics.Default.Counter("wireless_connects_total").Inc()
	s.log.WithField("client", c.id).Info("client connected")

	go c.writePump()
	c.readPump() // blocks until the connection closes
}

func (s *Server) removeClient(c *client) {
	s.clientMu.Lock()
	delete(s.clients, c.id)
	s.clientMu.Unlock()
	s.log.WithField("client", c.id).Info("client disconnected")
}

const (
	readLimit    = 64 * 1024
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// client is one websocket connection.
type client struct {
	id     string
	server *Server
	conn   *websocket.Conn
	sendCh chan string
	done   chan struct{}
	mu     sync.Mutex
}

// send queues a line for delivery. Drops the line if the client's
// queue is full rather than stalling the control loop.
func (c *client) send(line string) {
	select {
	case c.sendCh <- line:
	case <-c.done:
	default:
		metrics.Default.Counter("wireless_dropped_total").Inc()
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
	}
	c.conn.Close()
}

func (c *client) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.log.WithError(err).WithField("client", c.id).Debug("read error")
			}
			return
		}

		// One message may carry several newline-separated commands.
		for _, line := range strings.Split(string(message), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			c.server.handler(line, c.send)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case line := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
