// Package server exposes a running traffic meter over a UNIX socket.
package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shini4i/trafficmeter/internal/control/protocol"
)

const (
	// SocketName is the socket file name inside the runtime directory.
	SocketName = "trafficmeter.sock"

	// maxMessageSize bounds a single NDJSON line.
	maxMessageSize = 64 * 1024
	// maxConcurrentClients bounds the number of open control connections.
	maxConcurrentClients = 16
	// writeTimeout keeps a stalled client from blocking broadcasts.
	writeTimeout = time.Second
)

// DefaultSocketPath returns $XDG_RUNTIME_DIR/trafficmeter.sock, falling back
// to a per-user path in the temp directory.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, SocketName)
	}
	return filepath.Join(os.TempDir(), "trafficmeter-"+strconv.Itoa(os.Getuid())+".sock")
}

// RequestHandler is called for each incoming request.
// It should return a response to send back to the client.
type RequestHandler func(req *protocol.Request) *protocol.Response

// Server manages client connections over a UNIX socket.
type Server struct {
	socketPath string
	listener   net.Listener
	handler    RequestHandler

	mu       sync.RWMutex
	clients  map[*Client]struct{}
	running  bool
	starting bool // Guards against TOCTOU race during Start()
}

// NewServer creates a new server instance.
// Panics if handler is nil to prevent runtime panic when processing requests.
func NewServer(socketPath string, handler RequestHandler) *Server {
	if handler == nil {
		panic("server: NewServer called with nil handler")
	}
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		clients:    make(map[*Client]struct{}),
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for connections.
// Returns an error if the server is already running or starting.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running || s.starting {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.starting = true
	s.mu.Unlock()

	clearStarting := func() {
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
	}

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		clearStarting()
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		clearStarting()
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Only the owning user may control the meter.
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		if closeErr := listener.Close(); closeErr != nil {
			slog.Error("Failed to close listener after chmod error", "error", closeErr)
		}
		clearStarting()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.starting = false
	s.mu.Unlock()

	slog.Info("Control server started", "socket", s.socketPath)

	go s.acceptLoop(listener)

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	listener := s.listener

	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.Unlock()

	if listener != nil {
		if err := listener.Close(); err != nil {
			slog.Error("Failed to close listener", "error", err)
		}
	}

	for _, client := range clients {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close client connection", "error", err)
		}
	}

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove socket file", "path", s.socketPath, "error", err)
	}

	slog.Info("Control server stopped")
	return nil
}

// Broadcast sends an event to all connected clients.
// Clients are snapshotted before sending to avoid holding the lock during I/O.
func (s *Server) Broadcast(event *protocol.Event) {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		if err := client.SendEvent(event); err != nil {
			slog.Debug("Failed to send event to client", "error", err)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.RLock()
			running := s.running
			s.mu.RUnlock()
			if !running {
				return
			}
			slog.Error("Accept error", "error", err)
			continue
		}

		client := newClient(conn)
		if !s.addClient(client) {
			slog.Warn("Rejecting control connection: too many clients", "max", maxConcurrentClients)
			_ = conn.Close()
			continue
		}
		go s.handleClient(client)
	}
}

func (s *Server) addClient(client *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) >= maxConcurrentClients {
		return false
	}
	s.clients[client] = struct{}{}
	slog.Debug("Control client connected", "clients", len(s.clients))
	return true
}

func (s *Server) removeClient(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
	slog.Debug("Control client disconnected", "clients", len(s.clients))
}

func (s *Server) handleClient(client *Client) {
	defer func() {
		if err := client.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Debug("Failed to close client connection", "error", err)
		}
		s.removeClient(client)
	}()

	scanner := bufio.NewScanner(client.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxMessageSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req protocol.Request
		if err := json.Unmarshal(line, &req); err != nil {
			slog.Warn("Invalid control request", "error", err)
			resp := protocol.NewErrorResponse("", protocol.ErrCodeInvalidRequest, "invalid JSON")
			if err := client.SendResponse(resp); err != nil {
				slog.Warn("Failed to send error response", "error", err)
			}
			continue
		}

		resp := s.handler(&req)
		if err := client.SendResponse(resp); err != nil {
			slog.Error("Failed to send response", "error", err)
			return
		}
	}

	err := scanner.Err()
	switch {
	case errors.Is(err, bufio.ErrTooLong):
		resp := protocol.NewErrorResponse("", protocol.ErrCodeInvalidRequest, "message too large")
		_ = client.SendResponse(resp)
	case err != nil && err != io.EOF && !errors.Is(err, net.ErrClosed):
		slog.Error("Read error", "error", err)
	}
}

// Client represents a connected client.
type Client struct {
	conn net.Conn
	mu   sync.Mutex
}

func newClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// SendResponse sends a response to the client.
func (c *Client) SendResponse(resp *protocol.Response) error {
	return c.sendJSON(resp)
}

// SendEvent sends an event to the client.
func (c *Client) SendEvent(event *protocol.Event) error {
	return c.sendJSON(event)
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) sendJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	_, err = c.conn.Write(data)
	return err
}
