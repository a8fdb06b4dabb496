// Package client talks to a running traffic meter over its control socket.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/control/protocol"
	"github.com/shini4i/trafficmeter/internal/control/server"
	"github.com/shini4i/trafficmeter/internal/meter"
)

const (
	// DefaultTimeout for RPC calls.
	DefaultTimeout = 5 * time.Second
)

// ErrMeterNotAvailable is returned when no meter is listening on the socket.
var ErrMeterNotAvailable = errors.New("traffic meter not available")

// Client sends control requests and receives frame events.
type Client struct {
	socketPath string
	conn       net.Conn
	reader     *bufio.Reader

	mu      sync.RWMutex
	onFrame func(frame protocol.FrameData)

	// writeMu serializes NDJSON writes to prevent interleaved JSON lines
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan *protocol.Response

	closeChan chan struct{}
	closeOnce sync.Once
}

// New connects to the meter at the default socket path.
func New() (*Client, error) {
	return NewWithPath(server.DefaultSocketPath())
}

// NewWithPath connects to the meter listening at socketPath.
func NewWithPath(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMeterNotAvailable, err)
	}

	c := &Client{
		socketPath: socketPath,
		conn:       conn,
		reader:     bufio.NewReader(conn),
		pending:    make(map[string]chan *protocol.Response),
		closeChan:  make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// IsAvailableAt checks if a meter is listening at the given path.
func IsAvailableAt(socketPath string) bool {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return false
	}
	_ = conn.Close() // Error intentionally ignored; we only check connectivity
	return true
}

// Close closes the connection.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		close(c.closeChan)
		if c.conn != nil {
			closeErr = c.conn.Close()
		}
	})
	return closeErr
}

// Done is closed once the connection has been closed by either side.
func (c *Client) Done() <-chan struct{} {
	return c.closeChan
}

// OnFrame registers a callback for frame events.
func (c *Client) OnFrame(callback func(frame protocol.FrameData)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = callback
}

// SendEvent delivers an event and returns the meter status after it was handled.
func (c *Client) SendEvent(ctx context.Context, params protocol.EventParams) (*meter.Status, error) {
	resp, err := c.sendRequest(ctx, protocol.CommandEvent, params)
	if err != nil {
		return nil, err
	}

	var status meter.Status
	if err := json.Unmarshal(resp.Result, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}

// ApplyConfig sends a partial update and returns the resulting configuration.
func (c *Client) ApplyConfig(ctx context.Context, update config.Update) (*config.DisplayConfig, error) {
	resp, err := c.sendRequest(ctx, protocol.CommandConfig, update)
	if err != nil {
		return nil, err
	}

	var cfg config.DisplayConfig
	if err := json.Unmarshal(resp.Result, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Status queries the meter state and configuration.
func (c *Client) Status(ctx context.Context) (*protocol.StatusResult, error) {
	resp, err := c.sendRequest(ctx, protocol.CommandStatus, protocol.StatusParams{})
	if err != nil {
		return nil, err
	}

	var status protocol.StatusResult
	if err := json.Unmarshal(resp.Result, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}

func (c *Client) sendRequest(ctx context.Context, cmd protocol.Command, params interface{}) (*protocol.Response, error) {
	id := uuid.New().String()

	req, err := protocol.NewRequest(id, cmd, params)
	if err != nil {
		return nil, err
	}

	respChan := make(chan *protocol.Response, 1)
	c.pendingMu.Lock()
	c.pending[id] = respChan
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	data, err := json.Marshal(req)
	if err != nil {
		c.writeMu.Unlock()
		return nil, err
	}
	data = append(data, '\n')

	_, writeErr := c.conn.Write(data)
	c.writeMu.Unlock()

	if writeErr != nil {
		return nil, fmt.Errorf("failed to send request: %w", writeErr)
	}

	select {
	case resp := <-respChan:
		if !resp.Success {
			if resp.Error != nil {
				return nil, fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
			}
			return nil, errors.New("request failed with unknown error")
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closeChan:
		return nil, errors.New("client closed")
	}
}

func (c *Client) readLoop() {
	defer func() { _ = c.Close() }()

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			select {
			case <-c.closeChan:
			default:
				if err != io.EOF && !errors.Is(err, net.ErrClosed) {
					slog.Error("Read error from meter", "error", err)
				}
			}
			return
		}

		c.handleMessage(line)
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg struct {
		Type protocol.MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("Invalid message from meter", "error", err)
		return
	}

	switch msg.Type {
	case protocol.MessageTypeResponse:
		var resp protocol.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			slog.Warn("Invalid response from meter", "error", err)
			return
		}
		c.handleResponse(&resp)

	case protocol.MessageTypeEvent:
		var event protocol.Event
		if err := json.Unmarshal(data, &event); err != nil {
			slog.Warn("Invalid event from meter", "error", err)
			return
		}
		c.handleEvent(&event)

	default:
		slog.Warn("Unknown message type from meter", "type", msg.Type)
	}
}

func (c *Client) handleResponse(resp *protocol.Response) {
	c.pendingMu.Lock()
	ch, ok := c.pending[resp.ID]
	c.pendingMu.Unlock()

	if ok {
		select {
		case ch <- resp:
		default:
		}
	}
}

func (c *Client) handleEvent(event *protocol.Event) {
	if event.Name != protocol.EventFrame {
		slog.Debug("Ignoring event", "name", event.Name)
		return
	}

	var frame protocol.FrameData
	if err := json.Unmarshal(event.Data, &frame); err != nil {
		slog.Warn("Invalid frame event", "error", err)
		return
	}

	c.mu.RLock()
	callback := c.onFrame
	c.mu.RUnlock()

	if callback != nil {
		callback(frame)
	}
}
