// Package protocol defines the control messages exchanged with a running
// traffic meter.
//
// The protocol uses newline-delimited JSON (NDJSON) over a UNIX socket.
// Each message is a single JSON object terminated by a newline character.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/meter"
)

// MessageType identifies the type of message.
type MessageType string

const (
	// MessageTypeRequest is sent from client to server.
	MessageTypeRequest MessageType = "request"
	// MessageTypeResponse is sent from server to client in reply to a request.
	MessageTypeResponse MessageType = "response"
	// MessageTypeEvent is broadcast from server to all connected clients.
	MessageTypeEvent MessageType = "event"
)

// Command identifies the operation to perform.
type Command string

const (
	// CommandEvent delivers an input, color, tint or alpha event to the meter.
	CommandEvent Command = "event"
	// CommandConfig applies a partial configuration update.
	CommandConfig Command = "config"
	// CommandStatus queries the meter state.
	CommandStatus Command = "status"
)

// EventName identifies the type of broadcast event.
type EventName string

const (
	// EventFrame carries the readout after it changed.
	EventFrame EventName = "frame"
)

// Request represents a command sent from client to server.
type Request struct {
	ID      string          `json:"id"`
	Type    MessageType     `json:"type"`
	Command Command         `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// Response represents a reply from server to client.
type Response struct {
	// ID matches the request ID.
	ID      string          `json:"id"`
	Type    MessageType     `json:"type"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

// Event represents an asynchronous notification from server to clients.
type Event struct {
	Type MessageType     `json:"type"`
	Name EventName       `json:"name"`
	Data json.RawMessage `json:"data"`
}

// ErrorInfo contains details about an error.
type ErrorInfo struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`
	// Message is a human-readable error description.
	Message string `json:"message"`
}

// EventParams contains parameters for the event command.
type EventParams struct {
	// Kind is one of the meter event kinds except "config".
	Kind string `json:"kind"`
	// On is the new value for input and tint events.
	On bool `json:"on,omitempty"`
	// Color is a #rrggbb tint color for color events.
	Color string `json:"color,omitempty"`
	// Alpha is the opacity for alpha events, between 0 and 1.
	Alpha float64 `json:"alpha,omitempty"`
}

// ToEvent validates the params and converts them to a meter event.
func (p EventParams) ToEvent() (meter.Event, error) {
	kind, err := meter.ParseEventKind(p.Kind)
	if err != nil {
		return meter.Event{}, err
	}
	if kind == meter.EventConfig {
		return meter.Event{}, fmt.Errorf("config updates use the %q command", CommandConfig)
	}

	ev := meter.Event{Kind: kind, On: p.On, Alpha: p.Alpha}
	if kind == meter.EventColor {
		ev.Color, err = config.ParseColor(p.Color)
		if err != nil {
			return meter.Event{}, err
		}
	}
	return ev, nil
}

// StatusParams contains parameters for the status command.
// Currently empty but defined for future extensibility.
type StatusParams struct{}

// StatusResult contains the result of a status query.
type StatusResult struct {
	Meter  meter.Status         `json:"meter"`
	Config config.DisplayConfig `json:"config"`
}

// FrameData contains data for frame events.
type FrameData struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// NewRequest creates a new request with the given command and parameters.
func NewRequest(id string, cmd Command, params interface{}) (*Request, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &Request{
		ID:      id,
		Type:    MessageTypeRequest,
		Command: cmd,
		Params:  paramsJSON,
	}, nil
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result interface{}) (*Response, error) {
	var resultJSON json.RawMessage
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return nil, err
		}
	}
	return &Response{
		ID:      id,
		Type:    MessageTypeResponse,
		Success: true,
		Result:  resultJSON,
	}, nil
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code string, message string) *Response {
	return &Response{
		ID:      id,
		Type:    MessageTypeResponse,
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewEvent creates a new event with the given name and data.
func NewEvent(name EventName, data interface{}) (*Event, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type: MessageTypeEvent,
		Name: name,
		Data: dataJSON,
	}, nil
}
