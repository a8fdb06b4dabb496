package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/control/protocol"
	"github.com/shini4i/trafficmeter/internal/meter"
)

// Controller is the meter surface driven by control requests.
// *meter.Meter implements it.
type Controller interface {
	Handle(ev meter.Event) error
	Status() meter.Status
	Config() config.DisplayConfig
}

// NewMeterHandler returns a RequestHandler that forwards requests to m.
func NewMeterHandler(m Controller) RequestHandler {
	return func(req *protocol.Request) *protocol.Response {
		switch req.Command {
		case protocol.CommandEvent:
			return handleEvent(m, req)
		case protocol.CommandConfig:
			return handleConfig(m, req)
		case protocol.CommandStatus:
			return success(req.ID, protocol.StatusResult{Meter: m.Status(), Config: m.Config()})
		default:
			return protocol.NewErrorResponse(req.ID, protocol.ErrCodeInvalidCommand,
				fmt.Sprintf("unknown command %q", req.Command))
		}
	}
}

func handleEvent(m Controller, req *protocol.Request) *protocol.Response {
	var params protocol.EventParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.ErrCodeInvalidParams, err.Error())
	}

	ev, err := params.ToEvent()
	if err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.ErrCodeInvalidParams, err.Error())
	}
	if err := m.Handle(ev); err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.ErrCodeRejected, err.Error())
	}
	return success(req.ID, m.Status())
}

func handleConfig(m Controller, req *protocol.Request) *protocol.Response {
	var update config.Update
	dec := json.NewDecoder(bytes.NewReader(req.Params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&update); err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.ErrCodeInvalidParams, err.Error())
	}
	if update.IsEmpty() {
		return protocol.NewErrorResponse(req.ID, protocol.ErrCodeInvalidParams, "no settings given")
	}

	if err := m.Handle(meter.ConfigEvent(update)); err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.ErrCodeRejected, err.Error())
	}
	return success(req.ID, m.Config())
}

func success(id string, result interface{}) *protocol.Response {
	resp, err := protocol.NewSuccessResponse(id, result)
	if err != nil {
		return protocol.NewErrorResponse(id, protocol.ErrCodeInternalError, err.Error())
	}
	return resp
}
