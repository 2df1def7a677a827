package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luacell/luacell"
	"github.com/luacell/luacell/internal/config"
	"github.com/luacell/luacell/value"
)

// Handler dispatches protocol requests against one evaluation context and
// produces exactly one response per request. User-code errors are not
// handler errors: they come back inside result payloads.
type Handler struct {
	ctx *luacell.Context
	cfg *config.Config
}

// NewHandler creates a handler bound to one context.
func NewHandler(ctx *luacell.Context, cfg *config.Config) *Handler {
	return &Handler{ctx: ctx, cfg: cfg}
}

// Log logs a message via the config.
func (h *Handler) Log(level int, format string, args ...any) {
	h.cfg.Log(level, format, args...)
}

// Handle processes one raw request and returns the response to write back.
func (h *Handler) Handle(raw []byte) *Message {
	msg, err := ParseMessage(raw)
	if err != nil {
		return NewErrorResponse(nil, CodeParseError, "parsing message: "+err.Error())
	}
	h.Log(2, "request: type=%s", msg.Type)

	switch msg.Type {
	case MsgPing:
		return NewResponse(MsgPong, msg.ID, nil)
	case MsgRunCode:
		return h.runCode(msg)
	case MsgCallCode:
		return h.callCode(msg)
	case MsgCodeDependencies:
		return h.codeDependencies(msg)
	}
	return NewErrorResponse(msg.ID, CodeBadRequest, fmt.Sprintf("unknown message type %q", msg.Type))
}

func (h *Handler) runCode(msg *Message) *Message {
	var req RunCodeMessage
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return NewErrorResponse(msg.ID, CodeBadRequest, "parsing runCode request: "+err.Error())
	}
	res, err := h.ctx.RunCode(req.Code)
	if err != nil {
		return NewErrorResponse(msg.ID, CodeInternalError, err.Error())
	}
	h.Log(3, "runCode: errors=%d output=%t", len(res.Errors), res.Output != nil)
	return NewResponse(MsgResult, msg.ID, res)
}

func (h *Handler) callCode(msg *Message) *Message {
	var req CallCodeMessage
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return NewErrorResponse(msg.ID, CodeBadRequest, "parsing callCode request: "+err.Error())
	}
	inputs := make(map[string]any, len(req.Inputs))
	for name, raw := range req.Inputs {
		inputs[name] = []byte(raw)
	}
	res, err := h.ctx.CallCode(req.Code, inputs, req.Isolated)
	if err != nil {
		if isUnpackError(err) {
			return NewErrorResponse(msg.ID, CodeUnpackError, err.Error())
		}
		return NewErrorResponse(msg.ID, CodeInternalError, err.Error())
	}
	h.Log(3, "callCode: errors=%d output=%t", len(res.Errors), res.Output != nil)
	return NewResponse(MsgResult, msg.ID, res)
}

func (h *Handler) codeDependencies(msg *Message) *Message {
	var req CodeDependenciesMessage
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return NewErrorResponse(msg.ID, CodeBadRequest, "parsing codeDependencies request: "+err.Error())
	}
	names, err := h.ctx.CodeDependencies(req.Code)
	if err != nil {
		if errors.Is(err, luacell.ErrClosed) {
			return NewErrorResponse(msg.ID, CodeInternalError, err.Error())
		}
		return NewErrorResponse(msg.ID, CodeParseError, err.Error())
	}
	if names == nil {
		names = []string{}
	}
	return NewResponse(MsgDeps, msg.ID, DepsResponse{Names: names})
}

func isUnpackError(err error) bool {
	return errors.Is(err, value.ErrMalformedPackage) ||
		errors.Is(err, value.ErrMissingField) ||
		errors.Is(err, value.ErrUnknownType)
}
