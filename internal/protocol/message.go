// Package protocol implements the evaluation service message handling: a
// JSON envelope per request, exactly one response per request, ids echoed
// back verbatim.
package protocol

import (
	"encoding/json"
)

// MessageType identifies the type of protocol message.
type MessageType string

const (
	// Request messages
	MsgRunCode          MessageType = "runCode"
	MsgCallCode         MessageType = "callCode"
	MsgCodeDependencies MessageType = "codeDependencies"
	MsgPing             MessageType = "ping"

	// Response messages
	MsgResult MessageType = "result"
	MsgDeps   MessageType = "deps"
	MsgError  MessageType = "error"
	MsgPong   MessageType = "pong"
)

// Message is the base protocol envelope. ID is caller-chosen and copied onto
// the response unchanged, so callers may use numbers or strings.
type Message struct {
	Type MessageType     `json:"type"`
	ID   json.RawMessage `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RunCodeMessage requests interactive evaluation against the session scope.
type RunCodeMessage struct {
	Code string `json:"code"`
}

// CallCodeMessage requests call-style evaluation: inputs are unpacked into a
// fresh call scope and discarded afterwards.
type CallCodeMessage struct {
	Code     string                     `json:"code"`
	Inputs   map[string]json.RawMessage `json:"inputs,omitempty"`
	Isolated bool                       `json:"isolated,omitempty"`
}

// CodeDependenciesMessage requests the lexical dependency scan.
type CodeDependenciesMessage struct {
	Code string `json:"code"`
}

// DepsResponse carries scanned dependency names in first-seen order.
type DepsResponse struct {
	Names []string `json:"names"`
}

// Machine-readable error codes carried by error responses.
const (
	CodeParseError    = "parse_error"
	CodeBadRequest    = "bad_request"
	CodeUnpackError   = "unpack_error"
	CodeInternalError = "internal_error"
)

// ErrorMessage is the data payload of an error response. Errors raised by
// user code are not protocol errors; they ride inside result payloads.
type ErrorMessage struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ParseMessage parses a raw JSON message into the envelope.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// NewResponse assembles a response envelope, echoing the request id. A nil
// payload leaves data empty.
func NewResponse(typ MessageType, id json.RawMessage, payload any) *Message {
	msg := &Message{Type: typ, ID: id}
	if payload == nil {
		return msg
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return NewErrorResponse(id, CodeInternalError, "encoding response: "+err.Error())
	}
	msg.Data = data
	return msg
}

// NewErrorResponse assembles an error response with a machine code and a
// human-readable description.
func NewErrorResponse(id json.RawMessage, code, description string) *Message {
	data, _ := json.Marshal(ErrorMessage{Code: code, Description: description})
	return &Message{Type: MsgError, ID: id, Data: data}
}
