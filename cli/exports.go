// Package cli provides the command-line interface for luacell.
// This file re-exports internal packages for wrapper projects that embed
// the server.
package cli

import (
	"github.com/luacell/luacell/internal/protocol"
	"github.com/luacell/luacell/internal/server"
	"github.com/luacell/luacell/internal/session"
)

// Re-export server types for embedding
type (
	Server         = server.Server
	Session        = session.Session
	SessionManager = session.Manager
	Handler        = protocol.Handler
	Message        = protocol.Message
	MessageType    = protocol.MessageType
	ErrorMessage   = protocol.ErrorMessage
)

// Re-export constructors
var (
	NewServer    = server.New
	NewContext   = server.NewContext
	NewHandler   = protocol.NewHandler
	ParseMessage = protocol.ParseMessage
)
