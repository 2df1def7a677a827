package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/luacell/luacell/internal/config"
	"github.com/luacell/luacell/internal/protocol"
	"github.com/luacell/luacell/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketEndpoint binds one evaluation session to each WebSocket
// connection. The session's context is destroyed when the connection
// closes.
type WebSocketEndpoint struct {
	config   *config.Config
	sessions *session.Manager
}

// NewWebSocketEndpoint creates the WebSocket endpoint.
func NewWebSocketEndpoint(cfg *config.Config, sessions *session.Manager) *WebSocketEndpoint {
	return &WebSocketEndpoint{
		config:   cfg,
		sessions: sessions,
	}
}

// Log logs a message at the given verbosity level.
func (ws *WebSocketEndpoint) Log(level int, format string, args ...any) {
	ws.config.Log(level, format, args...)
}

// HandleWebSocket upgrades the request, creates a session with a fresh
// evaluation context, and starts the read loop.
func (ws *WebSocketEndpoint) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.Log(0, "websocket upgrade failed: %v", err)
		return
	}

	sess, err := ws.sessions.Create()
	if err != nil {
		ws.Log(0, "creating session: %v", err)
		conn.Close()
		return
	}

	ws.Log(1, "session %s connected from %s", sess.ID, r.RemoteAddr)

	handler := protocol.NewHandler(sess.Context, ws.config)
	go ws.readPump(conn, sess, handler)
}

// readPump reads requests from the connection and writes one response
// per request. It owns the connection: no other goroutine writes to it.
func (ws *WebSocketEndpoint) readPump(conn *websocket.Conn, sess *session.Session, handler *protocol.Handler) {
	defer func() {
		ws.sessions.Destroy(sess.ID)
		ws.Log(1, "session %s disconnected", sess.ID)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.Log(1, "session %s read error: %v", sess.ID, err)
			}
			return
		}

		sess.Touch()

		response := handler.Handle(data)
		if err := conn.WriteJSON(response); err != nil {
			ws.Log(1, "session %s write error: %v", sess.ID, err)
			return
		}
	}
}
