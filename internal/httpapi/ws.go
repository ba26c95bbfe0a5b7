package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/voxcal/voxcal/internal/bridge"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin is enforced upstream of this service; the API itself is
	// CORS-open for the development frontend.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	info := bridge.SessionInfo{
		ClientIP:  clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if user := s.currentUser(r); user != nil {
		info.UserID = &user.ID
		info.UserEmail = user.Email
		info.Authenticated = user.TokenSealed != ""
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "client_ip", info.ClientIP)
		return
	}

	id := s.registry.Serve(r.Context(), newWSConn(conn), info)
	s.logger.Debug("websocket session finished", "session_id", id)
}

// wsConn adapts a gorilla connection to the bridge. Gorilla permits only one
// concurrent writer, and the bridge writes from both of its flows, so writes
// are serialized here.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadMessage() (int, []byte, error) {
	return c.conn.ReadMessage()
}

func (c *wsConn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
