package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// sendBuffer is the number of outgoing frames queued per client.
	sendBuffer = 64
	// usernameTimeout bounds the wait for the first frame.
	usernameTimeout = 10 * time.Second
)

// MsgUsernameTaken is sent before closing a connection whose username is
// empty or already in use.
const MsgUsernameTaken = "Username already taken."

type chatClient struct {
	id   string
	name string
	conn *websocket.Conn
	send chan string
}

// ChatHandler is a single chat room. The first text frame of a connection
// is the username; every later frame is broadcast as "name: text".
type ChatHandler struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*chatClient]struct{}
	names   map[string]struct{}
	wg      sync.WaitGroup
}

// NewChatHandler returns an empty room.
func NewChatHandler(log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		log: logger.OrNop(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*chatClient]struct{}),
		names:   make(map[string]struct{}),
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.wg.Add(1)
	defer h.wg.Done()
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(usernameTimeout))
	_, p, err := conn.ReadMessage()
	if err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	c := &chatClient{
		id:   uuid.NewString(),
		name: string(p),
		conn: conn,
		send: make(chan string, sendBuffer),
	}
	if !h.join(c) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(MsgUsernameTaken))
		closeConn(conn, websocket.ClosePolicyViolation)
		return
	}
	h.log.Info("chat user joined", zap.String("conn_id", c.id), zap.String("user", c.name))

	done := make(chan struct{})
	go h.write(c, done)

	h.broadcast(c.name + " joined.")
	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			break
		}
		h.broadcast(c.name + ": " + string(p))
	}

	h.leave(c)
	<-done
	closeConn(conn, websocket.CloseNormalClosure)
	h.log.Info("chat user left", zap.String("conn_id", c.id), zap.String("user", c.name))
	h.broadcast(c.name + " left.")
}

func (h *ChatHandler) write(c *chatClient, done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			h.log.Debug("chat write failed", zap.String("conn_id", c.id), zap.Error(err))
			return
		}
	}
}

func (h *ChatHandler) join(c *chatClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.name == "" {
		return false
	}
	if _, taken := h.names[c.name]; taken {
		return false
	}
	h.names[c.name] = struct{}{}
	h.clients[c] = struct{}{}
	return true
}

func (h *ChatHandler) leave(c *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	delete(h.names, c.name)
	close(c.send)
}

func (h *ChatHandler) broadcast(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("chat client too slow, frame dropped", zap.String("conn_id", c.id))
		}
	}
}

// Close sends a going-away close frame to every client, drops the
// connections and waits for their handlers to finish.
func (h *ChatHandler) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		closeConn(conn, websocket.CloseGoingAway)
		_ = conn.Close()
	}
	h.wg.Wait()
}

// Online returns the number of joined users.
func (h *ChatHandler) Online() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func closeConn(conn *websocket.Conn, code int) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""),
		time.Now().Add(time.Second))
}
