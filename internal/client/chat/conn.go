package chat

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is an open chat transport carrying text frames.
type Conn interface {
	WriteText(text string) error
	ReadText() (string, error)
	Close() error
}

// Dialer opens chat transports.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WSDialer dials websocket endpoints. Cookies from jar are sent with the
// handshake the same way a browser sends them.
type WSDialer struct {
	dialer *websocket.Dialer
}

// NewWSDialer returns a websocket dialer. tlsConfig and jar may be nil; a
// zero timeout leaves the handshake unbounded.
func NewWSDialer(tlsConfig *tls.Config, jar http.CookieJar, timeout time.Duration) *WSDialer {
	return &WSDialer{dialer: &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		TLSClientConfig:  tlsConfig,
		Jar:              jar,
		HandshakeTimeout: timeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}}
}

// Dial opens a websocket to url.
func (d *WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &wsConn{conn: conn}, nil
}

// closeGrace bounds the wait for the close frame to be written.
const closeGrace = time.Second

type wsConn struct {
	conn *websocket.Conn
	// gorilla connections allow one concurrent writer
	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (c *wsConn) ReadText() (string, error) {
	_, p, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

func (c *wsConn) Close() error {
	// WriteControl may run alongside a blocked WriteText; closing the
	// connection afterwards unblocks that writer.
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
