// Package chat manages a single chat connection: the username handshake,
// the ordered message log and the connection state.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/atinyakov/GophChat/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyUsername    = errors.New("chat: username is empty")
	ErrAlreadyConnected = errors.New("chat: already connected")
	ErrNotConnected     = errors.New("chat: not connected")
	ErrEmptyMessage     = errors.New("chat: message is empty")
	// ErrConnectAborted is returned by a Connect that was overtaken by Close
	// while it was dialing.
	ErrConnectAborted = errors.New("chat: connect aborted by close")
)

// Session owns at most one chat connection at a time.
type Session struct {
	dialer Dialer
	url    string
	log    *zap.Logger

	onMessage     func(string)
	onStateChange func(models.ConnState)

	mu       sync.Mutex
	conn     Conn
	connID   string
	state    models.ConnState
	messages []string
	// dialing is set while a Connect is outside the lock.
	dialing bool
	// closes counts Close calls; a dial that sees it change is abandoned.
	closes uint64
}

// Option customizes a Session.
type Option func(*Session)

// WithOnMessage registers a callback invoked for every received message,
// in arrival order, from the receive goroutine.
func WithOnMessage(fn func(string)) Option {
	return func(s *Session) { s.onMessage = fn }
}

// WithOnStateChange registers a callback invoked after every state change.
func WithOnStateChange(fn func(models.ConnState)) Option {
	return func(s *Session) { s.onStateChange = fn }
}

// NewSession returns a disconnected session for the chat endpoint at url.
func NewSession(d Dialer, url string, log *zap.Logger, opts ...Option) *Session {
	s := &Session{
		dialer: d,
		url:    url,
		log:    logger.OrNop(log),
		state:  models.Disconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect dials the chat endpoint and sends username as the first frame.
// On failure the session stays disconnected. The session lock is not held
// during the dial, so State, Messages and Close stay responsive.
func (s *Session) Connect(ctx context.Context, username string) error {
	if username == "" {
		return ErrEmptyUsername
	}

	s.mu.Lock()
	if s.state == models.Connected || s.dialing {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.dialing = true
	closes := s.closes
	s.mu.Unlock()

	conn, err := s.dial(ctx, username)

	s.mu.Lock()
	s.dialing = false
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.closes != closes {
		s.mu.Unlock()
		_ = conn.Close()
		s.log.Info("chat connect aborted", zap.String("url", s.url))
		return ErrConnectAborted
	}
	id := uuid.NewString()
	s.conn = conn
	s.connID = id
	s.state = models.Connected
	s.mu.Unlock()

	s.log.Info("chat connected", zap.String("conn_id", id), zap.String("url", s.url))
	s.notifyState(models.Connected)

	go s.receive(conn, id)
	return nil
}

// dial opens the transport and performs the username handshake.
func (s *Session) dial(ctx context.Context, username string) (Conn, error) {
	conn, err := s.dialer.Dial(ctx, s.url)
	if err != nil {
		s.log.Warn("chat dial failed", zap.String("url", s.url), zap.Error(err))
		return nil, fmt.Errorf("connect to chat: %w", err)
	}
	if err := conn.WriteText(username); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send username: %w", err)
	}
	return conn, nil
}

func (s *Session) receive(conn Conn, id string) {
	for {
		text, err := conn.ReadText()
		if err != nil {
			s.dropped(conn, id, err)
			return
		}

		s.mu.Lock()
		if s.conn != conn {
			s.mu.Unlock()
			return
		}
		s.messages = append(s.messages, text)
		cb := s.onMessage
		s.mu.Unlock()

		if cb != nil {
			cb(text)
		}
	}
}

// dropped handles a transport closed from the other side. The message log
// is kept.
func (s *Session) dropped(conn Conn, id string, err error) {
	s.mu.Lock()
	current := s.conn == conn
	if current {
		s.conn = nil
		s.connID = ""
		s.state = models.Disconnected
	}
	s.mu.Unlock()

	_ = conn.Close()
	if !current {
		return
	}
	s.log.Info("chat connection closed", zap.String("conn_id", id), zap.Error(err))
	s.notifyState(models.Disconnected)
}

// Send writes text verbatim as one frame.
func (s *Session) Send(text string) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.state == models.Connected
	s.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}
	if text == "" {
		return ErrEmptyMessage
	}
	if err := conn.WriteText(text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Disconnect closes the transport and clears the message log.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.state != models.Connected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	conn, id := s.conn, s.connID
	s.conn = nil
	s.connID = ""
	s.state = models.Disconnected
	s.messages = nil
	s.mu.Unlock()

	s.log.Info("chat disconnected", zap.String("conn_id", id))
	err := conn.Close()
	s.notifyState(models.Disconnected)
	if err != nil {
		return fmt.Errorf("close chat connection: %w", err)
	}
	return nil
}

// Close releases the transport if one is open and abandons a Connect that
// is still dialing. It is safe to call on any exit path and more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closes++
	conn := s.conn
	s.conn = nil
	s.connID = ""
	wasConnected := s.state == models.Connected
	s.state = models.Disconnected
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	if wasConnected {
		s.notifyState(models.Disconnected)
	}
	if err != nil {
		return fmt.Errorf("close chat connection: %w", err)
	}
	return nil
}

// Messages returns a copy of the message log.
func (s *Session) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// State returns the current connection state.
func (s *Session) State() models.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ConnID returns the id of the open connection, "" when disconnected.
func (s *Session) ConnID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connID
}

func (s *Session) notifyState(state models.ConnState) {
	if s.onStateChange != nil {
		s.onStateChange(state)
	}
}
