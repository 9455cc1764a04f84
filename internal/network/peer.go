package network

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"sync"
	"time"
)

// State is a peer session's connection lifecycle position.
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
	StateBanned
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateBanned:
		return "banned"
	default:
		return "unknown"
	}
}

// Session is one peer connection: its identity, address, connection
// lifecycle state, and (once connected) the underlying socket used for
// framed message exchange.
type Session struct {
	ID      []byte
	Address string

	mu         sync.Mutex
	conn       net.Conn
	state      State
	lastSeen   time.Time
	latencyMs  int64
	hasLatency bool
	pongWait   chan struct{}
}

// NewSession builds a session in the Connecting state. Use Accept to wrap
// an already-open inbound connection, or Connect to dial out.
func NewSession(id []byte, address string) *Session {
	return &Session{ID: id, Address: address, state: StateConnecting, lastSeen: time.Now()}
}

// IDString renders the peer id as lowercase hex, the canonical registry key.
func (s *Session) IDString() string {
	return hex.EncodeToString(s.ID)
}

// hexID renders a raw peer id as lowercase hex, matching Session.IDString
// so callers can compare a sender id against the registry key space.
func hexID(id []byte) string {
	return hex.EncodeToString(id)
}

// Accept wraps an already-accepted inbound connection and marks the
// session Connected.
func (s *Session) Accept(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.state = StateConnected
	s.lastSeen = time.Now()
}

// Connect dials the peer's address with Params.ConnectionTimeout, moving
// the session to Connected on success.
func (s *Session) Connect(ctx context.Context, params Params) error {
	dialer := net.Dialer{Timeout: params.ConnectionTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.Address)
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return fmt.Errorf("network: connect to %s: %w", s.Address, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.state = StateConnected
	s.lastSeen = time.Now()
	s.mu.Unlock()
	return nil
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ban moves the session to Banned and closes its connection.
func (s *Session) Ban() {
	s.mu.Lock()
	s.state = StateBanned
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// LastSeen returns the last time this session connected or received a
// message from the peer. Sending does not update it, so a peer that stops
// answering goes stale even while this side keeps pinging it.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LatencyMs returns the last measured round-trip ping latency, if any.
func (s *Session) LatencyMs() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latencyMs, s.hasLatency
}

// SendMessage frames and writes msg to the peer's socket.
func (s *Session) SendMessage(msg Message, params Params) error {
	s.mu.Lock()
	conn := s.conn
	banned := s.state == StateBanned
	s.mu.Unlock()
	if banned {
		return ErrPeerBanned
	}
	if conn == nil {
		return ErrNotConnected
	}
	return WriteFrame(conn, msg, params)
}

// ReceiveMessage reads one framed message from the peer's socket.
func (s *Session) ReceiveMessage(params Params) (Message, error) {
	s.mu.Lock()
	conn := s.conn
	banned := s.state == StateBanned
	s.mu.Unlock()
	if banned {
		return Message{}, ErrPeerBanned
	}
	if conn == nil {
		return Message{}, ErrNotConnected
	}
	msg, err := ReadFrame(conn, params)
	if err != nil {
		return Message{}, err
	}
	s.touch()
	return msg, nil
}

// MeasureLatency sends a Ping and waits for the session's receive loop to
// observe the matching Pong, recording round-trip time. It does not read
// from the socket itself: ReceiveMessage is only ever called from one place
// per session (the owning receive loop), so a concurrent ping/pong check
// can never steal a frame out from under it or interleave a length-prefix
// read with a body read on the same net.Conn. The receive loop must call
// NotifyPong whenever it sees a Pong for this to complete before the
// timeout.
func (s *Session) MeasureLatency(params Params, senderID []byte) (time.Duration, error) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.pongWait = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.pongWait == ch {
			s.pongWait = nil
		}
		s.mu.Unlock()
	}()

	start := time.Now()
	if err := s.SendMessage(NewPingMessage(senderID), params); err != nil {
		return 0, err
	}

	select {
	case <-ch:
		rtt := time.Since(start)
		s.mu.Lock()
		s.latencyMs = rtt.Milliseconds()
		s.hasLatency = true
		s.mu.Unlock()
		return rtt, nil
	case <-time.After(params.ConnectionTimeout):
		return 0, ErrLatencyTimeout
	}
}

// NotifyPong signals a goroutine blocked in MeasureLatency that the
// session's receive loop has observed a Pong. Returns false when nothing
// was waiting, in which case the caller should treat the Pong as an
// ordinary, ignorable message (e.g. an unsolicited or late reply).
func (s *Session) NotifyPong() bool {
	s.mu.Lock()
	ch := s.pongWait
	s.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- struct{}{}:
	default:
	}
	return true
}

// Close releases the session's socket and moves it to Disconnected.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.state = StateDisconnected
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Manager is the bounded registry of known peer sessions. Capacity and
// idempotent-by-id admission mirror the original implementation's
// PeerManager.
type Manager struct {
	mu       sync.RWMutex
	peers    map[string]*Session
	maxPeers int
}

// NewManager builds an empty registry capped at maxPeers.
func NewManager(maxPeers int) *Manager {
	return &Manager{peers: make(map[string]*Session), maxPeers: maxPeers}
}

// Add registers s. Re-adding a known id is a no-op; adding past capacity
// returns ErrMaxPeers.
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := s.IDString()
	if _, exists := m.peers[key]; exists {
		return nil
	}
	if len(m.peers) >= m.maxPeers {
		return ErrMaxPeers
	}
	m.peers[key] = s
	return nil
}

// Remove drops a session from the registry (it does not close it - callers
// that want to disconnect should call Session.Close first).
func (m *Manager) Remove(idHex string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.peers, idHex)
}

// Get looks up a session by hex-encoded id.
func (m *Manager) Get(idHex string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.peers[idHex]
	return s, ok
}

// All returns a snapshot of every registered session.
func (m *Manager) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.peers))
	for _, s := range m.peers {
		out = append(out, s)
	}
	return out
}

// Connected returns every session currently in the Connected state.
func (m *Manager) Connected() []*Session {
	all := m.All()
	out := make([]*Session, 0, len(all))
	for _, s := range all {
		if s.State() == StateConnected {
			out = append(out, s)
		}
	}
	return out
}

// CanAcceptMore reports whether the registry has room for another peer.
func (m *Manager) CanAcceptMore() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers) < m.maxPeers
}

// Count returns the number of registered sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers)
}
