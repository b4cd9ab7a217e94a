package entities

import (
	"errors"
	"sync"
	"time"
)

// ConnectionState represents the lifecycle state of a call leg
type ConnectionState string

const (
	ConnectionStateConnecting ConnectionState = "connecting"
	ConnectionStateOpen       ConnectionState = "open"
	ConnectionStateClosed     ConnectionState = "closed"
)

// Placeholder values used when the handshake carries no metadata
const (
	DefaultRole = "unknown"
)

// Connection represents one live call leg attached to the relay.
// Identity fields are immutable after registration; the audio buffer,
// the in-flight flag and the call handle are guarded by mu.
type Connection struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	PairID      string    `json:"pair_id,omitempty"`
	ResponseURL string    `json:"response_url,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`

	mu       sync.Mutex
	state    ConnectionState
	callSID  string
	buffer   []byte
	inFlight bool

	segments      int
	bytesReceived int64
	lastFragment  time.Time
}

// ConnectionInfo is a point-in-time snapshot of a connection
type ConnectionInfo struct {
	ID            string          `json:"id"`
	Role          string          `json:"role"`
	PairID        string          `json:"pair_id,omitempty"`
	CallSID       string          `json:"call_sid,omitempty"`
	State         ConnectionState `json:"state"`
	ConnectedAt   time.Time       `json:"connected_at"`
	LastFragment  *time.Time      `json:"last_fragment_at,omitempty"`
	BufferedBytes int             `json:"buffered_bytes"`
	BytesReceived int64           `json:"bytes_received"`
	Segments      int             `json:"segments"`
	Dispatching   bool            `json:"dispatching"`
}

// NewConnection creates a connection in the Connecting state with an empty buffer
func NewConnection(id, role, pairID string) *Connection {
	if role == "" {
		role = DefaultRole
	}
	return &Connection{
		ID:          id,
		Role:        role,
		PairID:      pairID,
		ConnectedAt: time.Now(),
		state:       ConnectionStateConnecting,
		buffer:      make([]byte, 0),
	}
}

// Validate validates the connection identity
func (c *Connection) Validate() error {
	if c.ID == "" {
		return errors.New("connection id is required")
	}
	return nil
}

// State returns the current lifecycle state
func (c *Connection) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open moves the connection from Connecting to Open.
// It returns false if the connection is already closed.
func (c *Connection) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ConnectionStateClosed {
		return false
	}
	c.state = ConnectionStateOpen
	return true
}

// Close marks the connection as closed. Closed is terminal.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ConnectionStateClosed
}

// IsOpen reports whether the connection accepts audio
func (c *Connection) IsOpen() bool {
	return c.State() == ConnectionStateOpen
}

// CallSID returns the telephony call handle, if known
func (c *Connection) CallSID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callSID
}

// SetCallSID records the call handle unless one was already supplied.
// It reports whether the value was stored.
func (c *Connection) SetCallSID(sid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sid == "" || c.callSID != "" {
		return false
	}
	c.callSID = sid
	return true
}

// AppendAudio appends a fragment and returns the new buffer length
func (c *Connection) AppendAudio(fragment []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appendLocked(fragment)
}

// BufferLen returns the number of buffered bytes
func (c *Connection) BufferLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// DrainAudio returns the buffered bytes and resets the buffer
func (c *Connection) DrainAudio() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drainLocked()
}

// AppendAndClaim appends a fragment and, when the buffer exceeds threshold and
// no dispatch is in flight, drains it and marks the connection as dispatching.
// The returned segment is nil when nothing was claimed.
func (c *Connection) AppendAndClaim(fragment []byte, threshold int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.appendLocked(fragment) <= threshold || c.inFlight {
		return nil
	}
	c.inFlight = true
	c.segments++
	return c.drainLocked()
}

// ReleaseDispatch clears the in-flight mark set by AppendAndClaim
func (c *Connection) ReleaseDispatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
}

// Dispatching reports whether a segment from this connection is in flight
func (c *Connection) Dispatching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Snapshot returns a copy of the connection's observable state
func (c *Connection) Snapshot() ConnectionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := ConnectionInfo{
		ID:            c.ID,
		Role:          c.Role,
		PairID:        c.PairID,
		CallSID:       c.callSID,
		State:         c.state,
		ConnectedAt:   c.ConnectedAt,
		BufferedBytes: len(c.buffer),
		BytesReceived: c.bytesReceived,
		Segments:      c.segments,
		Dispatching:   c.inFlight,
	}
	if !c.lastFragment.IsZero() {
		last := c.lastFragment
		info.LastFragment = &last
	}
	return info
}

func (c *Connection) appendLocked(fragment []byte) int {
	if len(fragment) == 0 {
		return len(c.buffer)
	}
	c.buffer = append(c.buffer, fragment...)
	c.bytesReceived += int64(len(fragment))
	c.lastFragment = time.Now()
	return len(c.buffer)
}

func (c *Connection) drainLocked() []byte {
	segment := c.buffer
	c.buffer = make([]byte, 0, cap(segment))
	return segment
}
