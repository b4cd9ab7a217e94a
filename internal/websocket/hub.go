package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
	"github.com/satriahrh/juru/server/internal/metrics"
	"github.com/satriahrh/juru/server/internal/registry"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio fragments
)

var upgrader = websocket.Upgrader{
	// Call legs come from telephony providers, not browsers.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// AudioSink receives audio fragments for a registered connection
type AudioSink interface {
	Ingest(conn *entities.Connection, fragment []byte) bool
}

// Hub accepts call legs, keeps them in the registry for as long as the socket
// is open, and feeds their audio into the sink.
type Hub struct {
	// Live clients, for shutdown.
	clients map[*Client]struct{}
	mu      sync.RWMutex

	registry *registry.Registry
	sink     AudioSink
	metrics  *metrics.Metrics

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(reg *registry.Registry, sink AudioSink, m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		registry: reg,
		sink:     sink,
		metrics:  m,
		logger:   logger,
	}
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	ws *websocket.Conn

	// The call leg this socket carries.
	conn *entities.Connection

	// Closed when readPump exits, stops writePump.
	done chan struct{}

	logger *zap.Logger
}

// HandleWebSocket handles websocket requests from a call leg.
//
// Query parameters: connection_id (generated when absent), role, pair,
// call_sid and response_url.
func HandleWebSocket(hub *Hub, c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	connectionID := c.QueryParam("connection_id")
	if connectionID == "" {
		connectionID = uuid.NewString()
	}

	conn := entities.NewConnection(connectionID, c.QueryParam("role"), c.QueryParam("pair"))
	conn.ResponseURL = c.QueryParam("response_url")
	conn.SetCallSID(c.QueryParam("call_sid"))

	logger := hub.logger.With(zap.String("connectionID", connectionID))

	if err := hub.registry.Register(conn); err != nil {
		hub.metrics.RecordConnectionRejected()
		reason := "invalid connection"
		if errors.Is(err, repositories.ErrDuplicateConnection) {
			reason = "duplicate connection id"
		}
		logger.Warn("Connection rejected", zap.Error(err))

		deadline := time.Now().Add(writeWait)
		ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
		ws.Close()
		return nil
	}

	conn.Open()
	client := &Client{
		hub:    hub,
		ws:     ws,
		conn:   conn,
		done:   make(chan struct{}),
		logger: logger,
	}
	hub.addClient(client)

	logger.Info("Call leg connected",
		zap.String("role", conn.Role),
		zap.String("pairID", conn.PairID),
		zap.String("callSID", conn.CallSID()))

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.metrics.RecordConnectionOpened()
}

// removeClient takes the leg out of the registry. Segments already in flight
// keep running.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if !ok {
		return
	}

	client.conn.Close()
	h.registry.RemoveIfSame(client.conn)
	h.metrics.RecordConnectionClosed()

	info := client.conn.Snapshot()
	client.logger.Info("Call leg disconnected",
		zap.Int64("bytesReceived", info.BytesReceived),
		zap.Int("segments", info.Segments),
		zap.Int("discardedBytes", info.BufferedBytes))
}

// ClientCount returns the number of open sockets
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown sends a going-away close frame to every client and waits for
// their read loops to finish, or for ctx to end.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.closeWith(websocket.CloseGoingAway, "server shutting down")
	}

	for _, client := range clients {
		select {
		case <-client.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// closeWith sends a close frame and closes the socket, which ends readPump.
func (c *Client) closeWith(code int, reason string) {
	deadline := time.Now().Add(writeWait)
	if err := c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil {
		c.logger.Debug("Failed to send close frame", zap.Error(err))
	}
	c.ws.Close()
}

// readPump pumps audio from the websocket connection into the sink.
func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.ws.Close()
		close(c.done)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		// Any inbound traffic proves the peer is alive.
		c.ws.SetReadDeadline(time.Now().Add(pongWait))

		switch messageType {
		case websocket.BinaryMessage:
			c.processAudio(message)
		case websocket.TextMessage:
			if stop := c.processMessage(message); stop {
				c.closeWith(websocket.CloseNormalClosure, "stream stopped")
				return
			}
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) processAudio(fragment []byte) {
	if len(fragment) == 0 {
		return
	}
	if c.hub.sink.Ingest(c.conn, fragment) {
		c.logger.Debug("Segment dispatched", zap.Int("fragmentSize", len(fragment)))
	}
}

// processMessage handles a Twilio Media Streams text frame.
// It reports whether the stream has ended.
func (c *Client) processMessage(message []byte) bool {
	msg, err := ParseStreamMessage(message)
	if err != nil {
		c.logger.Warn("Ignoring text frame", zap.Error(err))
		return false
	}

	switch m := msg.(type) {
	case *MediaMessage:
		audio, err := m.Audio()
		if err != nil {
			c.logger.Warn("Ignoring media frame", zap.Error(err))
			return false
		}
		c.processAudio(audio)

	case *StartMessage:
		if c.conn.SetCallSID(m.Start.CallSID) {
			c.logger.Info("Call SID learned from stream start", zap.String("callSID", m.Start.CallSID))
		}
		c.logger.Info("Stream started",
			zap.String("streamSID", m.Start.StreamSID),
			zap.String("encoding", m.Start.MediaFormat.Encoding),
			zap.Int("sampleRate", m.Start.MediaFormat.SampleRate))

	case *StopMessage:
		c.logger.Info("Stream stopped", zap.String("callSID", m.Stop.CallSID))
		return true

	case *ConnectedMessage, *MarkMessage:
		// nothing to do
	}
	return false
}
