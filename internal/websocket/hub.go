package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
	"github.com/satriahrh/swara/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 10 * 1024 * 1024 // 10MB for whole voice notes

	// Typing indicators are sent with this period while a turn runs.
	typingPeriod = 3 * time.Second

	// A single turn may not run longer than this.
	turnTimeout = 2 * time.Minute
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Devices connect from arbitrary networks; auth happens via JWT
		// before the upgrade.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients and routes their turns through
// the voice note and chat services.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	voiceNotes *usecase.VoiceNoteService
	chat       *usecase.ChatService

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(
	voiceNotes *usecase.VoiceNoteService,
	chat *usecase.ChatService,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		voiceNotes: voiceNotes,
		chat:       chat,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if previous, ok := h.clients[client.deviceID]; ok {
				previous.shutdown()
			}
			h.clients[client.deviceID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("deviceID", client.deviceID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.deviceID]; ok && current == client {
				delete(h.clients, client.deviceID)
				current.shutdown()
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("deviceID", client.deviceID))
		}
	}
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
// It owns the state of the current conversation turn and implements
// repositories.SessionControl for interrupting it.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages. Never closed; done signals
	// teardown instead, so turn goroutines cannot send on a closed channel.
	send chan WriteData

	// Closed by the hub when the client is unregistered or replaced.
	done chan struct{}

	// Device ID for this client
	deviceID string

	// Logger
	logger *zap.Logger

	validator *MessageValidator

	// Turn state. pendingNote is a voice note announcement waiting for
	// its binary audio frame.
	mutex       sync.Mutex
	pendingNote *VoiceNoteMessage
	turn        uint64
	running     bool
	interrupted bool
	cancelTurn  context.CancelFunc
}

var _ repositories.SessionControl = (*Client)(nil)

// HandleWebSocket upgrades the connection for a pre-authenticated device
// and starts the client's pumps.
func HandleWebSocket(hub *Hub, c echo.Context, deviceID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		done:      make(chan struct{}),
		deviceID:  deviceID,
		logger:    logger,
		validator: NewMessageValidator(),
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// shutdown tears the client down on behalf of the hub: the turn in flight
// is cancelled and outbound sends become no-ops. Only the hub's Run loop
// calls this, once per client.
func (c *Client) shutdown() {
	c.Stop()
	close(c.done)
}

// Stop implements repositories.SessionControl
func (c *Client) Stop() {
	c.mutex.Lock()
	cancel := c.cancelTurn
	c.mutex.Unlock()

	if cancel != nil {
		cancel()
	}
}

// MarkInterrupt implements repositories.SessionControl
func (c *Client) MarkInterrupt() {
	c.mutex.Lock()
	c.interrupted = true
	c.mutex.Unlock()
}

// IsRunning implements repositories.SessionControl
func (c *Client) IsRunning() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.running
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudio(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes incoming JSON messages from the device
func (c *Client) processMessage(message []byte) {
	parsed, err := c.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected message",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		c.sendJSON(NewErrorMessage(ErrorCodeBadMessage, "invalid message", err.Error()))
		return
	}

	switch msg := parsed.(type) {
	case *VoiceNoteMessage:
		c.handleVoiceNoteAnnouncement(msg)
	case *TextMessage:
		c.handleText(msg)
	case *StopMessage:
		c.handleStop()
	}
}

// handleVoiceNoteAnnouncement stores the announcement until the audio
// bytes arrive in the next binary frame.
func (c *Client) handleVoiceNoteAnnouncement(msg *VoiceNoteMessage) {
	if c.IsRunning() {
		// The user spoke over a turn in flight.
		c.MarkInterrupt()
		c.Stop()
	}

	c.mutex.Lock()
	c.pendingNote = msg
	c.mutex.Unlock()

	c.logger.Debug("Voice note announced",
		zap.String("deviceID", c.deviceID),
		zap.String("format", msg.Format),
		zap.Int("durationMs", msg.DurationMs))
}

// processBinaryAudio pairs the audio bytes with the pending announcement
// and starts the turn.
func (c *Client) processBinaryAudio(data []byte) {
	c.mutex.Lock()
	announcement := c.pendingNote
	c.pendingNote = nil
	c.mutex.Unlock()

	if announcement == nil {
		c.logger.Warn("Received audio without a voice note announcement",
			zap.String("deviceID", c.deviceID),
			zap.Int("size", len(data)))
		c.sendJSON(NewErrorMessage(ErrorCodeUnexpectedAudio, "announce the voice note before sending audio", ""))
		return
	}

	note := entities.VoiceNote{
		DeviceID:   c.deviceID,
		Format:     announcement.Format,
		DurationMs: announcement.DurationMs,
		Data:       data,
	}

	go c.runVoiceNoteTurn(note)
}

// handleText runs a typed message through the chat service. A message
// arriving mid-turn supersedes the turn in flight.
func (c *Client) handleText(msg *TextMessage) {
	if c.IsRunning() {
		c.MarkInterrupt()
		c.Stop()
	}
	go c.runTextTurn(msg.Text)
}

// handleStop interrupts the turn currently in flight
func (c *Client) handleStop() {
	c.logger.Info("Stop requested", zap.String("deviceID", c.deviceID))
	c.MarkInterrupt()
	c.Stop()
}

// runVoiceNoteTurn processes one voice note end to end: transcription,
// then the assistant's reply. Typing indicators go out while it runs.
func (c *Client) runVoiceNoteTurn(note entities.VoiceNote) {
	ctx, done := c.beginTurn()
	defer done()

	transcript, err := c.hub.voiceNotes.Process(ctx, note)
	if err != nil {
		c.sendTurnError(err)
		return
	}
	if transcript == nil {
		c.sendJSON(NewErrorMessage(ErrorCodeTranscription, "transcription is not available", ""))
		return
	}

	c.sendJSON(NewTranscriptMessage(transcript.Text, transcript.Confidence))

	// No speech detected: nothing to reply to.
	if transcript.Empty() {
		return
	}

	format := note.Format
	metadata := entities.SessionMessageMetadata{
		TranscriptionConfidence: &transcript.Confidence,
		VoiceNoteFormat:         &format,
	}

	reply, err := c.hub.chat.Respond(ctx, c.deviceID, transcript.Text, metadata)
	if err != nil {
		c.sendTurnError(err)
		return
	}

	if c.consumeInterrupt() {
		c.logger.Info("Reply discarded after interrupt", zap.String("deviceID", c.deviceID))
		return
	}

	c.sendJSON(NewReplyMessage(reply))
}

// runTextTurn processes one typed message through the chat service
func (c *Client) runTextTurn(text string) {
	ctx, done := c.beginTurn()
	defer done()

	reply, err := c.hub.chat.Respond(ctx, c.deviceID, text, entities.SessionMessageMetadata{})
	if err != nil {
		c.sendTurnError(err)
		return
	}

	if c.consumeInterrupt() {
		c.logger.Info("Reply discarded after interrupt", zap.String("deviceID", c.deviceID))
		return
	}

	c.sendJSON(NewReplyMessage(reply))
}

// beginTurn marks the turn as running and starts the typing ticker. The
// returned done func must be deferred; it tears both down.
func (c *Client) beginTurn() (context.Context, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)

	c.mutex.Lock()
	if c.cancelTurn != nil {
		c.cancelTurn()
	}
	c.turn++
	turn := c.turn
	c.running = true
	c.interrupted = false
	c.cancelTurn = cancel
	c.mutex.Unlock()

	stopTyping := make(chan struct{})
	go func() {
		ticker := time.NewTicker(typingPeriod)
		defer ticker.Stop()
		c.sendJSON(NewTypingMessage())
		for {
			select {
			case <-ticker.C:
				c.sendJSON(NewTypingMessage())
			case <-stopTyping:
				return
			}
		}
	}()

	return ctx, func() {
		close(stopTyping)
		cancel()
		c.mutex.Lock()
		// A newer turn may have superseded this one; leave its state alone.
		if c.turn == turn {
			c.running = false
			c.cancelTurn = nil
		}
		c.mutex.Unlock()
	}
}

// consumeInterrupt reports and clears the interrupted flag
func (c *Client) consumeInterrupt() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	interrupted := c.interrupted
	c.interrupted = false
	return interrupted
}

// sendTurnError maps a turn failure onto the wire error taxonomy
func (c *Client) sendTurnError(err error) {
	if errors.Is(err, context.Canceled) {
		// Interrupted turns end silently.
		return
	}

	c.logger.Error("Turn failed",
		zap.String("deviceID", c.deviceID),
		zap.Error(err))

	code := ErrorCodeInternal
	message := "something went wrong"

	var authErr *repositories.AuthError
	var convErr *repositories.ConversionError
	var trErr *repositories.TranscriptionError
	switch {
	case errors.As(err, &authErr):
		code = ErrorCodeAuthFailed
		message = "could not authenticate with the recognition service"
	case errors.As(err, &convErr):
		code = ErrorCodeConversion
		message = "could not convert the recording"
	case errors.As(err, &trErr) && trErr.Status == http.StatusTooManyRequests:
		code = ErrorCodeRateLimited
		message = "recognition service is rate limiting, try again later"
	case errors.As(err, &trErr):
		code = ErrorCodeTranscription
		message = "could not transcribe the recording"
	}

	c.sendJSON(NewErrorMessage(code, message, err.Error()))
}

// sendJSON marshals and queues a message without blocking the caller
func (c *Client) sendJSON(message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		c.logger.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}

	select {
	case <-c.done:
		// The hub already tore this client down.
		return
	default:
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message",
			zap.String("deviceID", c.deviceID))
	}
}
