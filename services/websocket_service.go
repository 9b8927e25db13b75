package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"quick-jot/quickjot/autosave"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1 << 20
	sendBufferSize = 256
)

// WebSocketServiceInterface is the realtime hub. Events are only delivered to
// connections owned by the event's user.
type WebSocketServiceInterface interface {
	Start()
	Stop()
	Consume(messages <-chan *nats.Msg)
	Deliver(msg *models.StandardMessage)
	HandleConnection(w http.ResponseWriter, r *http.Request, userID uuid.UUID)
	ClientCount(userID uuid.UUID) int
}

// Client is one websocket connection. Each client owns an autosave pipeline
// for the note it has open.
type Client struct {
	ID     string
	UserID uuid.UUID
	Hub    *WebSocketService
	Conn   *websocket.Conn
	Send   chan []byte

	pipeline *autosave.Pipeline
}

type WebSocketService struct {
	clients      map[uuid.UUID]map[string]*Client
	clientsMutex sync.RWMutex

	upgrader      websocket.Upgrader
	db            *database.Database
	noteService   NoteServiceInterface
	autosaveDelay time.Duration
	logger        *zap.Logger

	runMutex  sync.Mutex
	isRunning bool
	stopChan  chan struct{}
}

func NewWebSocketService(db *database.Database, noteService NoteServiceInterface, autosaveDelay time.Duration, logger *zap.Logger) *WebSocketService {
	return &WebSocketService{
		clients: make(map[uuid.UUID]map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		db:            db,
		noteService:   noteService,
		autosaveDelay: autosaveDelay,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

func (ws *WebSocketService) Start() {
	ws.runMutex.Lock()
	defer ws.runMutex.Unlock()
	if ws.isRunning {
		return
	}
	ws.isRunning = true
	ws.logger.Info("WebSocket hub started")
}

// Stop closes every connection. Pending autosaves are flushed by each
// client's read loop as it exits.
func (ws *WebSocketService) Stop() {
	ws.runMutex.Lock()
	if !ws.isRunning {
		ws.runMutex.Unlock()
		return
	}
	ws.isRunning = false
	close(ws.stopChan)
	ws.runMutex.Unlock()

	ws.clientsMutex.RLock()
	for _, byID := range ws.clients {
		for _, client := range byID {
			client.Conn.Close()
		}
	}
	ws.clientsMutex.RUnlock()
	ws.logger.Info("WebSocket hub stopped")
}

// Consume forwards broker events to connected owners until Stop.
func (ws *WebSocketService) Consume(messages <-chan *nats.Msg) {
	go func() {
		for {
			select {
			case <-ws.stopChan:
				return
			case msg, ok := <-messages:
				if !ok {
					ws.logger.Warn("Broker message channel closed")
					return
				}
				ws.handleBrokerMessage(msg.Data)
			}
		}
	}()
}

func (ws *WebSocketService) handleBrokerMessage(data []byte) {
	var envelope models.EventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		ws.logger.Warn("Discarding malformed event", zap.Error(err))
		return
	}
	if envelope.UserID == uuid.Nil {
		return
	}
	msg, err := envelope.ToMessage()
	if err != nil {
		ws.logger.Warn("Failed to build event message", zap.Error(err))
		return
	}
	ws.Deliver(msg)
}

func (ws *WebSocketService) Deliver(msg *models.StandardMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		ws.logger.Error("Failed to encode message", zap.Error(err))
		return
	}

	ws.clientsMutex.RLock()
	defer ws.clientsMutex.RUnlock()
	for _, client := range ws.clients[msg.UserID] {
		select {
		case client.Send <- data:
		default:
			ws.logger.Warn("Client send buffer full, dropping message",
				zap.String("client_id", client.ID), zap.String("event", msg.Event))
		}
	}
}

func (ws *WebSocketService) ClientCount(userID uuid.UUID) int {
	ws.clientsMutex.RLock()
	defer ws.clientsMutex.RUnlock()
	return len(ws.clients[userID])
}

func (ws *WebSocketService) register(client *Client) {
	ws.clientsMutex.Lock()
	defer ws.clientsMutex.Unlock()
	if ws.clients[client.UserID] == nil {
		ws.clients[client.UserID] = make(map[string]*Client)
	}
	ws.clients[client.UserID][client.ID] = client
	ws.logger.Debug("Client connected", zap.String("client_id", client.ID), zap.Stringer("user_id", client.UserID))
}

func (ws *WebSocketService) unregister(client *Client) {
	ws.clientsMutex.Lock()
	defer ws.clientsMutex.Unlock()
	byID := ws.clients[client.UserID]
	if _, ok := byID[client.ID]; !ok {
		return
	}
	delete(byID, client.ID)
	if len(byID) == 0 {
		delete(ws.clients, client.UserID)
	}
	close(client.Send)
	ws.logger.Debug("Client disconnected", zap.String("client_id", client.ID))
}

// sendTo queues data for one client, unless it has already gone away.
func (ws *WebSocketService) sendTo(client *Client, data []byte) {
	ws.clientsMutex.RLock()
	defer ws.clientsMutex.RUnlock()
	if _, ok := ws.clients[client.UserID][client.ID]; !ok {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// HandleConnection upgrades an authenticated request.
func (ws *WebSocketService) HandleConnection(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Hub:    ws,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
	}
	client.pipeline = autosave.New(
		&noteUpdater{db: ws.db, noteService: ws.noteService, userID: userID},
		autosave.WithDelay(ws.autosaveDelay),
		autosave.WithLogger(ws.logger),
		autosave.WithErrorHandler(func(noteID string, err error) {
			client.sendError(err)
		}),
	)

	ws.register(client)
	go client.writePump()
	go client.readPump()
}

// noteUpdater submits autosave patches through the note store on behalf of
// the connection's owner.
type noteUpdater struct {
	db          *database.Database
	noteService NoteServiceInterface
	userID      uuid.UUID
}

func (u *noteUpdater) UpdateNote(ctx context.Context, noteID string, patch autosave.Patch) error {
	_, err := u.noteService.UpdateNote(u.db.WithContext(ctx), u.userID, noteID, PatchToUpdateInput(patch))
	return err
}

// PatchToUpdateInput converts an autosave patch into a note update.
func PatchToUpdateInput(patch autosave.Patch) UpdateNoteInput {
	input := UpdateNoteInput{Title: patch.Title}
	if patch.SetContent {
		input.Content = Nullable[models.Document]{Set: true, Value: patch.Content}
	}
	return input
}

func (c *Client) readPump() {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := c.pipeline.Flush(ctx); err != nil {
			c.Hub.logger.Warn("Final autosave flush failed", zap.String("client_id", c.ID), zap.Error(err))
		}
		c.pipeline.Close()
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.logger.Debug("WebSocket read error", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
		c.processMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type noteOpenPayload struct {
	NoteID string `json:"note_id"`
}

type noteEditPayload struct {
	Title   *string                   `json:"title"`
	Content Nullable[models.Document] `json:"content"`
}

func (c *Client) processMessage(raw []byte) {
	var msg models.StandardMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError(invalidInput("Malformed message"))
		return
	}

	switch msg.Type {
	case models.NoteOpenMessage:
		c.handleNoteOpen(msg)
	case models.NoteEditMessage:
		c.handleNoteEdit(msg)
	case models.NoteCloseMessage:
		c.handleNoteClose(msg)
	default:
		c.sendError(invalidInput("Unknown message type %q", msg.Type))
	}
}

func (c *Client) handleNoteOpen(msg models.StandardMessage) {
	var payload noteOpenPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.sendError(invalidInput("Malformed note.open payload"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if _, err := c.Hub.noteService.GetNoteById(c.Hub.db.WithContext(ctx), c.UserID, payload.NoteID); err != nil {
		c.sendError(err)
		return
	}

	c.pipeline.Switch(payload.NoteID)
	c.sendAck(msg, map[string]string{"note_id": payload.NoteID})
}

func (c *Client) handleNoteEdit(msg models.StandardMessage) {
	var payload noteEditPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.sendError(invalidInput("Malformed note.edit payload"))
		return
	}

	patch := autosave.Patch{Title: payload.Title}
	if payload.Content.Set {
		patch.Content = payload.Content.Value
		patch.SetContent = true
	}
	if err := c.pipeline.Change(patch); err != nil {
		c.sendError(invalidInput("No note is open"))
	}
}

func (c *Client) handleNoteClose(msg models.StandardMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	noteID := c.pipeline.NoteID()
	// Flush reports failures through the pipeline's error handler.
	_ = c.pipeline.Flush(ctx)
	c.pipeline.Close()
	c.sendAck(msg, map[string]string{"note_id": noteID})
}

func (c *Client) sendAck(req models.StandardMessage, payload interface{}) {
	ack, err := models.NewStandardMessage(models.AckMessage, string(req.Type), payload)
	if err != nil {
		return
	}
	if req.ID != "" {
		ack.ID = req.ID
	}
	c.send(ack)
}

func (c *Client) sendError(err error) {
	msg, buildErr := models.NewStandardMessage(models.ErrorMessage, "", map[string]string{
		"code":    string(KindOf(err)),
		"message": MessageOf(err),
	})
	if buildErr != nil {
		return
	}
	c.send(msg)
}

func (c *Client) send(msg *models.StandardMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.Hub.sendTo(c, data)
}
