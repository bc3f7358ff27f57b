// Package server coordinates client registration, room actions, and
// connection cleanup for the scrum poker WebSocket system via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/scrumpoker/internal/room"
)

type clientAction struct {
	client *Client
	msg    Inbound
}

// Hub owns every WebSocket client and the room registry. Its Run loop handles
// registration, unregistration, and client actions one at a time, so each
// action and the broadcast it triggers complete before the next one starts.
//
// Hub implements room.Notifier.
type Hub struct {
	cfg      Config
	rooms    *room.Registry
	origins  *originPolicy
	upgrader websocket.Upgrader
	clock    clockwork.Clock

	clients    map[*Client]bool
	byID       map[room.ConnID]*Client
	actions    chan clientAction
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub configured by cfg (nil means defaults) together with
// its room registry. The returned Hub must be started with Run.
func NewHub(cfg *Config, opts ...room.Option) *Hub {
	if cfg == nil {
		cfg = NewConfig()
	}
	sanitized := sanitizeConfig(*cfg)

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		cfg:        sanitized,
		origins:    newOriginPolicy(sanitized.AllowedOrigins),
		clock:      clockwork.NewRealClock(),
		clients:    make(map[*Client]bool),
		byID:       make(map[room.ConnID]*Client),
		actions:    make(chan clientAction),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.origins.checkOrigin,
	}
	h.rooms = room.NewRegistry(h, opts...)
	return h
}

// Rooms returns the hub's room registry.
func (h *Hub) Rooms() *room.Registry {
	return h.rooms
}

// Config returns the sanitized configuration the hub runs with.
func (h *Hub) Config() Config {
	return h.cfg
}

// ClientCount reports the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Register hands a new client to the hub, which starts its pumps. It returns
// false if the hub has shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// leave queues the client for unregistration, which also removes it from
// its room.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) dispatch(action clientAction) bool {
	select {
	case h.actions <- action:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic in safeSend")
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop. It should be called in a separate
// goroutine and returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case action := <-h.actions:
			h.handleAction(action)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		log.Warn().Msg("received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	h.byID[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()
	client.logger().Info().Int("clients", clientCount).Msg("client registered")

	if client.conn == nil {
		return
	}
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	delete(h.byID, client.id)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)
	h.leaveRoom(client)
	client.logger().Info().Int("clients", clientCount).Msg("client unregistered")
}

func (h *Hub) isRegistered(client *Client) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.clients[client]
}

func (h *Hub) handleAction(action clientAction) {
	client, msg := action.client, action.msg
	if client == nil || !h.isRegistered(client) {
		return
	}

	switch msg.Type {
	case ActionCreateRoom:
		code := h.rooms.Create()
		client.logger().Info().Str("room", code.String()).Str("name", msg.Name).Msg("room created")
		h.reply(client, Outbound{Type: EventRoomCreated, RequestID: msg.RequestID, Code: code})

	case ActionJoinRoom:
		h.joinRoom(client, msg)

	case ActionLeaveRoom:
		h.leaveRoom(client)

	case ActionVote:
		value, ok := msg.voteValue()
		if !ok {
			client.logger().Warn().RawJSON("value", msg.Value).Msg("vote value must be a string, number or null")
			return
		}
		h.logRejection(client, msg.Type, h.rooms.Vote(client.code, client.id, value))

	case ActionReveal:
		h.logRejection(client, msg.Type, h.rooms.Reveal(client.code, client.id))

	case ActionClear:
		h.logRejection(client, msg.Type, h.rooms.Clear(client.code, client.id))

	default:
		client.logger().Warn().Str("action", msg.Type).Msg("unknown action")
	}
}

func (h *Hub) joinRoom(client *Client, msg Inbound) {
	code, ok := room.NormalizeCode(msg.Code)
	if !ok {
		client.logger().Debug().Str("code", msg.Code).Msg("join with malformed room code")
		h.reply(client, Outbound{Type: EventError, RequestID: msg.RequestID, Error: ErrMsgRoomNotFound})
		return
	}

	state, err := h.rooms.Join(code, client.id, msg.Name)
	if err != nil {
		client.logger().Debug().Err(err).Str("room", code.String()).Msg("join rejected")
		h.reply(client, Outbound{Type: EventError, RequestID: msg.RequestID, Error: ErrMsgRoomNotFound})
		return
	}

	if client.code != code {
		h.leaveRoom(client)
	}
	client.code = code
	client.logger().Info().Str("room", code.String()).Int("participants", len(state.Participants)).Msg("joined room")
	h.reply(client, Outbound{Type: EventRoomJoined, RequestID: msg.RequestID, Code: code, State: &state})
}

func (h *Hub) leaveRoom(client *Client) {
	if client.code == "" {
		return
	}
	code := client.code
	client.code = ""
	h.logRejection(client, ActionLeaveRoom, h.rooms.Leave(code, client.id))
	client.logger().Debug().Str("room", code.String()).Msg("left room")
}

// logRejection records why an action had no effect. Rejections are never
// reported back to the client.
func (h *Hub) logRejection(client *Client, action string, err error) {
	if err == nil {
		return
	}
	event := client.logger().Warn()
	if room.Ignored(err) {
		event = client.logger().Debug()
	}
	event.Err(err).Str("action", action).Str("room", client.code.String()).Msg("action ignored")
}

// Notify queues a room-update carrying state on each recipient's connection.
// Recipients that cannot keep up are disconnected.
func (h *Hub) Notify(recipients []room.ConnID, state room.State) {
	payload, err := json.Marshal(Outbound{Type: EventRoomUpdate, State: &state})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode room update")
		return
	}

	for _, id := range recipients {
		h.mutex.RLock()
		client := h.byID[id]
		h.mutex.RUnlock()
		if client == nil {
			continue
		}
		if !h.safeSend(client, payload) {
			h.dropClient(client)
		}
	}
	log.Debug().Int("recipients", len(recipients)).Msg("room update broadcast")
}

func (h *Hub) reply(client *Client, out Outbound) {
	payload, err := json.Marshal(out)
	if err != nil {
		client.logger().Error().Err(err).Str("type", out.Type).Msg("failed to encode reply")
		return
	}
	if !h.safeSend(client, payload) {
		h.dropClient(client)
	}
}

// dropClient closes the connection of a client whose send buffer is full.
// The read pump then unregisters it, which runs the normal leave path.
func (h *Hub) dropClient(client *Client) {
	client.logger().Warn().Msg("send buffer full; closing connection")
	client.closeConnection()
}

// shutdownClients closes every connection and send channel. It only runs from
// Run, after which no further sends happen.
func (h *Hub) shutdownClients() {
	log.Info().Msg("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, client)
		delete(h.byID, client.id)
		client.closed = true
	}
	h.mutex.Unlock()

	for _, client := range clients {
		close(client.send)
		client.closeConnection()
	}

	log.Info().Int("clients", len(clients)).Msg("closed client connections")
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Info().Msg("initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		log.Warn().Msg("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
