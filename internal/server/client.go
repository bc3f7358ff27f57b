package server

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/scrumpoker/internal/room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// Client is one WebSocket connection. Its id doubles as the participant
// identity inside a room. code is the room the connection occupies; only the
// hub's event loop reads or writes it.
type Client struct {
	id      room.ConnID
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	addr    string
	closed  bool
	code    room.Code
	limiter *tokenBucket
	log     zerolog.Logger
}

// NewClient wraps conn for hub. Each client gets a fresh random ID, a read
// limit, and its own token bucket from the hub's configuration.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(hub.cfg.MaxMessageSize)
	}

	id := room.ConnID(uuid.NewString())
	return &Client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		hub:     hub,
		addr:    addr,
		limiter: newTokenBucket(hub.cfg.RateLimit, hub.clock),
		log:     log.With().Str("conn_id", string(id)).Str("remote_addr", addr).Logger(),
	}
}

// ID returns the connection identifier used as the participant ID.
func (c *Client) ID() room.ConnID {
	return c.id
}

// GetSendChan returns the queue of encoded envelopes waiting to be written.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

func (c *Client) logger() *zerolog.Logger {
	return &c.log
}

// readPump decodes actions from the socket and hands them to the hub until
// the connection fails. It then unregisters the client, which also takes it
// out of its room.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.closeConnection()
	}()

	c.extendReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if !c.limiter.take() {
			c.log.Warn().
				Int("burst", c.hub.cfg.RateLimit.Burst).
				Dur("interval", c.hub.cfg.RateLimit.RefillInterval).
				Msg("rate limit exceeded; discarding action")
			continue
		}
		if msg, ok := c.decode(raw); ok && !c.hub.dispatch(clientAction{client: c, msg: msg}) {
			return
		}
	}
}

func (c *Client) extendReadDeadline() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn().Err(err).Msg("failed to set read deadline")
	}
}

func (c *Client) decode(raw []byte) (Inbound, bool) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.log.Warn().Err(err).Msg("invalid message")
		return msg, false
	}
	if msg.Type == "" {
		c.log.Warn().Msg("message without type")
		return msg, false
	}
	c.log.Debug().Str("action", msg.Type).Msg("received action")
	return msg, true
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn().Int64("max_bytes", c.hub.cfg.MaxMessageSize).Msg("message exceeded maximum size")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), isExpectedCloseError(err):
		c.log.Info().Err(err).Msg("client disconnected")
	default:
		c.log.Warn().Err(err).Msg("WebSocket read error")
	}
}

// writePump writes queued envelopes, one per text frame, and pings the peer
// every pingPeriod. It exits when the send channel is closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	err := c.conn.WriteMessage(messageType, payload)
	if err != nil && !isExpectedCloseError(err) {
		c.log.Warn().Err(err).Int("frame_type", messageType).Msg("write failed")
	}
	return err
}

// closeConnection closes the socket. Both pumps call it, so a second close is
// expected and not logged.
func (c *Client) closeConnection() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn().Err(err).Msg("error closing connection")
	}
}
