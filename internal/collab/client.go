package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // code buffers ride on this connection
	sendQueueSize  = 64
)

// Sender is the session's outbound view of a connection. *Client satisfies
// it; tests substitute a channel-backed fake.
type Sender interface {
	ID() string
	User() domain.UserRef
	SendRaw(payload []byte)
	SendEvent(event string, data interface{})
}

// Client owns one websocket connection: a read pump that dispatches inbound
// envelopes and a write pump that drains the send queue.
type Client struct {
	id     string
	user   domain.UserRef
	conn   *websocket.Conn
	binder *Binder
	log    *logrus.Entry

	send chan []byte

	mu      sync.Mutex
	session *Session

	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, user domain.UserRef, binder *Binder, log *logrus.Logger) *Client {
	if conn == nil || binder == nil || log == nil {
		panic("collab: NewClient requires non-nil dependencies")
	}
	id := uuid.NewString()
	return &Client{
		id:     id,
		user:   user,
		conn:   conn,
		binder: binder,
		log:    log.WithFields(logrus.Fields{"conn_id": id, "user_id": user.ID}),
		send:   make(chan []byte, sendQueueSize),
	}
}

func (c *Client) ID() string           { return c.id }
func (c *Client) User() domain.UserRef { return c.user }

// Session returns the bound session, or nil.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// SendRaw queues a pre-encoded frame. A full queue drops the frame and
// tears down the transport so the pumps unwind through Unbind: a reader
// that slow is better off resyncing from a fresh room-joined snapshot.
func (c *Client) SendRaw(payload []byte) {
	select {
	case c.send <- payload:
	default:
		c.log.Warn("send queue full, closing connection")
		c.close()
	}
}

// SendEvent encodes and queues one event.
func (c *Client) SendEvent(event string, data interface{}) {
	payload, err := EncodeEvent(event, data)
	if err != nil {
		c.log.WithError(err).WithField("event", event).Error("encode event")
		return
	}
	c.SendRaw(payload)
}

// close shuts the transport only. The send channel stays open so the
// session can keep queueing frames until the read pump has unbound the
// connection; it is closed there and nowhere else.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// Run services the connection until it closes, then unbinds. Blocks.
func (c *Client) Run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.binder.Unbind(c)
		// Unbind has removed the connection from its session, so no
		// goroutine can send on the queue anymore; closing it here stops
		// the write pump.
		close(c.send)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("unexpected close")
			}
			return
		}
		c.dispatch(ctx, raw)
	}
}

func (c *Client) dispatch(ctx context.Context, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.SendEvent(EventError, ErrorData{Message: "malformed message"})
		return
	}

	switch env.Event {
	case EventJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.SendEvent(EventError, ErrorData{Message: "malformed join-room payload"})
			return
		}
		if err := c.binder.Bind(ctx, c, data.RoomID, data.UserID); err != nil {
			c.SendEvent(EventError, ErrorData{Message: bindErrorMessage(err)})
		}

	case EventLeaveRoom:
		c.binder.Unbind(c)

	case EventCodeChange:
		var data CodeChangeData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.SendEvent(EventError, ErrorData{Message: "malformed code-change payload"})
			return
		}
		c.withSession(func(s *Session) error {
			return s.CodeChange(c, data.Code, data.Language, data.CursorPosition)
		})

	case EventCursorChange:
		var data CursorChangeData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.SendEvent(EventError, ErrorData{Message: "malformed cursor-change payload"})
			return
		}
		c.withSession(func(s *Session) error {
			return s.CursorChange(c, data.CursorPosition)
		})

	case EventChatMessage:
		var data ChatMessageData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.SendEvent(EventError, ErrorData{Message: "malformed chat-message payload"})
			return
		}
		c.withSession(func(s *Session) error {
			return s.Chat(c, data.Message, data.Type)
		})

	default:
		c.SendEvent(EventError, ErrorData{Message: "unknown event: " + env.Event})
	}
}

func (c *Client) withSession(fn func(*Session) error) {
	s := c.Session()
	if s == nil {
		c.SendEvent(EventError, ErrorData{Message: "not bound to a room"})
		return
	}
	if err := fn(s); err != nil {
		c.SendEvent(EventError, ErrorData{Message: "room session unavailable"})
	}
}

func bindErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyBound):
		return "already bound to a room"
	case errors.Is(err, ErrIdentityMismatch):
		return "user does not match connection"
	case errors.Is(err, ErrNotParticipant):
		return "join the room before connecting"
	default:
		return "failed to join room"
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
