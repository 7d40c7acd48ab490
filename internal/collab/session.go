package collab

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/domain"
)

// Config tunes the runtime behaviour of room sessions.
type Config struct {
	// IdleGrace is how long a session with no bound connections survives
	// before it flushes and leaves the registry.
	IdleGrace time.Duration

	// ChatPersistTimeout bounds the synchronous durable append of a chat
	// message.
	ChatPersistTimeout time.Duration

	// ChatTailLimit caps both the history loaded at session start and the
	// in-memory tail replayed to late joiners.
	ChatTailLimit int

	// QueueSize is the session event queue capacity.
	QueueSize int
}

// DefaultConfig returns the tuning used when the environment is silent.
func DefaultConfig() Config {
	return Config{
		IdleGrace:          30 * time.Second,
		ChatPersistTimeout: 5 * time.Second,
		ChatTailLimit:      50,
		QueueSize:          256,
	}
}

type eventKind int

const (
	evBind eventKind = iota
	evUnbind
	evCodeChange
	evCursorChange
	evChat
	evIdleCheck
	evStop
)

// sessionEvent is one unit of work on the session's serialized queue. Every
// mutation of session state flows through it; there is no other path.
type sessionEvent struct {
	kind   eventKind
	client Sender

	code     string
	language string
	cursor   *CursorPosition

	message  string
	chatType domain.ChatType

	reply chan bindReply // evBind
	ack   chan struct{}  // evUnbind, evStop
}

type bindReply struct {
	snapshot RoomJoinedData
	err      error
}

// presenceEntry tracks one distinct user across possibly several connections.
type presenceEntry struct {
	ref   domain.UserRef
	conns int
}

// Session is the per-room actor. A single goroutine owns all fields below
// the channels; everything external goes through enqueue.
type Session struct {
	roomID   uint
	registry *Registry
	gateway  Gateway
	cfg      Config
	log      *logrus.Entry

	events chan sessionEvent
	done   chan struct{}

	// Owned by the run goroutine.
	room     *domain.Room
	doc      domain.SharedDocument
	dirty    bool
	chatTail []ChatEntry
	conns    map[Sender]struct{}
	presence map[uint]*presenceEntry
	order    []uint // user ids in first-bind order
	idle     *time.Timer
}

func newSession(roomID uint, room *domain.Room, tail []ChatEntry, registry *Registry, gateway Gateway, cfg Config, log *logrus.Logger) *Session {
	return &Session{
		roomID:   roomID,
		registry: registry,
		gateway:  gateway,
		cfg:      cfg,
		log:      log.WithField("room_id", roomID),
		events:   make(chan sessionEvent, cfg.QueueSize),
		done:     make(chan struct{}),
		room:     room,
		doc:      room.Document,
		chatTail: tail,
		conns:    make(map[Sender]struct{}),
		presence: make(map[uint]*presenceEntry),
	}
}

// enqueue hands an event to the actor, failing fast once the session has
// left the registry so callers can retry against a fresh one.
func (s *Session) enqueue(ev sessionEvent) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Bind registers the client and returns the authoritative room snapshot.
func (s *Session) Bind(ctx context.Context, c Sender) (RoomJoinedData, error) {
	reply := make(chan bindReply, 1)
	if err := s.enqueue(sessionEvent{kind: evBind, client: c, reply: reply}); err != nil {
		return RoomJoinedData{}, err
	}
	select {
	case r := <-reply:
		return r.snapshot, r.err
	case <-ctx.Done():
		return RoomJoinedData{}, ctx.Err()
	case <-s.done:
		return RoomJoinedData{}, ErrSessionClosed
	}
}

// Unbind removes the client and waits until the removal has been applied,
// so no event from this connection can be processed afterwards.
func (s *Session) Unbind(c Sender) {
	ack := make(chan struct{})
	if err := s.enqueue(sessionEvent{kind: evUnbind, client: c, ack: ack}); err != nil {
		return // session already gone, nothing to remove
	}
	select {
	case <-ack:
	case <-s.done:
	}
}

// CodeChange submits a last-writer-wins document update.
func (s *Session) CodeChange(c Sender, code, language string, cursor *CursorPosition) error {
	return s.enqueue(sessionEvent{kind: evCodeChange, client: c, code: code, language: language, cursor: cursor})
}

// CursorChange relays a cursor move to the other connections.
func (s *Session) CursorChange(c Sender, cursor CursorPosition) error {
	cur := cursor
	return s.enqueue(sessionEvent{kind: evCursorChange, client: c, cursor: &cur})
}

// Chat appends a chat message: persisted first, broadcast only on success.
func (s *Session) Chat(c Sender, message string, chatType domain.ChatType) error {
	return s.enqueue(sessionEvent{kind: evChat, client: c, message: message, chatType: chatType})
}

// Stop flushes and terminates the session regardless of bound connections.
// Used on server shutdown.
func (s *Session) Stop() {
	ack := make(chan struct{})
	if err := s.enqueue(sessionEvent{kind: evStop, ack: ack}); err != nil {
		return
	}
	select {
	case <-ack:
	case <-s.done:
	}
}

// Done is closed once the run loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) run() {
	defer close(s.done)
	for ev := range s.events {
		if stop := s.handle(ev); stop {
			return
		}
	}
}

func (s *Session) handle(ev sessionEvent) bool {
	switch ev.kind {
	case evBind:
		s.handleBind(ev)
	case evUnbind:
		s.handleUnbind(ev.client)
		close(ev.ack)
		if len(s.conns) == 0 {
			s.armIdleTimer()
		}
	case evCodeChange:
		s.handleCodeChange(ev)
	case evCursorChange:
		s.handleCursorChange(ev)
	case evChat:
		s.handleChat(ev)
	case evIdleCheck:
		if len(s.conns) == 0 {
			s.teardown()
			return true
		}
	case evStop:
		s.teardown()
		close(ev.ack)
		return true
	}
	return false
}

func (s *Session) handleBind(ev sessionEvent) {
	c := ev.client
	if _, ok := s.conns[c]; ok {
		ev.reply <- bindReply{err: ErrAlreadyBound}
		return
	}
	if s.idle != nil {
		s.idle.Stop()
		s.idle = nil
	}
	s.conns[c] = struct{}{}

	// The embedded copy inside the room record goes stale as edits accrue;
	// realign it so every field of the snapshot agrees.
	s.room.Document = s.doc
	snapshot := RoomJoinedData{
		Room:        s.room,
		SharedCode:  s.doc,
		ChatHistory: append([]ChatEntry(nil), s.chatTail...),
	}
	// The snapshot goes to the new connection before any presence traffic,
	// so its first frame is always room-joined.
	c.SendEvent(EventRoomJoined, snapshot)

	ref := c.User()
	entry, seen := s.presence[ref.ID]
	if seen {
		entry.conns++
	} else {
		s.presence[ref.ID] = &presenceEntry{ref: ref, conns: 1}
		s.order = append(s.order, ref.ID)
		// user-joined announces the user, not the connection, so only
		// the first connection of a user triggers it.
		s.broadcastExcept(c, EventUserJoined, UserEventData{User: ref})
	}
	s.broadcastPresence()

	ev.reply <- bindReply{snapshot: snapshot}

	s.log.WithFields(logrus.Fields{
		"user_id": ref.ID,
		"conn_id": c.ID(),
		"users":   len(s.presence),
	}).Info("connection bound")
}

func (s *Session) handleUnbind(c Sender) {
	if _, ok := s.conns[c]; !ok {
		return
	}
	delete(s.conns, c)

	ref := c.User()
	entry, seen := s.presence[ref.ID]
	if !seen {
		return
	}
	entry.conns--
	if entry.conns <= 0 {
		delete(s.presence, ref.ID)
		for i, id := range s.order {
			if id == ref.ID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		s.broadcastExcept(c, EventUserLeft, UserEventData{User: ref})
	}
	s.broadcastPresence()

	s.log.WithFields(logrus.Fields{
		"user_id": ref.ID,
		"conn_id": c.ID(),
		"users":   len(s.presence),
	}).Info("connection unbound")
}

func (s *Session) handleCodeChange(ev sessionEvent) {
	if _, ok := s.conns[ev.client]; !ok {
		return // connection already removed, drop
	}
	now := time.Now().UTC()
	userID := ev.client.User().ID

	s.doc.Content = ev.code
	if ev.language != "" {
		s.doc.Language = ev.language
	}
	s.doc.Version++
	s.doc.LastModifiedBy = &userID
	s.doc.LastModifiedAt = &now
	s.dirty = true

	s.gateway.PersistDocumentAsync(s.roomID, s.doc)

	s.broadcastExcept(ev.client, EventCodeUpdate, CodeUpdateData{
		Code:           s.doc.Content,
		Language:       s.doc.Language,
		CursorPosition: ev.cursor,
		User:           ev.client.User(),
	})
}

func (s *Session) handleCursorChange(ev sessionEvent) {
	if _, ok := s.conns[ev.client]; !ok {
		return
	}
	s.broadcastExcept(ev.client, EventCursorUpdate, CursorUpdateData{
		CursorPosition: *ev.cursor,
		User:           ev.client.User(),
	})
}

func (s *Session) handleChat(ev sessionEvent) {
	if _, ok := s.conns[ev.client]; !ok {
		return
	}
	chatType := ev.chatType
	if chatType == "" {
		chatType = domain.ChatText
	}
	if !domain.ValidChatType(chatType) {
		ev.client.SendEvent(EventError, ErrorData{Message: "invalid chat message type"})
		return
	}

	ref := ev.client.User()
	msg := &domain.ChatMessage{
		RoomID: s.roomID,
		UserID: ref.ID,
		Body:   ev.message,
		Type:   chatType,
		SentAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ChatPersistTimeout)
	err := s.gateway.AppendChat(ctx, msg)
	cancel()
	if err != nil {
		s.log.WithError(err).WithField("user_id", ref.ID).Error("chat append failed")
		ev.client.SendEvent(EventError, ErrorData{Message: "failed to save chat message"})
		return
	}

	entry := ChatEntry{Message: msg.Body, Type: msg.Type, Timestamp: msg.SentAt, User: ref}
	s.chatTail = append(s.chatTail, entry)
	if n := len(s.chatTail) - s.cfg.ChatTailLimit; n > 0 {
		s.chatTail = append([]ChatEntry(nil), s.chatTail[n:]...)
	}

	// Chat goes to every bound connection, sender included.
	s.broadcastExcept(nil, EventChatBroadcast, entry)
}

func (s *Session) broadcastPresence() {
	users := make([]domain.UserRef, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.presence[id].ref)
	}
	s.broadcastExcept(nil, EventActiveUsers, ActiveUsersData{Users: users})
}

// broadcastExcept encodes once and fans out to every bound connection but
// skip. A nil skip reaches everyone.
func (s *Session) broadcastExcept(skip Sender, event string, data interface{}) {
	payload, err := EncodeEvent(event, data)
	if err != nil {
		s.log.WithError(err).WithField("event", event).Error("encode broadcast")
		return
	}
	for c := range s.conns {
		if c == skip {
			continue
		}
		c.SendRaw(payload)
	}
}

func (s *Session) armIdleTimer() {
	if s.idle != nil {
		s.idle.Stop()
	}
	s.idle = time.AfterFunc(s.cfg.IdleGrace, func() {
		// Best effort: if the session is already gone the enqueue is a no-op.
		_ = s.enqueue(sessionEvent{kind: evIdleCheck})
	})
}

// teardown unpublishes the session and flushes the document if it has
// advanced past the durable copy. Runs on the actor goroutine, last.
func (s *Session) teardown() {
	if s.idle != nil {
		s.idle.Stop()
		s.idle = nil
	}
	s.registry.remove(s.roomID, s)
	if s.dirty {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.gateway.FlushDocument(ctx, s.roomID, s.doc); err != nil {
			s.log.WithError(err).Error("document flush failed on teardown")
		} else {
			s.log.WithField("doc_version", s.doc.Version).Info("session flushed and stopped")
		}
	}
}
