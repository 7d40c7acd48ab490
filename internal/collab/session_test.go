package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwesha/Zcoder/internal/domain"
)

// fakeConn records every frame a session sends it. Implements Conn.
type fakeConn struct {
	id   string
	user domain.UserRef

	mu      sync.Mutex
	frames  []Envelope
	session *Session
}

func newFakeConn(id string, userID uint, username string) *fakeConn {
	return &fakeConn{id: id, user: domain.UserRef{ID: userID, Username: username}}
}

func (f *fakeConn) ID() string           { return f.id }
func (f *fakeConn) User() domain.UserRef { return f.user }

func (f *fakeConn) SendRaw(payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		panic(err)
	}
	f.mu.Lock()
	f.frames = append(f.frames, env)
	f.mu.Unlock()
}

func (f *fakeConn) SendEvent(event string, data interface{}) {
	payload, err := EncodeEvent(event, data)
	if err != nil {
		panic(err)
	}
	f.SendRaw(payload)
}

func (f *fakeConn) Session() *Session     { return f.session }
func (f *fakeConn) setSession(s *Session) { f.session = s }

// events returns the decoded payloads of every frame with the given name.
func (f *fakeConn) events(name string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []json.RawMessage
	for _, env := range f.frames {
		if env.Event == name {
			out = append(out, env.Data)
		}
	}
	return out
}

// eventNames returns every received event name in arrival order.
func (f *fakeConn) eventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.frames))
	for i, env := range f.frames {
		names[i] = env.Event
	}
	return names
}

func (f *fakeConn) lastActiveUsers(t *testing.T) []uint {
	t.Helper()
	raws := f.events(EventActiveUsers)
	require.NotEmpty(t, raws)
	var data ActiveUsersData
	require.NoError(t, json.Unmarshal(raws[len(raws)-1], &data))
	ids := make([]uint, 0, len(data.Users))
	for _, u := range data.Users {
		ids = append(ids, u.ID)
	}
	return ids
}

// fakeGateway is an in-memory Gateway.
type fakeGateway struct {
	mu        sync.Mutex
	room      *domain.Room
	chat      []domain.ChatMessage
	flushed   []domain.SharedDocument
	async     []domain.SharedDocument
	appendErr error
	users     map[uint]domain.UserRef
}

func newFakeGateway(room *domain.Room) *fakeGateway {
	return &fakeGateway{room: room, users: map[uint]domain.UserRef{}}
}

func (g *fakeGateway) LoadRoom(ctx context.Context, roomID uint) (*domain.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.room == nil || g.room.ID != roomID {
		return nil, errors.New("room not found")
	}
	return g.room, nil
}

func (g *fakeGateway) ChatTail(ctx context.Context, roomID uint, limit int) ([]domain.ChatMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tail := g.chat
	if len(tail) > limit {
		tail = tail[len(tail)-limit:]
	}
	return append([]domain.ChatMessage(nil), tail...), nil
}

func (g *fakeGateway) AppendChat(ctx context.Context, msg *domain.ChatMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.appendErr != nil {
		return g.appendErr
	}
	msg.ID = uint(len(g.chat) + 1)
	g.chat = append(g.chat, *msg)
	return nil
}

func (g *fakeGateway) PersistDocumentAsync(roomID uint, doc domain.SharedDocument) {
	g.mu.Lock()
	g.async = append(g.async, doc)
	g.mu.Unlock()
}

func (g *fakeGateway) FlushDocument(ctx context.Context, roomID uint, doc domain.SharedDocument) error {
	g.mu.Lock()
	g.flushed = append(g.flushed, doc)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) UserRef(ctx context.Context, userID uint) (domain.UserRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ref, ok := g.users[userID]; ok {
		return ref, nil
	}
	return domain.UserRef{}, errors.New("user not found")
}

func (g *fakeGateway) flushCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.flushed)
}

func testRoom() *domain.Room {
	return &domain.Room{
		ID:              1,
		Name:            "pairing",
		OwnerID:         1,
		MaxParticipants: 10,
		IsActive:        true,
		Document:        domain.SharedDocument{Language: "javascript"},
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func startSession(t *testing.T, gw Gateway, cfg Config) (*Registry, *Session) {
	t.Helper()
	registry := NewRegistry(gw, cfg, testLogger())
	s, err := registry.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop() })
	return registry, s
}

// barrier waits until every previously queued event has been handled, by
// round-tripping a no-op unbind through the serial queue.
func barrier(s *Session) {
	s.Unbind(newFakeConn("barrier", 999, "barrier"))
}

func TestBindReturnsSnapshotAndPresence(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c1 := newFakeConn("c1", 1, "alice")
	snap, err := s.Bind(context.Background(), c1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), snap.Room.ID)
	assert.Equal(t, "javascript", snap.SharedCode.Language)
	assert.Empty(t, snap.ChatHistory)

	c2 := newFakeConn("c2", 2, "bob")
	_, err = s.Bind(context.Background(), c2)
	require.NoError(t, err)

	// Both see the full presence list, in first-bind order.
	assert.Equal(t, []uint{1, 2}, c1.lastActiveUsers(t))
	assert.Equal(t, []uint{1, 2}, c2.lastActiveUsers(t))

	// The earlier connection was told about the newcomer.
	require.Len(t, c1.events(EventUserJoined), 1)
	assert.Empty(t, c2.events(EventUserJoined))
}

func TestBindDeliversSnapshotBeforePresenceFrames(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c1 := newFakeConn("c1", 1, "alice")
	_, err := s.Bind(context.Background(), c1)
	require.NoError(t, err)

	c2 := newFakeConn("c2", 2, "bob")
	_, err = s.Bind(context.Background(), c2)
	require.NoError(t, err)

	// The first frame a joiner sees is room-joined; presence follows.
	names := c2.eventNames()
	require.NotEmpty(t, names)
	assert.Equal(t, EventRoomJoined, names[0])
	assert.Contains(t, names, EventActiveUsers)
}

func TestSnapshotRoomDocumentMatchesSharedCode(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c1 := newFakeConn("c1", 1, "alice")
	_, err := s.Bind(context.Background(), c1)
	require.NoError(t, err)
	require.NoError(t, s.CodeChange(c1, "edited", "go", nil))
	barrier(s)

	// The embedded room copy keeps pace with the live document.
	c2 := newFakeConn("c2", 2, "bob")
	snap, err := s.Bind(context.Background(), c2)
	require.NoError(t, err)
	assert.Equal(t, snap.SharedCode, snap.Room.Document)
	assert.Equal(t, "edited", snap.Room.Document.Content)
	assert.Equal(t, uint64(1), snap.Room.Document.Version)
}

func TestPresenceDeduplicatesByUser(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c1 := newFakeConn("c1", 1, "alice")
	c2 := newFakeConn("c2", 1, "alice") // second tab, same user
	c3 := newFakeConn("c3", 2, "bob")

	for _, c := range []*fakeConn{c1, c2, c3} {
		_, err := s.Bind(context.Background(), c)
		require.NoError(t, err)
	}
	assert.Equal(t, []uint{1, 2}, c3.lastActiveUsers(t))

	// Dropping one of alice's two tabs must not remove her from presence.
	s.Unbind(c1)
	assert.Equal(t, []uint{1, 2}, c3.lastActiveUsers(t))
	assert.Empty(t, c3.events(EventUserLeft))

	// Dropping the last one does.
	s.Unbind(c2)
	assert.Equal(t, []uint{2}, c3.lastActiveUsers(t))
	require.Len(t, c3.events(EventUserLeft), 1)
}

func TestRebind(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c := newFakeConn("c1", 1, "alice")
	_, err := s.Bind(context.Background(), c)
	require.NoError(t, err)

	_, err = s.Bind(context.Background(), c)
	assert.ErrorIs(t, err, ErrAlreadyBound)

	s.Unbind(c)
	_, err = s.Bind(context.Background(), c)
	assert.NoError(t, err)
}

func TestCodeChangeIsLastWriterWins(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c1 := newFakeConn("c1", 1, "alice")
	c2 := newFakeConn("c2", 2, "bob")
	_, err := s.Bind(context.Background(), c1)
	require.NoError(t, err)
	_, err = s.Bind(context.Background(), c2)
	require.NoError(t, err)

	require.NoError(t, s.CodeChange(c1, "v1", "python", nil))
	require.NoError(t, s.CodeChange(c2, "v2", "", nil))
	barrier(s)

	// A late joiner observes the final content and a version bumped once
	// per accepted update.
	c3 := newFakeConn("c3", 3, "carol")
	snap, err := s.Bind(context.Background(), c3)
	require.NoError(t, err)
	assert.Equal(t, "v2", snap.SharedCode.Content)
	assert.Equal(t, "python", snap.SharedCode.Language) // empty language keeps the last one
	assert.Equal(t, uint64(2), snap.SharedCode.Version)
	assert.Equal(t, uint(2), *snap.SharedCode.LastModifiedBy)

	// Each accepted update queued a durable write.
	gw.mu.Lock()
	asyncWrites := len(gw.async)
	gw.mu.Unlock()
	assert.Equal(t, 2, asyncWrites)

	// Fanout excludes the author.
	assert.Len(t, c1.events(EventCodeUpdate), 1)
	assert.Len(t, c2.events(EventCodeUpdate), 1)
}

func TestCursorChangeFanout(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c1 := newFakeConn("c1", 1, "alice")
	c2 := newFakeConn("c2", 2, "bob")
	_, err := s.Bind(context.Background(), c1)
	require.NoError(t, err)
	_, err = s.Bind(context.Background(), c2)
	require.NoError(t, err)

	require.NoError(t, s.CursorChange(c1, CursorPosition{Line: 3, Column: 7}))
	barrier(s)

	raws := c2.events(EventCursorUpdate)
	require.Len(t, raws, 1)
	var data CursorUpdateData
	require.NoError(t, json.Unmarshal(raws[0], &data))
	assert.Equal(t, 3, data.CursorPosition.Line)
	assert.Equal(t, uint(1), data.User.ID)
	assert.Empty(t, c1.events(EventCursorUpdate))
}

func TestChatPersistedBeforeBroadcastInOrder(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c1 := newFakeConn("c1", 1, "alice")
	c2 := newFakeConn("c2", 2, "bob")
	_, err := s.Bind(context.Background(), c1)
	require.NoError(t, err)
	_, err = s.Bind(context.Background(), c2)
	require.NoError(t, err)

	require.NoError(t, s.Chat(c1, "m1", domain.ChatText))
	require.NoError(t, s.Chat(c2, "m2", domain.ChatText))
	barrier(s)

	// Durable log and both connections observe the same order, and the
	// sender receives its own message.
	gw.mu.Lock()
	require.Len(t, gw.chat, 2)
	assert.Equal(t, "m1", gw.chat[0].Body)
	assert.Equal(t, "m2", gw.chat[1].Body)
	gw.mu.Unlock()

	for _, c := range []*fakeConn{c1, c2} {
		raws := c.events(EventChatBroadcast)
		require.Len(t, raws, 2)
		var first, second ChatEntry
		require.NoError(t, json.Unmarshal(raws[0], &first))
		require.NoError(t, json.Unmarshal(raws[1], &second))
		assert.Equal(t, "m1", first.Message)
		assert.Equal(t, "m2", second.Message)
	}

	// A late joiner gets the tail in the same order.
	c3 := newFakeConn("c3", 3, "carol")
	snap, err := s.Bind(context.Background(), c3)
	require.NoError(t, err)
	require.Len(t, snap.ChatHistory, 2)
	assert.Equal(t, "m1", snap.ChatHistory[0].Message)
}

func TestChatPersistFailureSuppressesBroadcast(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c1 := newFakeConn("c1", 1, "alice")
	c2 := newFakeConn("c2", 2, "bob")
	_, err := s.Bind(context.Background(), c1)
	require.NoError(t, err)
	_, err = s.Bind(context.Background(), c2)
	require.NoError(t, err)

	gw.mu.Lock()
	gw.appendErr = errors.New("storage down")
	gw.mu.Unlock()

	require.NoError(t, s.Chat(c1, "lost", domain.ChatText))
	barrier(s)

	// Sender gets an error, nobody gets the message.
	require.Len(t, c1.events(EventError), 1)
	assert.Empty(t, c1.events(EventChatBroadcast))
	assert.Empty(t, c2.events(EventChatBroadcast))
	assert.Empty(t, c2.events(EventError))
}

func TestChatInvalidTypeRejected(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c := newFakeConn("c1", 1, "alice")
	_, err := s.Bind(context.Background(), c)
	require.NoError(t, err)

	require.NoError(t, s.Chat(c, "hi", domain.ChatType("emoji")))
	barrier(s)

	require.Len(t, c.events(EventError), 1)
	gw.mu.Lock()
	assert.Empty(t, gw.chat)
	gw.mu.Unlock()
}

func TestEventsFromUnboundConnectionDropped(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c1 := newFakeConn("c1", 1, "alice")
	c2 := newFakeConn("c2", 2, "bob")
	_, err := s.Bind(context.Background(), c1)
	require.NoError(t, err)
	_, err = s.Bind(context.Background(), c2)
	require.NoError(t, err)

	s.Unbind(c1)
	require.NoError(t, s.CodeChange(c1, "ghost", "", nil))
	require.NoError(t, s.Chat(c1, "ghost", domain.ChatText))
	barrier(s)

	assert.Empty(t, c2.events(EventCodeUpdate))
	assert.Empty(t, c2.events(EventChatBroadcast))
	gw.mu.Lock()
	assert.Empty(t, gw.chat)
	assert.Empty(t, gw.async)
	gw.mu.Unlock()
}

func TestIdleSessionEvictsAndFlushesOnce(t *testing.T) {
	gw := newFakeGateway(testRoom())
	cfg := DefaultConfig()
	cfg.IdleGrace = 20 * time.Millisecond
	registry, s := startSession(t, gw, cfg)

	c := newFakeConn("c1", 1, "alice")
	_, err := s.Bind(context.Background(), c)
	require.NoError(t, err)
	require.NoError(t, s.CodeChange(c, "draft", "", nil))
	s.Unbind(c)

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop after idle grace")
	}

	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, 1, gw.flushCount())
	gw.mu.Lock()
	assert.Equal(t, "draft", gw.flushed[0].Content)
	assert.Equal(t, uint64(1), gw.flushed[0].Version)
	gw.mu.Unlock()
}

func TestRebindWithinGraceCancelsEviction(t *testing.T) {
	gw := newFakeGateway(testRoom())
	cfg := DefaultConfig()
	cfg.IdleGrace = 50 * time.Millisecond
	registry, s := startSession(t, gw, cfg)

	c := newFakeConn("c1", 1, "alice")
	_, err := s.Bind(context.Background(), c)
	require.NoError(t, err)
	s.Unbind(c)

	// Come back before the grace runs out.
	_, err = s.Bind(context.Background(), c)
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)
	select {
	case <-s.Done():
		t.Fatal("session stopped despite an active connection")
	default:
	}
	assert.Equal(t, 1, registry.Len())
}

func TestCleanSessionDoesNotFlushOnStop(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())

	c := newFakeConn("c1", 1, "alice")
	_, err := s.Bind(context.Background(), c)
	require.NoError(t, err)
	s.Unbind(c)
	s.Stop()

	assert.Equal(t, 0, gw.flushCount())
}

func TestTwoUserCollaborationScenario(t *testing.T) {
	room := testRoom()
	room.MaxParticipants = 2
	gw := newFakeGateway(room)
	_, s := startSession(t, gw, DefaultConfig())

	// Owner binds first and is alone.
	c1 := newFakeConn("c1", 1, "alice")
	_, err := s.Bind(context.Background(), c1)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, c1.lastActiveUsers(t))

	// Second user binds; both see the pair.
	c2 := newFakeConn("c2", 2, "bob")
	_, err = s.Bind(context.Background(), c2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, c1.lastActiveUsers(t))
	assert.Equal(t, []uint{1, 2}, c2.lastActiveUsers(t))

	// Owner edits; only the peer receives the update.
	require.NoError(t, s.CodeChange(c1, "print(1)", "python", nil))
	barrier(s)
	raws := c2.events(EventCodeUpdate)
	require.Len(t, raws, 1)
	var update CodeUpdateData
	require.NoError(t, json.Unmarshal(raws[0], &update))
	assert.Equal(t, "print(1)", update.Code)
	assert.Equal(t, "python", update.Language)
	assert.Equal(t, uint(1), update.User.ID)
	assert.Empty(t, c1.events(EventCodeUpdate))

	// Peer drops abruptly; owner sees presence shrink.
	s.Unbind(c2)
	assert.Equal(t, []uint{1}, c1.lastActiveUsers(t))
}

func TestEnqueueAfterStopFails(t *testing.T) {
	gw := newFakeGateway(testRoom())
	_, s := startSession(t, gw, DefaultConfig())
	s.Stop()

	c := newFakeConn("c1", 1, "alice")
	_, err := s.Bind(context.Background(), c)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.CodeChange(c, "x", "", nil), ErrSessionClosed)
}
