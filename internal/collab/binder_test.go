package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMembership struct {
	mu      sync.Mutex
	members map[[2]uint]bool
	err     error
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{members: map[[2]uint]bool{}}
}

func (f *fakeMembership) allow(roomID, userID uint) {
	f.mu.Lock()
	f.members[[2]uint{roomID, userID}] = true
	f.mu.Unlock()
}

func (f *fakeMembership) IsParticipant(ctx context.Context, roomID, userID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.members[[2]uint{roomID, userID}], nil
}

func newBinderFixture(t *testing.T, cfg Config) (*Binder, *Registry, *fakeGateway, *fakeMembership) {
	t.Helper()
	gw := newFakeGateway(testRoom())
	registry := NewRegistry(gw, cfg, testLogger())
	membership := newFakeMembership()
	binder := NewBinder(registry, membership, testLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = registry.Shutdown(ctx)
	})
	return binder, registry, gw, membership
}

func TestBindHappyPathSendsRoomJoined(t *testing.T) {
	binder, registry, _, membership := newBinderFixture(t, DefaultConfig())
	membership.allow(1, 1)

	c := newFakeConn("c1", 1, "alice")
	require.NoError(t, binder.Bind(context.Background(), c, 1, 1))
	require.NotNil(t, c.Session())
	assert.Equal(t, 1, registry.Len())

	raws := c.events(EventRoomJoined)
	require.Len(t, raws, 1)
	var snap RoomJoinedData
	require.NoError(t, json.Unmarshal(raws[0], &snap))
	assert.Equal(t, uint(1), snap.Room.ID)
}

func TestBindRejectsIdentityMismatch(t *testing.T) {
	binder, registry, _, membership := newBinderFixture(t, DefaultConfig())
	membership.allow(1, 2)

	c := newFakeConn("c1", 1, "alice")
	err := binder.Bind(context.Background(), c, 1, 2) // claims bob
	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Nil(t, c.Session())
	assert.Equal(t, 0, registry.Len())
}

func TestBindRequiresDurableMembership(t *testing.T) {
	binder, registry, _, _ := newBinderFixture(t, DefaultConfig())

	c := newFakeConn("c1", 1, "alice")
	err := binder.Bind(context.Background(), c, 1, 1)
	assert.ErrorIs(t, err, ErrNotParticipant)
	// No session may be spun up for a rejected bind.
	assert.Equal(t, 0, registry.Len())
}

func TestBindTwiceFails(t *testing.T) {
	binder, _, _, membership := newBinderFixture(t, DefaultConfig())
	membership.allow(1, 1)

	c := newFakeConn("c1", 1, "alice")
	require.NoError(t, binder.Bind(context.Background(), c, 1, 1))
	assert.ErrorIs(t, binder.Bind(context.Background(), c, 1, 1), ErrAlreadyBound)
}

func TestBindPropagatesMembershipError(t *testing.T) {
	binder, _, _, membership := newBinderFixture(t, DefaultConfig())
	boom := errors.New("db down")
	membership.err = boom

	c := newFakeConn("c1", 1, "alice")
	assert.ErrorIs(t, binder.Bind(context.Background(), c, 1, 1), boom)
}

func TestUnbindIsIdempotentAndKeepsMembership(t *testing.T) {
	binder, _, _, membership := newBinderFixture(t, DefaultConfig())
	membership.allow(1, 1)

	c := newFakeConn("c1", 1, "alice")
	require.NoError(t, binder.Bind(context.Background(), c, 1, 1))

	binder.Unbind(c)
	assert.Nil(t, c.Session())
	binder.Unbind(c) // second call is a no-op

	// Leaving the live session never touches durable membership: a
	// rebind succeeds without re-joining.
	require.NoError(t, binder.Bind(context.Background(), c, 1, 1))
}

func TestBindRetriesWhenSessionClosesUnderneath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IdleGrace = time.Millisecond
	binder, registry, _, membership := newBinderFixture(t, cfg)
	membership.allow(1, 1)

	// Warm a session and let the idle grace reap it; a bind arriving
	// around eviction must land on a fresh session, not fail.
	c0 := newFakeConn("c0", 1, "alice")
	require.NoError(t, binder.Bind(context.Background(), c0, 1, 1))
	s0 := c0.Session()
	binder.Unbind(c0)
	select {
	case <-s0.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}

	c := newFakeConn("c1", 1, "alice")
	require.NoError(t, binder.Bind(context.Background(), c, 1, 1))
	assert.NotSame(t, s0, c.Session())
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryReusesLiveSession(t *testing.T) {
	gw := newFakeGateway(testRoom())
	registry := NewRegistry(gw, DefaultConfig(), testLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = registry.Shutdown(ctx)
	})

	const n = 8
	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := registry.GetOrCreate(context.Background(), 1)
			assert.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryShutdownFlushesDirtySessions(t *testing.T) {
	gw := newFakeGateway(testRoom())
	registry := NewRegistry(gw, DefaultConfig(), testLogger())
	s, err := registry.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)

	c := newFakeConn("c1", 1, "alice")
	_, err = s.Bind(context.Background(), c)
	require.NoError(t, err)
	require.NoError(t, s.CodeChange(c, "wip", "", nil))
	barrier(s)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, registry.Shutdown(ctx))

	assert.Equal(t, 1, gw.flushCount())
	assert.Equal(t, 0, registry.Len())
}
