package collab

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/domain"
)

// Registry holds at most one live Session per room. Sessions are created
// lazily on the first bind and remove themselves after the idle grace.
type Registry struct {
	gateway Gateway
	cfg     Config
	log     *logrus.Logger

	mu       sync.Mutex
	sessions map[uint]*Session
}

func NewRegistry(gateway Gateway, cfg Config, log *logrus.Logger) *Registry {
	if gateway == nil || log == nil {
		panic("collab: NewRegistry requires non-nil dependencies")
	}
	return &Registry{
		gateway:  gateway,
		cfg:      cfg,
		log:      log,
		sessions: make(map[uint]*Session),
	}
}

// GetOrCreate returns the live session for roomID, creating it from durable
// state when absent. The durable load happens outside the registry lock so a
// slow database never serializes unrelated rooms.
func (r *Registry) GetOrCreate(ctx context.Context, roomID uint) (*Session, error) {
	r.mu.Lock()
	if s, ok := r.sessions[roomID]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	room, err := r.gateway.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	tail, err := r.loadChatTail(ctx, roomID, room)
	if err != nil {
		return nil, err
	}

	s := newSession(roomID, room, tail, r, r.gateway, r.cfg, r.log)

	r.mu.Lock()
	if existing, ok := r.sessions[roomID]; ok {
		// Lost the creation race; the loaded state is discarded.
		r.mu.Unlock()
		return existing, nil
	}
	r.sessions[roomID] = s
	r.mu.Unlock()

	go s.run()
	r.log.WithField("room_id", roomID).Info("room session started")
	return s, nil
}

func (r *Registry) loadChatTail(ctx context.Context, roomID uint, room *domain.Room) ([]ChatEntry, error) {
	msgs, err := r.gateway.ChatTail(ctx, roomID, r.cfg.ChatTailLimit)
	if err != nil {
		return nil, fmt.Errorf("load chat tail for room %d: %w", roomID, err)
	}
	entries := make([]ChatEntry, 0, len(msgs))
	refs := make(map[uint]domain.UserRef)
	for _, m := range msgs {
		ref, ok := refs[m.UserID]
		if !ok {
			ref, err = r.gateway.UserRef(ctx, m.UserID)
			if err != nil {
				// Author may have been deleted since; keep the message.
				ref = domain.UserRef{ID: m.UserID}
			}
			refs[m.UserID] = ref
		}
		entries = append(entries, ChatEntry{
			Message:   m.Body,
			Type:      m.Type,
			Timestamp: m.SentAt,
			User:      ref,
		})
	}
	return entries, nil
}

// remove unpublishes s. The identity check guards against a stale session
// evicting its replacement.
func (r *Registry) remove(roomID uint, s *Session) {
	r.mu.Lock()
	if current, ok := r.sessions[roomID]; ok && current == s {
		delete(r.sessions, roomID)
	}
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown stops every live session, flushing dirty documents. It returns
// once all sessions have exited or ctx expires.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		go s.Stop()
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
