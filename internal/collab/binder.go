package collab

import (
	"context"

	"github.com/sirupsen/logrus"
)

// MembershipChecker answers whether a user durably belongs to a room.
// Satisfied by service.RoomService.
type MembershipChecker interface {
	IsParticipant(ctx context.Context, roomID, userID uint) (bool, error)
}

// Conn is a connection the binder can attach to a session. *Client is the
// production implementation.
type Conn interface {
	Sender
	Session() *Session
	setSession(*Session)
}

// Binder runs the join-room / leave-room protocol: it validates the claimed
// identity, checks durable membership once at bind time, and attaches the
// connection to the room's session.
type Binder struct {
	registry   *Registry
	membership MembershipChecker
	log        *logrus.Logger
}

func NewBinder(registry *Registry, membership MembershipChecker, log *logrus.Logger) *Binder {
	if registry == nil || membership == nil || log == nil {
		panic("collab: NewBinder requires non-nil dependencies")
	}
	return &Binder{registry: registry, membership: membership, log: log}
}

// Bind attaches c to roomID's session; the session delivers the room-joined
// snapshot as the connection's first frame. Membership changes after this
// point do not evict the connection.
func (b *Binder) Bind(ctx context.Context, c Conn, roomID, userID uint) error {
	if c.Session() != nil {
		return ErrAlreadyBound
	}
	if userID != c.User().ID {
		return ErrIdentityMismatch
	}
	ok, err := b.membership.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}

	// A session can close between lookup and bind when its idle grace
	// fires; one retry against a freshly created session is always enough.
	for attempt := 0; attempt < 2; attempt++ {
		s, err := b.registry.GetOrCreate(ctx, roomID)
		if err != nil {
			return err
		}
		if _, err := s.Bind(ctx, c); err != nil {
			if err == ErrSessionClosed {
				continue
			}
			return err
		}
		c.setSession(s)
		return nil
	}
	return ErrSessionClosed
}

// Unbind detaches c from its session, if any. Safe to call more than once;
// durable membership is never touched.
func (b *Binder) Unbind(c Conn) {
	s := c.Session()
	if s == nil {
		return
	}
	s.Unbind(c)
	c.setSession(nil)
}
