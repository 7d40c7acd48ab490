package collab

import "errors"

var (
	// ErrSessionClosed reports an event handed to a session that has
	// already left the registry. Callers on the bind path retry once
	// against a fresh session; everyone else drops the event.
	ErrSessionClosed = errors.New("collab: session closed")

	// ErrAlreadyBound reports a second join-room on a bound connection.
	ErrAlreadyBound = errors.New("collab: connection already bound to a room")

	// ErrNotParticipant reports a bind attempt by a user without durable
	// membership in the room.
	ErrNotParticipant = errors.New("collab: user is not a participant of the room")

	// ErrIdentityMismatch reports a join-room claiming a user other than
	// the one the connection authenticated as.
	ErrIdentityMismatch = errors.New("collab: claimed user does not match authenticated user")
)
