package service

import "errors"

// Business errors returned by the service layer. Handlers map these to HTTP
// status codes in one place.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrProblemNotFound      = errors.New("problem not found")
	ErrBookmarkNotFound     = errors.New("bookmark not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrCapacityExceeded     = errors.New("room is full")
	ErrAlreadyMember        = errors.New("already a participant of this room")
	ErrAlreadyBookmarked    = errors.New("problem already bookmarked")
	ErrUnauthorized         = errors.New("not authorized")
	ErrValidation           = errors.New("invalid input")
	ErrInternalServer       = errors.New("internal server error")
)
