package chat

import "errors"

// Admission errors are reported to the requesting client only; room state
// is never mutated by a failed join.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidUsername = errors.New("username cannot be empty")
	ErrUsernameTaken   = errors.New("username is already taken in this room")
	ErrRoomFull        = errors.New("room is full")
)

// ErrCodeSpaceExhausted is a service-level condition: the generator could
// not find a free code within its retry budget.
var ErrCodeSpaceExhausted = errors.New("room code space exhausted")
