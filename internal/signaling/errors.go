package signaling

import (
	"errors"

	"signal-relay/internal/room"
)

var (
	// ErrInvalidJoinRequest means roomId or userId was missing
	ErrInvalidJoinRequest = errors.New("roomId and userId are required")

	// ErrAlreadyJoined rejects a second join on the same connection
	ErrAlreadyJoined = errors.New("connection already joined a room")

	// ErrConnectionClosed rejects a join on a connection that already left
	ErrConnectionClosed = errors.New("connection closed")

	// ErrDuplicateUser rejects a userId already present in the room
	ErrDuplicateUser = room.ErrDuplicateUser
)
