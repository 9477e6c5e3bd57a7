package chat

import "errors"

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrForbidden      = errors.New("not a participant of this room")
	ErrRoomNotFound   = errors.New("room not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrNotGroupRoom   = errors.New("room is not a group room")
	ErrSelfChat       = errors.New("cannot open a private room with yourself")
)
