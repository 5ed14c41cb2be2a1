package service

import "errors"

var (
	ErrRoomNotFound           = errors.New("room not found")
	ErrRoomFull               = errors.New("room is full")
	ErrInvalidSession         = errors.New("invalid session token")
	ErrRoomIDGenerationFailed = errors.New("failed to generate unique room ID after multiple attempts")
)
