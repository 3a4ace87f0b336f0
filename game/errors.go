package game

import "errors"

var (
	ErrRoomNotFound      = errors.New("room-not-found")
	ErrRoomClosed        = errors.New("room-closed")
	ErrInvalidPlayerName = errors.New("invalid-player-name")
	ErrNameTaken         = errors.New("name-taken")
	ErrGameStarted       = errors.New("game-already-started")
	ErrInvalidSession    = errors.New("invalid-session")
	ErrNotRegistered     = errors.New("not-registered")
	ErrAlreadyConnected  = errors.New("already-connected")
	ErrClientBufferFull  = errors.New("client-buffer-full")
	ErrClientGone        = errors.New("client-gone")
)
