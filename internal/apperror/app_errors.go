package apperror

import "errors"

var (
	ErrRoomExists       = errors.New("room already exists")
	ErrMissingIdentity  = errors.New("player id is missing")
	ErrRoomNotFound     = errors.New("room not found")
	ErrSymbolTaken      = errors.New("this symbol is already used by another player")
	ErrNotCreator       = errors.New("only the room creator can start the game")
	ErrRoomFull         = errors.New("room is full")
	ErrWrongPassword    = errors.New("wrong room password")
	ErrInvalidCapacity  = errors.New("room capacity must be between 2 and 5")
	ErrInvalidRoomName  = errors.New("room name is empty")
	ErrMatchNotStarted  = errors.New("game is not started")
	ErrMatchAlreadyLive = errors.New("game already started")
	ErrIllegalMove      = errors.New("illegal move")
	ErrNotYourTurn      = errors.New("it's not your turn")
)
