package competitive

import "fmt"

var (
	ErrStaleRound       = fmt.Errorf("action belongs to another round")
	ErrWrongPhase       = fmt.Errorf("action is not allowed in this phase")
	ErrPlayerNotFound   = fmt.Errorf("player not found")
	ErrRoomFull         = fmt.Errorf("room is full")
	ErrNotAuthor        = fmt.Errorf("only the author can start the match")
	ErrNotEnoughPlayers = fmt.Errorf("not enough players")
	ErrNoStrokesLeft    = fmt.Errorf("no strokes left")
	ErrSelfVote         = fmt.Errorf("players can not vote for themselves")
	ErrBallotFull       = fmt.Errorf("ballot is full")
	ErrInvalidPick      = fmt.Errorf("pick position is out of the ballot")
	ErrEmptyDrawing     = fmt.Errorf("drawing reference is empty")
	ErrPowerupNotFound  = fmt.Errorf("powerup not found")
	ErrInvalidName      = fmt.Errorf("player name is too long")
)
