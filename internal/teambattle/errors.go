package teambattle

import "fmt"

var (
	ErrPlayerNotFound   = fmt.Errorf("player not found")
	ErrNotAuthor        = fmt.Errorf("only the author can start the battle")
	ErrWrongPhase       = fmt.Errorf("action is not allowed in this phase")
	ErrRoomFull         = fmt.Errorf("battle is full")
	ErrInvalidName      = fmt.Errorf("player name is too long")
	ErrUnevenTeams      = fmt.Errorf("players cannot be paired into teams")
	ErrNotDrawer        = fmt.Errorf("player is not the drawer of a team")
	ErrNotGuesser       = fmt.Errorf("player is not the guesser of a team")
	ErrEmptyDrawing     = fmt.Errorf("drawing reference is empty")
	ErrEmptyGuess       = fmt.Errorf("guess is empty")
	ErrDrawingNotReady  = fmt.Errorf("drawing is not ready")
	ErrDrawingsComplete = fmt.Errorf("every round is drawn")
	ErrTeamDone         = fmt.Errorf("team has guessed every round")
)
