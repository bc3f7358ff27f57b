package room

import "errors"

var (
	// ErrRoomNotFound is returned for unknown, malformed, or already deleted
	// room codes.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotParticipant is returned when the connection is not in the room.
	ErrNotParticipant = errors.New("connection is not a participant")

	// ErrNotFacilitator is returned when someone other than the facilitator
	// tries to reveal or clear.
	ErrNotFacilitator = errors.New("only the facilitator may do that")

	// ErrVotingClosed is returned for votes cast after the reveal.
	ErrVotingClosed = errors.New("votes are revealed")
)

// Ignored reports whether err is one of the rejections the room applies
// silently: the action had no effect and nothing was broadcast.
func Ignored(err error) bool {
	return errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrNotParticipant) ||
		errors.Is(err, ErrNotFacilitator) ||
		errors.Is(err, ErrVotingClosed)
}
