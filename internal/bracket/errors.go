package bracket

import "errors"

var (
	ErrInsufficientParticipants = errors.New("at least 2 participants are required to build a bracket")
	ErrPersistenceFailure       = errors.New("failed to persist bracket")
	ErrInvalidWinner            = errors.New("winner is not part of this match")
	ErrNotFound                 = errors.New("not found")
	ErrAdvancementInconsistency = errors.New("next round match is missing or already taken")

	ErrMatchCompleted     = errors.New("match result has already been recorded")
	ErrMatchNotReady      = errors.New("match is still waiting for a participant")
	ErrInvalidScore       = errors.New("scores can't be negative")
	ErrAlreadyAdvanced    = errors.New("winner has already been advanced")
	ErrResultsRecorded    = errors.New("bracket already has recorded results")
	ErrUnsupportedFormat  = errors.New("tournament format is not supported")
	ErrRegistrationClosed = errors.New("tournament is no longer taking registrations")
	ErrForbidden          = errors.New("only the tournament owner or an admin can do this")
	ErrInvalidInput       = errors.New("invalid input")
)
