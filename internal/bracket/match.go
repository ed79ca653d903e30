package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchCompleted MatchStatus = "completed"
)

// Side selects one of the two participant columns of a match
type Side int

const (
	FirstSlot Side = iota + 1
	SecondSlot
)

// SideForIndex maps a match index to the side it feeds in the next round.
// Even indexes go to the first slot, odd ones to the second.
func SideForIndex(matchIndex int) Side {
	if matchIndex%2 == 0 {
		return FirstSlot
	}
	return SecondSlot
}

// ParentIndex is the index of the next round match fed by matchIndex
func ParentIndex(matchIndex int) int {
	return matchIndex / 2
}

func (s Side) Other() Side {
	if s == FirstSlot {
		return SecondSlot
	}
	return FirstSlot
}

func (s Side) String() string {
	switch s {
	case FirstSlot:
		return "first"
	case SecondSlot:
		return "second"
	default:
		return "unknown"
	}
}

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	BracketID    uuid.UUID `db:"bracket_id" json:"bracket_id"`

	// Position in the bracket, both 0-based
	Round      int `db:"round" json:"round"`
	MatchIndex int `db:"match_index" json:"match_index"`

	Participant1ID *uuid.UUID `db:"participant_1_id" json:"participant_1_id"`
	Participant2ID *uuid.UUID `db:"participant_2_id" json:"participant_2_id"`

	// A bye side stays empty for the life of the bracket
	Bye1 bool `db:"bye_1" json:"bye_1"`
	Bye2 bool `db:"bye_2" json:"bye_2"`

	Score1   *int        `db:"score_1" json:"score_1"`
	Score2   *int        `db:"score_2" json:"score_2"`
	WinnerID *uuid.UUID  `db:"winner_id" json:"winner_id"`
	Status   MatchStatus `db:"status" json:"status"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (m *Match) Participant(side Side) *uuid.UUID {
	if side == FirstSlot {
		return m.Participant1ID
	}
	return m.Participant2ID
}

func (m *Match) IsByeSide(side Side) bool {
	if side == FirstSlot {
		return m.Bye1
	}
	return m.Bye2
}

// IsBye reports a match that was decided without being played
func (m *Match) IsBye() bool {
	return m.Bye1 || m.Bye2
}

// Ready reports whether both participants are known and the match can be played
func (m *Match) Ready() bool {
	return m.Status == MatchPending && m.Participant1ID != nil && m.Participant2ID != nil
}

// SideOf returns the side held by the participant, or 0 when they are not in the match
func (m *Match) SideOf(participant uuid.UUID) Side {
	switch {
	case m.Participant1ID != nil && *m.Participant1ID == participant:
		return FirstSlot
	case m.Participant2ID != nil && *m.Participant2ID == participant:
		return SecondSlot
	default:
		return 0
	}
}

func (m *Match) IsWinner(side Side) bool {
	p := m.Participant(side)
	return m.Status == MatchCompleted && p != nil && m.WinnerID != nil && *m.WinnerID == *p
}

func (m *Match) IsLoser(side Side) bool {
	p := m.Participant(side)
	return m.Status == MatchCompleted && p != nil && m.WinnerID != nil && *m.WinnerID != *p
}
