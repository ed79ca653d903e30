package bracket

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"math/rand/v2"

	"github.com/google/uuid"
)

type SlotKind int

const (
	SlotEmpty SlotKind = iota
	SlotUnresolved
	SlotOccupied
)

// Slot is one position of a bracket round: a bye, a winner still to be decided, or a participant.
type Slot struct {
	Kind        SlotKind
	Participant uuid.UUID
}

func EmptySlot() Slot      { return Slot{Kind: SlotEmpty} }
func UnresolvedSlot() Slot { return Slot{Kind: SlotUnresolved} }

func OccupiedSlot(id uuid.UUID) Slot {
	return Slot{Kind: SlotOccupied, Participant: id}
}

func (s Slot) IsEmpty() bool    { return s.Kind == SlotEmpty }
func (s Slot) IsOccupied() bool { return s.Kind == SlotOccupied }

// ParticipantID returns nil unless the slot holds a participant
func (s Slot) ParticipantID() *uuid.UUID {
	if s.Kind != SlotOccupied {
		return nil
	}
	id := s.Participant
	return &id
}

const unresolvedToken = "?"

func (s Slot) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SlotEmpty:
		return []byte("null"), nil
	case SlotUnresolved:
		return json.Marshal(unresolvedToken)
	default:
		return json.Marshal(s.Participant.String())
	}
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = EmptySlot()
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == unresolvedToken {
		*s = UnresolvedSlot()
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid slot %q: %w", raw, err)
	}
	*s = OccupiedSlot(id)
	return nil
}

// Bracket is the immutable snapshot of a generated single elimination tree.
// Rounds[0] is the shuffled initial slot array and every following round halves it,
// ending with the single champion slot.
type Bracket struct {
	Type         TournamentType `json:"type"`
	SlotCount    int            `json:"slots"`
	InitialSlots []Slot         `json:"initial"`
	Rounds       [][]Slot       `json:"rounds"`
}

// MatchRounds is the number of rounds that contain matches. The last entry of Rounds
// only holds the champion.
func (b *Bracket) MatchRounds() int {
	return len(b.Rounds) - 1
}

// MatchSides returns the two slots feeding match matchIndex of the given round
func (b *Bracket) MatchSides(round, matchIndex int) (Slot, Slot) {
	r := b.Rounds[round]
	return r[2*matchIndex], r[2*matchIndex+1]
}

type buildConfig struct {
	rng *rand.Rand
}

type BuildOption func(*buildConfig)

// WithRand makes the shuffle reproducible
func WithRand(rng *rand.Rand) BuildOption {
	return func(c *buildConfig) {
		c.rng = rng
	}
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func SlotCountFor(count int) int {
	if count <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(count-1))
}

// Build pads the participants to a power of two, shuffles them into the initial slots and
// derives every later round, resolving byes as it goes.
func Build(participants []uuid.UUID, opts ...BuildOption) (*Bracket, error) {
	if len(participants) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientParticipants, len(participants))
	}

	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	slotCount := SlotCountFor(len(participants))
	initial := make([]Slot, slotCount)
	for i, p := range participants {
		initial[i] = OccupiedSlot(p)
	}

	swap := func(i, j int) { initial[i], initial[j] = initial[j], initial[i] }
	if cfg.rng != nil {
		cfg.rng.Shuffle(len(initial), swap)
	} else {
		rand.Shuffle(len(initial), swap)
	}

	rounds := [][]Slot{initial}
	current := initial
	for len(current) > 1 {
		next := make([]Slot, len(current)/2)
		for i := range next {
			next[i] = advanceSlot(current[2*i], current[2*i+1])
		}
		rounds = append(rounds, next)
		current = next
	}

	return &Bracket{
		Type:         SingleElimination,
		SlotCount:    slotCount,
		InitialSlots: initial,
		Rounds:       rounds,
	}, nil
}

func advanceSlot(a, b Slot) Slot {
	switch {
	case a.IsEmpty() && b.IsEmpty():
		return EmptySlot()
	case a.IsEmpty():
		return b
	case b.IsEmpty():
		return a
	default:
		return UnresolvedSlot()
	}
}

// Matches lays out every match of every round for a persisted bracket. Pairs of two empty
// slots produce no match. A participant facing an empty slot wins immediately, whatever the round.
func (b *Bracket) Matches(tournamentID, bracketID uuid.UUID) []Match {
	var matches []Match
	for r := 0; r < b.MatchRounds(); r++ {
		for i := 0; i < len(b.Rounds[r])/2; i++ {
			a, c := b.MatchSides(r, i)
			if a.IsEmpty() && c.IsEmpty() {
				continue
			}

			m := Match{
				ID:             uuid.New(),
				TournamentID:   tournamentID,
				BracketID:      bracketID,
				Round:          r,
				MatchIndex:     i,
				Participant1ID: a.ParticipantID(),
				Participant2ID: c.ParticipantID(),
				Bye1:           a.IsEmpty(),
				Bye2:           c.IsEmpty(),
				Status:         MatchPending,
			}

			switch {
			case a.IsOccupied() && c.IsEmpty():
				m.Status = MatchCompleted
				m.WinnerID = a.ParticipantID()
			case a.IsEmpty() && c.IsOccupied():
				m.Status = MatchCompleted
				m.WinnerID = c.ParticipantID()
			}

			matches = append(matches, m)
		}
	}
	return matches
}
