package views

import (
	"fmt"
	"sort"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/google/uuid"
)

type BracketData struct {
	Rounds          map[int][]bracket.Match
	RoundNums       []int
	RegistrationMap map[uuid.UUID]bracket.Registration
}

func PrepareBracketData(registrations []bracket.Registration, matches []bracket.Match) BracketData {
	registrationMap := make(map[uuid.UUID]bracket.Registration)
	for _, r := range registrations {
		registrationMap[r.ID] = r
	}

	rounds := make(map[int][]bracket.Match)
	var roundNums []int

	for _, m := range matches {
		if _, exists := rounds[m.Round]; !exists {
			roundNums = append(roundNums, m.Round)
		}
		rounds[m.Round] = append(rounds[m.Round], m)
	}

	sort.Ints(roundNums)
	for _, r := range roundNums {
		sort.Slice(rounds[r], func(i, j int) bool {
			return rounds[r][i].MatchIndex < rounds[r][j].MatchIndex
		})
	}

	return BracketData{
		Rounds:          rounds,
		RoundNums:       roundNums,
		RegistrationMap: registrationMap,
	}
}

// SideName is what a bracket cell shows for one side of a match
func (d BracketData) SideName(m *bracket.Match, side bracket.Side) string {
	if m.IsByeSide(side) {
		return "BYE"
	}
	id := m.Participant(side)
	if id == nil {
		return "TBD"
	}
	if r, ok := d.RegistrationMap[*id]; ok {
		return r.Name
	}
	return "Unknown"
}

// RoundLabel names a round counting back from the final
func RoundLabel(round, roundCount int) string {
	switch roundCount - 1 - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinals"
	case 2:
		return "Quarterfinals"
	default:
		return fmt.Sprintf("Round %d", round+1)
	}
}
