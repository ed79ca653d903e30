package bracket

import (
	"encoding/json"
	"math/bits"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParticipants(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestSlotCountFor(t *testing.T) {
	testCases := []struct {
		count    int
		expected int
	}{
		{count: 2, expected: 2},
		{count: 3, expected: 4},
		{count: 4, expected: 4},
		{count: 5, expected: 8},
		{count: 8, expected: 8},
		{count: 9, expected: 16},
		{count: 33, expected: 64},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, SlotCountFor(tc.count), "count %d", tc.count)
	}
}

func TestBuild_InsufficientParticipants(t *testing.T) {
	for _, n := range []int{0, 1} {
		_, err := Build(newParticipants(n))
		assert.ErrorIs(t, err, ErrInsufficientParticipants)
	}
}

func TestBuild_Shape(t *testing.T) {
	for n := 2; n <= 40; n++ {
		participants := newParticipants(n)
		b, err := Build(participants)
		require.NoError(t, err)

		expectedSlots := 1 << bits.Len(uint(n-1))
		assert.Equal(t, expectedSlots, b.SlotCount)
		assert.Equal(t, bits.TrailingZeros(uint(expectedSlots))+1, len(b.Rounds))
		assert.Equal(t, b.InitialSlots, b.Rounds[0])

		for k, round := range b.Rounds {
			assert.Len(t, round, b.SlotCount>>k, "round %d of n=%d", k, n)
		}

		// Every participant lands in exactly one initial slot
		seen := make(map[uuid.UUID]int)
		empties := 0
		for _, s := range b.InitialSlots {
			if s.IsOccupied() {
				seen[s.Participant]++
			} else {
				assert.True(t, s.IsEmpty())
				empties++
			}
		}
		assert.Len(t, seen, n)
		assert.Equal(t, b.SlotCount-n, empties)
		for _, p := range participants {
			assert.Equal(t, 1, seen[p])
		}
	}
}

func TestBuild_PowerOfTwoHasNoByes(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 32} {
		b, err := Build(newParticipants(n))
		require.NoError(t, err)

		for _, s := range b.InitialSlots {
			assert.True(t, s.IsOccupied())
		}
		// With no byes every later slot waits for a match
		for _, round := range b.Rounds[1:] {
			for _, s := range round {
				assert.Equal(t, SlotUnresolved, s.Kind)
			}
		}
	}
}

func TestBuild_LaterRoundsFollowPairing(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		b, err := Build(newParticipants(5), WithRand(rand.New(rand.NewPCG(seed, seed))))
		require.NoError(t, err)

		for k := 1; k < len(b.Rounds); k++ {
			for i, got := range b.Rounds[k] {
				a, c := b.Rounds[k-1][2*i], b.Rounds[k-1][2*i+1]
				switch {
				case a.IsEmpty() && c.IsEmpty():
					assert.True(t, got.IsEmpty())
				case a.IsEmpty():
					assert.Equal(t, c, got)
				case c.IsEmpty():
					assert.Equal(t, a, got)
				default:
					assert.Equal(t, SlotUnresolved, got.Kind)
				}
			}
		}

		// More than half the slots are filled so the final always needs a match
		assert.Equal(t, SlotUnresolved, b.Rounds[len(b.Rounds)-1][0].Kind)
	}
}

func TestBuild_SeededShuffleIsReproducible(t *testing.T) {
	participants := newParticipants(7)

	b1, err := Build(participants, WithRand(rand.New(rand.NewPCG(42, 7))))
	require.NoError(t, err)
	b2, err := Build(participants, WithRand(rand.New(rand.NewPCG(42, 7))))
	require.NoError(t, err)

	assert.Equal(t, b1.InitialSlots, b2.InitialSlots)
}

func TestBuild_SnapshotJSON(t *testing.T) {
	b, err := Build(newParticipants(3), WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded Bracket
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b.SlotCount, decoded.SlotCount)
	assert.Equal(t, b.Rounds, decoded.Rounds)
	assert.Equal(t, SingleElimination, decoded.Type)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, 4, raw["slots"])
	final := raw["rounds"].([]any)[2].([]any)[0]
	assert.Equal(t, "?", final)
}

func TestSideForIndex(t *testing.T) {
	assert.Equal(t, FirstSlot, SideForIndex(0))
	assert.Equal(t, SecondSlot, SideForIndex(1))
	assert.Equal(t, FirstSlot, SideForIndex(6))
	assert.Equal(t, SecondSlot, SideForIndex(7))

	assert.Equal(t, 0, ParentIndex(1))
	assert.Equal(t, 3, ParentIndex(6))
	assert.Equal(t, 3, ParentIndex(7))
}

// bracketFrom derives the rounds of a fixed initial layout, skipping the shuffle
func bracketFrom(initial []Slot) *Bracket {
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
	return &Bracket{Type: SingleElimination, SlotCount: len(initial), InitialSlots: initial, Rounds: rounds}
}

func findMatch(matches []Match, round, index int) *Match {
	for i := range matches {
		if matches[i].Round == round && matches[i].MatchIndex == index {
			return &matches[i]
		}
	}
	return nil
}

func TestBracketMatches(t *testing.T) {
	ids := newParticipants(6)
	a, b, c, d, e, f := ids[0], ids[1], ids[2], ids[3], ids[4], ids[5]
	occ := OccupiedSlot
	empty := EmptySlot()
	tournamentID, bracketID := uuid.New(), uuid.New()

	t.Run("five participants", func(t *testing.T) {
		br := bracketFrom([]Slot{occ(a), occ(b), occ(c), occ(d), occ(e), empty, empty, empty})
		matches := br.Matches(tournamentID, bracketID)
		require.Len(t, matches, 6)

		m := findMatch(matches, 0, 0)
		require.NotNil(t, m)
		assert.Equal(t, MatchPending, m.Status)
		assert.Equal(t, a, *m.Participant1ID)
		assert.Equal(t, b, *m.Participant2ID)
		assert.Equal(t, tournamentID, m.TournamentID)
		assert.Equal(t, bracketID, m.BracketID)

		bye := findMatch(matches, 0, 2)
		require.NotNil(t, bye)
		assert.Equal(t, MatchCompleted, bye.Status)
		assert.Equal(t, e, *bye.WinnerID)
		assert.True(t, bye.Bye2)
		assert.Nil(t, bye.Score1)
		assert.Nil(t, bye.Score2)

		assert.Nil(t, findMatch(matches, 0, 3), "two empty slots produce no match")

		// E keeps getting a bye in round 1
		r1 := findMatch(matches, 1, 1)
		require.NotNil(t, r1)
		assert.Equal(t, MatchCompleted, r1.Status)
		assert.Equal(t, e, *r1.WinnerID)

		final := findMatch(matches, 2, 0)
		require.NotNil(t, final)
		assert.Equal(t, MatchPending, final.Status)
		assert.Nil(t, final.Participant1ID)
		assert.Equal(t, e, *final.Participant2ID)
	})

	t.Run("three participants with byes on both sides", func(t *testing.T) {
		br := bracketFrom([]Slot{occ(a), empty, empty, occ(b)})
		matches := br.Matches(tournamentID, bracketID)
		require.Len(t, matches, 3)

		assert.Equal(t, a, *findMatch(matches, 0, 0).WinnerID)
		assert.Equal(t, b, *findMatch(matches, 0, 1).WinnerID)
		assert.True(t, findMatch(matches, 0, 1).Bye1)

		final := findMatch(matches, 1, 0)
		assert.True(t, final.Ready())
		assert.Equal(t, a, *final.Participant1ID)
		assert.Equal(t, b, *final.Participant2ID)
	})

	t.Run("later round waiting on a winner next to a bye", func(t *testing.T) {
		br := bracketFrom([]Slot{occ(a), occ(b), empty, empty, occ(c), occ(d), occ(e), occ(f)})
		matches := br.Matches(tournamentID, bracketID)
		require.Len(t, matches, 6)

		m := findMatch(matches, 1, 0)
		require.NotNil(t, m)
		assert.Equal(t, MatchPending, m.Status)
		assert.Nil(t, m.Participant1ID)
		assert.Nil(t, m.Participant2ID)
		assert.False(t, m.Bye1)
		assert.True(t, m.Bye2)
		assert.False(t, m.Ready())
	})
}
