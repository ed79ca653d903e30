package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/db"
	"github.com/AdamBeresnev/tournament-portal/internal/store"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var admin = users.Principal{UserID: users.GuestID, IsAdmin: true}

// setupTestDB creates a file backed SQLite database and applies migrations. A file is used
// instead of :memory: so concurrent transactions share the same database.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", path)
	database, err := sqlx.Connect("sqlite3", dsn)
	require.NoError(t, err, "Failed to connect to test DB")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database, "../../migrations"), "Failed to apply migrations")
	return database
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []uuid.UUID
	next    []uuid.UUID
	err     error
}

func (n *recordingNotifier) NotifyMatchResult(_ context.Context, match *bracket.Match) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, match.ID)
	return n.err
}

func (n *recordingNotifier) NotifyNextMatch(_ context.Context, match *bracket.Match) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next = append(n.next, match.ID)
	return n.err
}

type testEnv struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	brackets    *store.BracketStore
	matchStore  *store.MatchStore
	advancer    *Advancer
	notifier    *recordingNotifier

	tournamentService *TournamentService
	bracketService    *BracketService
	matchService      *MatchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := setupTestDB(t)

	tournaments := store.NewTournamentStore(database)
	matches := store.NewMatchStore(database)
	brackets := store.NewBracketStore(database, matches)
	advancer := NewAdvancer(matches, brackets, tournaments)
	notifier := &recordingNotifier{}

	return &testEnv{
		db:                database,
		tournaments:       tournaments,
		brackets:          brackets,
		matchStore:        matches,
		advancer:          advancer,
		notifier:          notifier,
		tournamentService: NewTournamentService(database, tournaments, matches),
		bracketService:    NewBracketService(database, tournaments, brackets, matches, notifier),
		matchService:      NewMatchService(database, tournaments, matches, advancer, notifier),
	}
}

// newTournament creates a tournament owned by the guest admin with n approved participants
func (e *testEnv) newTournament(t *testing.T, n int) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	names := ""
	for i := 0; i < n; i++ {
		names += fmt.Sprintf("Team %d\n", i+1)
	}
	tournamentID, err := e.tournamentService.CreateTournament(ctx, admin, CreateTournamentInput{
		Name:         "Test Tournament",
		Participants: names,
	})
	require.NoError(t, err)

	registrations, err := e.tournaments.GetRegistrations(ctx, tournamentID)
	require.NoError(t, err)
	require.Len(t, registrations, n)

	ids := make([]uuid.UUID, n)
	for i, r := range registrations {
		ids[i] = r.ID
	}
	return tournamentID, ids
}

// persistLayout stores a bracket with a fixed initial layout instead of a shuffled one
func (e *testEnv) persistLayout(t *testing.T, tournamentID uuid.UUID, initial []bracket.Slot) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	b := &bracket.Bracket{
		Type:         bracket.SingleElimination,
		SlotCount:    len(initial),
		InitialSlots: initial,
		Rounds:       [][]bracket.Slot{initial},
	}
	for current := initial; len(current) > 1; {
		next := make([]bracket.Slot, len(current)/2)
		for i := range next {
			a, c := current[2*i], current[2*i+1]
			switch {
			case a.IsEmpty():
				next[i] = c
			case c.IsEmpty():
				next[i] = a
			default:
				next[i] = bracket.UnresolvedSlot()
			}
		}
		b.Rounds = append(b.Rounds, next)
		current = next
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	bracketID, err := e.brackets.Persist(ctx, tx, tournamentID, b)
	require.NoError(t, err)
	require.NoError(t, e.tournaments.UpdateTournamentStatusTx(ctx, tx, tournamentID, bracket.TournamentStarted, nil))
	require.NoError(t, tx.Commit())
	return bracketID
}

func (e *testEnv) matchAt(t *testing.T, tournamentID uuid.UUID, round, index int) *bracket.Match {
	t.Helper()
	matches, err := e.matchStore.GetMatches(context.Background(), e.db, tournamentID)
	require.NoError(t, err)
	for i := range matches {
		if matches[i].Round == round && matches[i].MatchIndex == index {
			return &matches[i]
		}
	}
	t.Fatalf("no match at round %d index %d", round, index)
	return nil
}

// nextReady returns any match that can be played, or nil
func (e *testEnv) nextReady(t *testing.T, tournamentID uuid.UUID) *bracket.Match {
	t.Helper()
	m, err := e.matchStore.GetNextPendingMatch(context.Background(), e.db, tournamentID)
	require.NoError(t, err)
	return m
}

func (e *testEnv) submit(t *testing.T, matchID uuid.UUID, winner Outcome) *Advancement {
	t.Helper()
	adv, err := e.matchService.SubmitResult(context.Background(), admin, SubmitResultInput{
		MatchID: matchID,
		Winner:  winner,
	})
	require.NoError(t, err)
	return adv
}
