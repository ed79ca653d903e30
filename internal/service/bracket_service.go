package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/notify"
	"github.com/AdamBeresnev/tournament-portal/internal/store"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type BracketService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	brackets    *store.BracketStore
	matches     *store.MatchStore
	notifier    notify.Notifier
}

func NewBracketService(db *sqlx.DB, tournaments *store.TournamentStore, brackets *store.BracketStore, matches *store.MatchStore, notifier notify.Notifier) *BracketService {
	return &BracketService{db: db, tournaments: tournaments, brackets: brackets, matches: matches, notifier: notifier}
}

type GenerateOptions struct {
	// Throw away recorded results and draw a new bracket anyway
	Force bool
	// Rand fixes the shuffle, nil uses the global source
	Rand *rand.Rand
}

// Generate draws a fresh bracket from the eligible registrations and replaces the matches
// of any previous one. The old bracket row stays as history under a lower version.
func (s *BracketService) Generate(ctx context.Context, p users.Principal, tournamentID uuid.UUID, opts GenerateOptions) (uuid.UUID, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.LockTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := authorize(p, tournament); err != nil {
		return uuid.Nil, err
	}
	if tournament.Type != bracket.SingleElimination {
		return uuid.Nil, fmt.Errorf("%w: %s", bracket.ErrUnsupportedFormat, tournament.Type)
	}

	played, err := s.matches.CountPlayed(ctx, tx, tournamentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to count played matches: %w", err)
	}
	if played > 0 && !opts.Force {
		return uuid.Nil, fmt.Errorf("%w: %d matches played", bracket.ErrResultsRecorded, played)
	}

	registrations, err := s.tournaments.GetEligibleRegistrationsTx(ctx, tx, tournamentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	participants := make([]uuid.UUID, len(registrations))
	for i, r := range registrations {
		participants[i] = r.ID
	}

	var buildOpts []bracket.BuildOption
	if opts.Rand != nil {
		buildOpts = append(buildOpts, bracket.WithRand(opts.Rand))
	}
	b, err := bracket.Build(participants, buildOpts...)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.matches.DeleteForTournament(ctx, tx, tournamentID); err != nil {
		return uuid.Nil, fmt.Errorf("%w: removing old matches: %v", bracket.ErrPersistenceFailure, err)
	}
	bracketID, err := s.brackets.Persist(ctx, tx, tournamentID, b)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.tournaments.UpdateTournamentStatusTx(ctx, tx, tournamentID, bracket.TournamentStarted, nil); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", bracket.ErrPersistenceFailure, err)
	}

	slog.Info("bracket generated",
		"tournament_id", tournamentID,
		"bracket_id", bracketID,
		"participants", len(participants),
		"slots", b.SlotCount,
		"forced", opts.Force && played > 0)

	s.announceFirstMatches(ctx, tournamentID)
	return bracketID, nil
}

func (s *BracketService) announceFirstMatches(ctx context.Context, tournamentID uuid.UUID) {
	matches, err := s.matches.GetMatches(ctx, s.db, tournamentID)
	if err != nil {
		slog.Warn("failed to load matches for notifications", "tournament_id", tournamentID, "error", err)
		return
	}
	for i := range matches {
		if !matches[i].Ready() {
			continue
		}
		if err := s.notifier.NotifyNextMatch(ctx, &matches[i]); err != nil {
			slog.Warn("failed to send next match notification", "match_id", matches[i].ID, "error", err)
		}
	}
}

type BracketData struct {
	Tournament    *bracket.Tournament
	Record        *bracket.Record
	Snapshot      *bracket.Bracket
	Matches       []bracket.Match
	Registrations map[uuid.UUID]bracket.Registration
}

// GetBracketData loads everything needed to draw the current bracket. Record and Snapshot
// are nil while no bracket has been generated.
func (s *BracketService) GetBracketData(ctx context.Context, tournamentID uuid.UUID) (*BracketData, error) {
	data := &BracketData{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tournament, err := s.tournaments.GetTournament(gCtx, tournamentID)
		if err != nil {
			return err
		}
		data.Tournament = tournament
		return nil
	})

	g.Go(func() error {
		record, err := s.brackets.GetCurrent(gCtx, s.db, tournamentID)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return fmt.Errorf("failed to get bracket: %w", err)
		}
		snapshot, err := record.Snapshot()
		if err != nil {
			return err
		}
		data.Record = record
		data.Snapshot = snapshot
		return nil
	})

	g.Go(func() error {
		matches, err := s.matches.GetMatches(gCtx, s.db, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to get matches: %w", err)
		}
		data.Matches = matches
		return nil
	})

	g.Go(func() error {
		registrations, err := s.tournaments.GetRegistrations(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to get registrations: %w", err)
		}
		data.Registrations = make(map[uuid.UUID]bracket.Registration, len(registrations))
		for _, r := range registrations {
			data.Registrations[r.ID] = r
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}
