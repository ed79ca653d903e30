package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/notify"
	"github.com/AdamBeresnev/tournament-portal/internal/store"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	matches     *store.MatchStore
	advancer    *Advancer
	notifier    notify.Notifier
}

func NewMatchService(db *sqlx.DB, tournaments *store.TournamentStore, matches *store.MatchStore, advancer *Advancer, notifier notify.Notifier) *MatchService {
	return &MatchService{db: db, tournaments: tournaments, matches: matches, advancer: advancer, notifier: notifier}
}

// Outcome is the winner indicator of a submitted result
type Outcome string

const (
	SideA Outcome = "a"
	SideB Outcome = "b"
	Draw  Outcome = "draw"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case SideA, SideB, Draw:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown outcome %q", bracket.ErrInvalidWinner, s)
	}
}

type SubmitResultInput struct {
	MatchID uuid.UUID
	Score1  *int
	Score2  *int
	Winner  Outcome
}

// SubmitResult records the result of a ready match and advances the winner in the same
// transaction. Notifications go out after the commit and never undo it.
func (s *MatchService) SubmitResult(ctx context.Context, p users.Principal, input SubmitResultInput) (*Advancement, error) {
	if (input.Score1 != nil && *input.Score1 < 0) || (input.Score2 != nil && *input.Score2 < 0) {
		return nil, bracket.ErrInvalidScore
	}

	// Read once to find the tournament so locks are always taken tournament first
	peek, err := s.matches.GetMatch(ctx, s.db, input.MatchID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.LockTournamentTx(ctx, tx, peek.TournamentID)
	if err != nil {
		return nil, err
	}
	match, err := s.matches.LockForUpdate(ctx, tx, input.MatchID)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, tournament); err != nil {
		return nil, err
	}

	if match.Status != bracket.MatchPending {
		return nil, bracket.ErrMatchCompleted
	}
	if !match.Ready() {
		return nil, bracket.ErrMatchNotReady
	}

	var winner uuid.UUID
	switch input.Winner {
	case SideA:
		winner = *match.Participant1ID
	case SideB:
		winner = *match.Participant2ID
	case Draw:
		return nil, fmt.Errorf("%w: draws can't be advanced in an elimination bracket", bracket.ErrInvalidWinner)
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", bracket.ErrInvalidWinner, input.Winner)
	}

	if err := s.matches.RecordResult(ctx, tx, match.ID, input.Score1, input.Score2, winner); err != nil {
		return nil, err
	}
	match.Score1 = input.Score1
	match.Score2 = input.Score2
	match.WinnerID = &winner
	match.Status = bracket.MatchCompleted

	adv, err := s.advancer.Advance(ctx, tx, match)
	if err != nil {
		return nil, fmt.Errorf("failed to advance winner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("match result recorded",
		"tournament_id", match.TournamentID,
		"match_id", match.ID,
		"round", match.Round,
		"winner_id", winner,
		"tournament_completed", adv.TournamentCompleted)

	s.notifyResult(ctx, match, adv)
	return adv, nil
}

func (s *MatchService) notifyResult(ctx context.Context, match *bracket.Match, adv *Advancement) {
	if err := s.notifier.NotifyMatchResult(ctx, match); err != nil {
		slog.Warn("failed to send match result notification", "match_id", match.ID, "error", err)
	}
	for i := range adv.Next {
		next := &adv.Next[i]
		if !next.Ready() {
			continue
		}
		if err := s.notifier.NotifyNextMatch(ctx, next); err != nil {
			slog.Warn("failed to send next match notification", "match_id", next.ID, "error", err)
		}
	}
}

type MatchData struct {
	Match        *bracket.Match
	Tournament   *bracket.Tournament
	Participant1 *bracket.Registration
	Participant2 *bracket.Registration
	CanManage    bool
	NextMatchID  *uuid.UUID
}

func (s *MatchService) GetMatchViewData(ctx context.Context, p users.Principal, matchID uuid.UUID) (*MatchData, error) {
	match, err := s.matches.GetMatch(ctx, s.db, matchID)
	if err != nil {
		return nil, err
	}

	tournament, err := s.tournaments.GetTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}

	var participant1, participant2 *bracket.Registration
	if match.Participant1ID != nil {
		r, err := s.tournaments.GetRegistration(ctx, *match.Participant1ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get participant 1: %w", err)
		}
		participant1 = r
	}
	if match.Participant2ID != nil {
		r, err := s.tournaments.GetRegistration(ctx, *match.Participant2ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get participant 2: %w", err)
		}
		participant2 = r
	}

	nextMatch, err := s.matches.GetNextPendingMatch(ctx, s.db, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get next match: %w", err)
	}

	var nextMatchID *uuid.UUID
	if nextMatch != nil && nextMatch.ID != match.ID {
		id := nextMatch.ID
		nextMatchID = &id
	}

	return &MatchData{
		Match:        match,
		Tournament:   tournament,
		Participant1: participant1,
		Participant2: participant2,
		CanManage:    canManage(p, tournament),
		NextMatchID:  nextMatchID,
	}, nil
}
