package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/store"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/AdamBeresnev/tournament-portal/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type TournamentService struct {
	db      *sqlx.DB
	store   *store.TournamentStore
	matches *store.MatchStore
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, matches *store.MatchStore) *TournamentService {
	return &TournamentService{db: db, store: store, matches: matches}
}

type TournamentData struct {
	Tournament    *bracket.Tournament
	Registrations []bracket.Registration
	Matches       []bracket.Match
	CanManage     bool
	NextMatchID   *uuid.UUID
}

func (s *TournamentService) GetTournamentData(ctx context.Context, p users.Principal, id uuid.UUID) (*TournamentData, error) {
	data := &TournamentData{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tournament, err := s.store.GetTournament(gCtx, id)
		if err != nil {
			return err
		}
		data.Tournament = tournament
		return nil
	})

	g.Go(func() error {
		registrations, err := s.store.GetRegistrations(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to get registrations: %w", err)
		}
		data.Registrations = registrations
		return nil
	})

	g.Go(func() error {
		matches, err := s.matches.GetMatches(gCtx, s.db, id)
		if err != nil {
			return fmt.Errorf("failed to get matches: %w", err)
		}
		data.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.CanManage = canManage(p, data.Tournament)
	for _, m := range data.Matches {
		if m.Ready() {
			id := m.ID
			data.NextMatchID = &id
			break
		}
	}
	return data, nil
}

func (s *TournamentService) GetTournamentsForUser(ctx context.Context, p users.Principal) ([]bracket.Tournament, error) {
	return s.store.GetTournamentsForUser(ctx, p.UserID)
}

type CreateTournamentInput struct {
	Name string
	Type bracket.TournamentType
	// Participant names, one per line
	Participants string
	StreamURL    string
}

// CreateTournament opens a tournament for registration, optionally registering a list of
// named participants on behalf of the owner.
func (s *TournamentService) CreateTournament(ctx context.Context, p users.Principal, input CreateTournamentInput) (uuid.UUID, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: tournament name is required", bracket.ErrInvalidInput)
	}
	tournamentType := input.Type
	if tournamentType == "" {
		tournamentType = bracket.SingleElimination
	}
	if tournamentType != bracket.SingleElimination && tournamentType != bracket.DoubleElimination {
		return uuid.Nil, fmt.Errorf("%w: %s", bracket.ErrUnsupportedFormat, tournamentType)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	streamURL := strings.TrimSpace(input.StreamURL)
	if streamURL != "" {
		if u, err := url.Parse(streamURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return uuid.Nil, fmt.Errorf("%w: stream URL must be an http or https link", bracket.ErrInvalidInput)
		}
	}

	tournament := bracket.Tournament{
		ID:        uuid.New(),
		OwnerID:   p.UserID,
		Name:      name,
		Status:    bracket.TournamentRegistration,
		Type:      tournamentType,
		StreamURL: utils.StringOrNil(streamURL),
	}
	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	for _, participant := range ParseParticipants(input.Participants) {
		registration := bracket.Registration{
			ID:           uuid.New(),
			TournamentID: tournament.ID,
			UserID:       p.UserID,
			Name:         participant,
			Status:       bracket.RegistrationApproved,
		}
		if err := s.store.CreateRegistration(ctx, tx, &registration); err != nil {
			return uuid.Nil, fmt.Errorf("failed to register %q: %w", participant, err)
		}
	}

	return tournament.ID, tx.Commit()
}

// ParseParticipants splits pasted input into participant names, dropping blank lines
func ParseParticipants(input string) []string {
	var names []string
	for _, line := range strings.Split(input, "\n") {
		if name := utils.StringOrNil(line); name != nil {
			names = append(names, *name)
		}
	}
	return names
}

type RegisterInput struct {
	Name   string
	TeamID *uuid.UUID
}

// Register enters the principal, or their team, into a tournament that is still open
func (s *TournamentService) Register(ctx context.Context, p users.Principal, tournamentID uuid.UUID, input RegisterInput) (*bracket.Registration, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: registration name is required", bracket.ErrInvalidInput)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.store.LockTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != bracket.TournamentRegistration {
		return nil, bracket.ErrRegistrationClosed
	}

	teamID := input.TeamID
	if teamID == nil {
		teamID = p.TeamID
	}
	registration := &bracket.Registration{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		UserID:       p.UserID,
		TeamID:       teamID,
		Name:         name,
		Status:       bracket.RegistrationRegistered,
	}
	if err := s.store.CreateRegistration(ctx, tx, registration); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	return registration, tx.Commit()
}

// Withdraw takes a registration out of a tournament that hasn't started. The registering
// user and the tournament managers may do it.
func (s *TournamentService) Withdraw(ctx context.Context, p users.Principal, registrationID uuid.UUID) error {
	registration, err := s.store.GetRegistration(ctx, registrationID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.store.LockTournamentTx(ctx, tx, registration.TournamentID)
	if err != nil {
		return err
	}
	if registration.UserID != p.UserID && !canManage(p, tournament) {
		return bracket.ErrForbidden
	}
	if tournament.Status != bracket.TournamentRegistration {
		return bracket.ErrRegistrationClosed
	}

	if err := s.store.UpdateRegistrationStatus(ctx, tx, registrationID, bracket.RegistrationWithdrawn); err != nil {
		return err
	}
	return tx.Commit()
}

// Approve marks a registration as accepted by the tournament managers
func (s *TournamentService) Approve(ctx context.Context, p users.Principal, registrationID uuid.UUID) error {
	registration, err := s.store.GetRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	tournament, err := s.store.GetTournament(ctx, registration.TournamentID)
	if err != nil {
		return err
	}
	if err := authorize(p, tournament); err != nil {
		return err
	}
	return s.store.UpdateRegistrationStatus(ctx, s.db, registrationID, bracket.RegistrationApproved)
}
