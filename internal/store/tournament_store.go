package store

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	getTournamentQuery         = "SELECT * FROM tournaments WHERE id = ?"
	getTournamentsForUserQuery = `
		SELECT * FROM tournaments
		WHERE owner_id = ?
		OR id IN (SELECT tournament_id FROM registrations WHERE user_id = ?)
		ORDER BY created_at DESC, name ASC
	`
	updateTournamentStatusQuery = `
		UPDATE tournaments SET status = ?, champion_id = ?
		WHERE id = ?
	`
	getRegistrationQuery          = "SELECT * FROM registrations WHERE id = ?"
	getRegistrationsQuery         = "SELECT * FROM registrations WHERE tournament_id = ? ORDER BY created_at ASC, name ASC"
	getEligibleRegistrationsQuery = `
		SELECT * FROM registrations
		WHERE tournament_id = ? AND status IN ('registered', 'approved')
		ORDER BY created_at ASC, id ASC
	`
	updateRegistrationStatusQuery = "UPDATE registrations SET status = ? WHERE id = ?"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, q Querier, tournament *bracket.Tournament) error {
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO tournaments (id, owner_id, name, status, tournament_type, stream_url)
        VALUES (:id, :owner_id, :name, :status, :tournament_type, :stream_url)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	if err := s.db.GetContext(ctx, &tournament, s.db.Rebind(getTournamentQuery), id); err != nil {
		return nil, notFound(err, "tournament")
	}
	return &tournament, nil
}

// LockTournamentTx loads the tournament and holds its row for the rest of the transaction
func (s *TournamentStore) LockTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	if err := tx.GetContext(ctx, &tournament, tx.Rebind(forUpdate(tx, getTournamentQuery)), id); err != nil {
		return nil, notFound(err, "tournament")
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentsForUser(ctx context.Context, userID uuid.UUID) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, s.db.Rebind(getTournamentsForUserQuery), userID, userID)
	return tournaments, err
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status bracket.TournamentStatus, championID *uuid.UUID) error {
	result, err := tx.ExecContext(ctx, tx.Rebind(updateTournamentStatusQuery), status, championID, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	return checkAffectedRows(result, fmt.Errorf("tournament: %w", bracket.ErrNotFound))
}

func (s *TournamentStore) CreateRegistration(ctx context.Context, q Querier, registration *bracket.Registration) error {
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO registrations (id, tournament_id, user_id, team_id, name, status)
		VALUES (:id, :tournament_id, :user_id, :team_id, :name, :status)`, registration)
	return err
}

func (s *TournamentStore) GetRegistration(ctx context.Context, id uuid.UUID) (*bracket.Registration, error) {
	var registration bracket.Registration
	if err := s.db.GetContext(ctx, &registration, s.db.Rebind(getRegistrationQuery), id); err != nil {
		return nil, notFound(err, "registration")
	}
	return &registration, nil
}

func (s *TournamentStore) GetRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	var registrations []bracket.Registration
	err := s.db.SelectContext(ctx, &registrations, s.db.Rebind(getRegistrationsQuery), tournamentID)
	return registrations, err
}

// GetEligibleRegistrationsTx returns the registrations that take part in a generated bracket
func (s *TournamentStore) GetEligibleRegistrationsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	var registrations []bracket.Registration
	err := tx.SelectContext(ctx, &registrations, tx.Rebind(getEligibleRegistrationsQuery), tournamentID)
	return registrations, err
}

func (s *TournamentStore) UpdateRegistrationStatus(ctx context.Context, q Querier, id uuid.UUID, status bracket.RegistrationStatus) error {
	result, err := q.ExecContext(ctx, q.Rebind(updateRegistrationStatusQuery), status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, fmt.Errorf("registration: %w", bracket.ErrNotFound))
}
