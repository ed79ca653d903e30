package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	nextBracketVersionQuery = "SELECT COALESCE(MAX(version), 0) + 1 FROM brackets WHERE tournament_id = ?"
	getCurrentBracketQuery  = `
		SELECT * FROM brackets
		WHERE tournament_id = ?
		ORDER BY version DESC
		LIMIT 1
	`
	getBracketQuery    = "SELECT * FROM brackets WHERE id = ?"
	createBracketQuery = `
		INSERT INTO brackets (id, tournament_id, version, bracket_type, slot_count, round_count, bracket_data)
		VALUES (:id, :tournament_id, :version, :bracket_type, :slot_count, :round_count, :bracket_data)
	`
)

type BracketStore struct {
	db      *sqlx.DB
	matches *MatchStore
}

func NewBracketStore(db *sqlx.DB, matches *MatchStore) *BracketStore {
	return &BracketStore{db: db, matches: matches}
}

// Persist stores the snapshot as the next bracket version of the tournament together with
// every match it lays out. Any failure is reported as ErrPersistenceFailure and the caller
// is expected to roll the transaction back.
func (s *BracketStore) Persist(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, b *bracket.Bracket) (uuid.UUID, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: encoding snapshot: %v", bracket.ErrPersistenceFailure, err)
	}

	var version int
	if err := tx.GetContext(ctx, &version, tx.Rebind(nextBracketVersionQuery), tournamentID); err != nil {
		return uuid.Nil, fmt.Errorf("%w: reading version: %v", bracket.ErrPersistenceFailure, err)
	}

	record := bracket.Record{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		Version:      version,
		Type:         b.Type,
		SlotCount:    b.SlotCount,
		RoundCount:   b.MatchRounds(),
		Data:         string(data),
	}
	if _, err := tx.NamedExecContext(ctx, createBracketQuery, record); err != nil {
		return uuid.Nil, fmt.Errorf("%w: inserting bracket: %v", bracket.ErrPersistenceFailure, err)
	}

	if err := s.matches.CreateMatches(ctx, tx, b.Matches(tournamentID, record.ID)); err != nil {
		return uuid.Nil, fmt.Errorf("%w: inserting matches: %v", bracket.ErrPersistenceFailure, err)
	}

	return record.ID, nil
}

// GetCurrent returns the latest bracket version of the tournament
func (s *BracketStore) GetCurrent(ctx context.Context, q Querier, tournamentID uuid.UUID) (*bracket.Record, error) {
	var record bracket.Record
	if err := sqlx.GetContext(ctx, q, &record, q.Rebind(getCurrentBracketQuery), tournamentID); err != nil {
		return nil, notFound(err, "bracket")
	}
	return &record, nil
}

func (s *BracketStore) GetRecord(ctx context.Context, q Querier, id uuid.UUID) (*bracket.Record, error) {
	var record bracket.Record
	if err := sqlx.GetContext(ctx, q, &record, q.Rebind(getBracketQuery), id); err != nil {
		return nil, notFound(err, "bracket")
	}
	return &record, nil
}
