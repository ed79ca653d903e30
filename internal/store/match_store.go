package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Keeps a single batch insert well under the bind variable limit of SQLite
const matchInsertChunk = 100

const (
	createMatchQuery = `
		INSERT INTO matches (id, tournament_id, bracket_id, round, match_index,
			participant_1_id, participant_2_id, bye_1, bye_2, score_1, score_2, winner_id, status)
		VALUES (:id, :tournament_id, :bracket_id, :round, :match_index,
			:participant_1_id, :participant_2_id, :bye_1, :bye_2, :score_1, :score_2, :winner_id, :status)`
	getMatchQuery   = "SELECT * FROM matches WHERE id = ?"
	getMatchesQuery = `
		SELECT * FROM matches
		WHERE tournament_id = ?
		ORDER BY round ASC, match_index ASC
	`
	getMatchByPositionQuery = `
		SELECT * FROM matches
		WHERE bracket_id = ? AND round = ? AND match_index = ?
	`
	recordResultQuery = `
		UPDATE matches SET
		score_1 = ?,
		score_2 = ?,
		winner_id = ?,
		status = 'completed',
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		AND status = 'pending'
		AND participant_1_id IS NOT NULL
		AND participant_2_id IS NOT NULL
		AND (participant_1_id = ? OR participant_2_id = ?)
	`
	completeByeQuery = `
		UPDATE matches SET
		winner_id = ?,
		status = 'completed',
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`
	// The slot is only written while it is still open, so a second writer can never
	// overwrite a winner that is already there
	fillFirstSlotQuery = `
		UPDATE matches SET participant_1_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND participant_1_id IS NULL AND bye_1 = FALSE
	`
	fillSecondSlotQuery = `
		UPDATE matches SET participant_2_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND participant_2_id IS NULL AND bye_2 = FALSE
	`
	deleteMatchesQuery = "DELETE FROM matches WHERE tournament_id = ?"
	countPlayedQuery   = `
		SELECT COUNT(*) FROM matches
		WHERE tournament_id = ? AND status = 'completed' AND bye_1 = FALSE AND bye_2 = FALSE
	`
	getNextPendingMatchQuery = `
		SELECT * FROM matches
		WHERE tournament_id = ?
		AND status = 'pending'
		AND participant_1_id IS NOT NULL
		AND participant_2_id IS NOT NULL
		ORDER BY round ASC, match_index ASC
		LIMIT 1
	`
)

type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) CreateMatches(ctx context.Context, q Querier, matches []bracket.Match) error {
	for start := 0; start < len(matches); start += matchInsertChunk {
		end := min(start+matchInsertChunk, len(matches))
		if _, err := sqlx.NamedExecContext(ctx, q, createMatchQuery, matches[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *MatchStore) GetMatch(ctx context.Context, q Querier, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := sqlx.GetContext(ctx, q, &match, q.Rebind(getMatchQuery), id); err != nil {
		return nil, notFound(err, "match")
	}
	return &match, nil
}

// LockForUpdate loads the match and holds its row until the transaction ends
func (s *MatchStore) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := tx.GetContext(ctx, &match, tx.Rebind(forUpdate(tx, getMatchQuery)), id); err != nil {
		return nil, notFound(err, "match")
	}
	return &match, nil
}

func (s *MatchStore) GetMatches(ctx context.Context, q Querier, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind(getMatchesQuery), tournamentID)
	return matches, err
}

// FindByPosition locks the match at the given round and index of a bracket
func (s *MatchStore) FindByPosition(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID, round, matchIndex int) (*bracket.Match, error) {
	var match bracket.Match
	query := tx.Rebind(forUpdate(tx, getMatchByPositionQuery))
	if err := tx.GetContext(ctx, &match, query, bracketID, round, matchIndex); err != nil {
		return nil, notFound(err, fmt.Sprintf("match at round %d index %d", round, matchIndex))
	}
	return &match, nil
}

// RecordResult completes a pending match with both participants present. When nothing is
// updated the match is read again to report why.
func (s *MatchStore) RecordResult(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, score1, score2 *int, winner uuid.UUID) error {
	result, err := tx.ExecContext(ctx, tx.Rebind(recordResultQuery), score1, score2, winner, id, winner, winner)
	if err != nil {
		return fmt.Errorf("failed to record match result: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	match, err := s.GetMatch(ctx, tx, id)
	if err != nil {
		return err
	}
	switch {
	case match.Status == bracket.MatchCompleted:
		return bracket.ErrMatchCompleted
	case !match.Ready():
		return bracket.ErrMatchNotReady
	default:
		return bracket.ErrInvalidWinner
	}
}

// CompleteBye marks a pending match as won by its only participant without scores
func (s *MatchStore) CompleteBye(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, winner uuid.UUID) error {
	result, err := tx.ExecContext(ctx, tx.Rebind(completeByeQuery), winner, id)
	if err != nil {
		return fmt.Errorf("failed to complete bye: %w", err)
	}
	return checkAffectedRows(result, bracket.ErrMatchCompleted)
}

// FillSide writes the participant into an open side of the match. It reports false when the
// side was already taken or is a bye, leaving the row untouched.
func (s *MatchStore) FillSide(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, side bracket.Side, participant uuid.UUID) (bool, error) {
	var query string
	switch side {
	case bracket.FirstSlot:
		query = fillFirstSlotQuery
	case bracket.SecondSlot:
		query = fillSecondSlotQuery
	default:
		return false, fmt.Errorf("invalid side %d", side)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(query), participant, id)
	if err != nil {
		return false, fmt.Errorf("failed to fill %s slot: %w", side, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rows == 1, nil
}

func (s *MatchStore) DeleteForTournament(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(deleteMatchesQuery), tournamentID)
	return err
}

// CountPlayed counts completed matches that were actually played, byes excluded
func (s *MatchStore) CountPlayed(ctx context.Context, q Querier, tournamentID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, q.Rebind(countPlayedQuery), tournamentID)
	return count, err
}

// GetNextPendingMatch returns the earliest match that is ready to be played, or nil
func (s *MatchStore) GetNextPendingMatch(ctx context.Context, q Querier, tournamentID uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match, q.Rebind(getNextPendingMatchQuery), tournamentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}
