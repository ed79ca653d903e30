package bracket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentRegistration TournamentStatus = "registration"
	TournamentStarted      TournamentStatus = "started"
	TournamentCompleted    TournamentStatus = "completed"
)

type TournamentType string

const (
	SingleElimination TournamentType = "single"
	// Accepted on tournaments but brackets can't be generated for it
	DoubleElimination TournamentType = "double"
)

type Tournament struct {
	ID         uuid.UUID        `db:"id" json:"id"`
	OwnerID    uuid.UUID        `db:"owner_id" json:"owner_id"`
	Name       string           `db:"name" json:"name"`
	Status     TournamentStatus `db:"status" json:"status"`
	Type       TournamentType   `db:"tournament_type" json:"type"`
	ChampionID *uuid.UUID       `db:"champion_id" json:"champion_id"`
	StreamURL  *string          `db:"stream_url" json:"stream_url,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// Record is the persisted row of a generated bracket. Data holds the JSON snapshot.
type Record struct {
	ID           uuid.UUID      `db:"id"`
	TournamentID uuid.UUID      `db:"tournament_id"`
	Version      int            `db:"version"`
	Type         TournamentType `db:"bracket_type"`
	SlotCount    int            `db:"slot_count"`
	RoundCount   int            `db:"round_count"`
	Data         string         `db:"bracket_data"`
	CreatedAt    time.Time      `db:"created_at"`
}

// FinalRound is the round index of the championship match
func (r *Record) FinalRound() int {
	return r.RoundCount - 1
}

func (r *Record) Snapshot() (*Bracket, error) {
	var b Bracket
	if err := json.Unmarshal([]byte(r.Data), &b); err != nil {
		return nil, fmt.Errorf("failed to decode bracket %s: %w", r.ID, err)
	}
	return &b, nil
}
