package bracket

import (
	"time"

	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationApproved   RegistrationStatus = "approved"
	RegistrationWithdrawn  RegistrationStatus = "withdrawn"
)

// Registration is a team or a single user entered into a tournament.
// Its ID is the participant key used throughout the bracket.
type Registration struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	TournamentID uuid.UUID          `db:"tournament_id" json:"tournament_id"`
	UserID       uuid.UUID          `db:"user_id" json:"user_id"`
	TeamID       *uuid.UUID         `db:"team_id" json:"team_id,omitempty"`
	Name         string             `db:"name" json:"name"`
	Status       RegistrationStatus `db:"status" json:"status"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}

func (r *Registration) Eligible() bool {
	return r.Status == RegistrationRegistered || r.Status == RegistrationApproved
}
