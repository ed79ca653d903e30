package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/google/uuid"
)

// Notifier tells participants about match results and about matches that became playable.
// Calls happen after the transaction that changed the match has committed.
type Notifier interface {
	NotifyMatchResult(ctx context.Context, match *bracket.Match) error
	NotifyNextMatch(ctx context.Context, match *bracket.Match) error
}

type RegistrationGetter interface {
	GetRegistration(ctx context.Context, id uuid.UUID) (*bracket.Registration, error)
}

type UserGetter interface {
	GetUsers(ctx context.Context, ids []uuid.UUID) ([]users.User, error)
}

// Recipient is one side of a match together with the user behind it
type Recipient struct {
	User         users.User
	Registration bracket.Registration
	Opponent     string
	Won          bool
}

// Directory resolves the users behind the participants of a match
type Directory struct {
	registrations RegistrationGetter
	users         UserGetter
}

func NewDirectory(registrations RegistrationGetter, users UserGetter) *Directory {
	return &Directory{registrations: registrations, users: users}
}

func (d *Directory) Recipients(ctx context.Context, match *bracket.Match) ([]Recipient, error) {
	var regs []*bracket.Registration
	for _, side := range []bracket.Side{bracket.FirstSlot, bracket.SecondSlot} {
		id := match.Participant(side)
		if id == nil {
			regs = append(regs, nil)
			continue
		}
		reg, err := d.registrations.GetRegistration(ctx, *id)
		if err != nil {
			return nil, fmt.Errorf("failed to get registration %s: %w", id, err)
		}
		regs = append(regs, reg)
	}

	var userIDs []uuid.UUID
	for _, reg := range regs {
		if reg != nil {
			userIDs = append(userIDs, reg.UserID)
		}
	}
	found, err := d.users.GetUsers(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	byID := make(map[uuid.UUID]users.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	var recipients []Recipient
	for i, reg := range regs {
		if reg == nil {
			continue
		}
		user, ok := byID[reg.UserID]
		if !ok {
			continue
		}
		opponent := "TBD"
		if other := regs[1-i]; other != nil {
			opponent = other.Name
		}
		recipients = append(recipients, Recipient{
			User:         user,
			Registration: *reg,
			Opponent:     opponent,
			Won:          match.WinnerID != nil && *match.WinnerID == reg.ID,
		})
	}
	return recipients, nil
}

// Multi fans a notification out to every notifier, collecting their errors
type Multi []Notifier

func (m Multi) NotifyMatchResult(ctx context.Context, match *bracket.Match) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyMatchResult(ctx, match))
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyNextMatch(ctx context.Context, match *bracket.Match) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyNextMatch(ctx, match))
	}
	return errors.Join(errs...)
}

// Nop drops every notification
type Nop struct{}

func (Nop) NotifyMatchResult(context.Context, *bracket.Match) error { return nil }
func (Nop) NotifyNextMatch(context.Context, *bracket.Match) error   { return nil }
