package service

import (
	"errors"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
)

// canManage reports whether the principal may run the bracket of the tournament
func canManage(p users.Principal, t *bracket.Tournament) bool {
	return p.IsAdmin || p.UserID == t.OwnerID
}

func authorize(p users.Principal, t *bracket.Tournament) error {
	if !canManage(p, t) {
		return bracket.ErrForbidden
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, bracket.ErrNotFound)
}
