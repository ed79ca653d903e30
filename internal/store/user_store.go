package store

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery           = "SELECT * FROM users WHERE id = ?"
	getUserByProviderQuery = `
		SELECT * FROM users
		WHERE provider = ?
		AND provider_id = ?
	`
	getUsersByIDsQuery = "SELECT * FROM users WHERE id IN (?)"
	createUserQuery    = `
		INSERT INTO users (id, email, username, is_admin, team_id, provider, provider_id, avatar_url, notification_prefs) VALUES
		(:id, :email, :username, :is_admin, :team_id, :provider, :provider_id, :avatar_url, :notification_prefs)
	`
	updateUserNameAndAvatarQuery = `
		UPDATE users SET
		username = :username,
		avatar_url = :avatar_url
		WHERE id = :id
	`
	updateNotificationPrefsQuery = "UPDATE users SET notification_prefs = ? WHERE id = ?"
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserByProviderQuery), provider, providerID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	return &user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserQuery), id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// GetUsers loads every user in ids that exists, in no particular order
func (s *UserStore) GetUsers(ctx context.Context, ids []uuid.UUID) ([]users.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(getUsersByIDsQuery, ids)
	if err != nil {
		return nil, err
	}
	var found []users.User
	err = s.db.SelectContext(ctx, &found, s.db.Rebind(query), args...)
	return found, err
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserNameAndAvatar(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserNameAndAvatarQuery, user)
	return err
}

func (s *UserStore) UpdateNotificationPrefs(ctx context.Context, id uuid.UUID, prefs users.NotificationPrefs) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(updateNotificationPrefsQuery), prefs, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, fmt.Errorf("user: %w", bracket.ErrNotFound))
}
