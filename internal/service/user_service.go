package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/store"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/AdamBeresnev/tournament-portal/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
)

// How many notifications the inbox shows
const inboxSize = 50

type UserService struct {
	db            *sqlx.DB
	store         *store.UserStore
	notifications *store.NotificationStore
}

func NewUserService(db *sqlx.DB, store *store.UserStore, notifications *store.NotificationStore) *UserService {
	return &UserService{db: db, store: store, notifications: notifications}
}

func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != displayName(gothUser) {
			user.AvatarURL = utils.Ptr(gothUser.AvatarURL)
			user.Username = displayName(gothUser)
			if err := s.store.UpdateUserNameAndAvatar(ctx, user); err != nil {
				slog.Warn("failed to refresh user profile", "user_id", user.ID, "error", err)
			}
		}
		return user, nil
	}

	if errors.Is(err, bracket.ErrNotFound) {
		newUser := &users.User{
			ID:                uuid.New(),
			Email:             gothUser.Email,
			Username:          displayName(gothUser),
			Provider:          &gothUser.Provider,
			ProviderID:        &gothUser.UserID,
			AvatarURL:         &gothUser.AvatarURL,
			NotificationPrefs: users.NotificationPrefs{},
		}
		if err := s.store.CreateUser(ctx, newUser); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return newUser, nil
	}

	return nil, err
}

func displayName(gothUser goth.User) string {
	if gothUser.NickName != "" {
		return gothUser.NickName
	}
	return gothUser.Name
}

// EnsureGuestUser returns the seeded guest account, recreating it if it was removed
func (s *UserService) EnsureGuestUser(ctx context.Context) (*users.User, error) {
	user, err := s.store.GetUser(ctx, users.GuestID)
	if err == nil {
		return user, nil
	}

	if errors.Is(err, bracket.ErrNotFound) {
		guestUser := &users.User{
			ID:                users.GuestID,
			Email:             "guest@tournament-portal.local",
			Username:          "Guest User",
			IsAdmin:           true,
			NotificationPrefs: users.NotificationPrefs{},
		}
		err := s.store.CreateUser(ctx, guestUser)
		return guestUser, err
	}
	return nil, err
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return s.store.GetUser(ctx, id)
}

type Inbox struct {
	Notifications []users.Notification
	Unread        int
}

func (s *UserService) GetInbox(ctx context.Context, p users.Principal) (*Inbox, error) {
	notifications, err := s.notifications.List(ctx, p.UserID, inboxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.notifications.CountUnread(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	return &Inbox{Notifications: notifications, Unread: unread}, nil
}

func (s *UserService) CountUnread(ctx context.Context, p users.Principal) (int, error) {
	return s.notifications.CountUnread(ctx, p.UserID)
}

// MarkRead marks one notification, or all of them when id is uuid.Nil
func (s *UserService) MarkRead(ctx context.Context, p users.Principal, id uuid.UUID) error {
	if id == uuid.Nil {
		return s.notifications.MarkAllRead(ctx, p.UserID)
	}
	return s.notifications.MarkRead(ctx, p.UserID, id)
}

func (s *UserService) UpdateNotificationPrefs(ctx context.Context, p users.Principal, prefs users.NotificationPrefs) error {
	return s.store.UpdateNotificationPrefs(ctx, p.UserID, prefs)
}
