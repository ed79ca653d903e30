package store

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	createNotificationQuery = `
		INSERT INTO notifications (id, user_id, type, data) VALUES
		(:id, :user_id, :type, :data)
	`
	listNotificationsQuery = `
		SELECT * FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	countUnreadQuery          = "SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE"
	markNotificationQuery     = "UPDATE notifications SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?"
	markAllNotificationsQuery = "UPDATE notifications SET is_read = TRUE, read_at = CURRENT_TIMESTAMP WHERE user_id = ? AND is_read = FALSE"
)

type NotificationStore struct {
	db *sqlx.DB
}

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(ctx context.Context, n *users.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := s.db.NamedExecContext(ctx, createNotificationQuery, n)
	return err
}

// List returns the newest notifications of the user, read ones included
func (s *NotificationStore) List(ctx context.Context, userID uuid.UUID, limit int) ([]users.Notification, error) {
	var notifications []users.Notification
	err := s.db.SelectContext(ctx, &notifications, s.db.Rebind(listNotificationsQuery), userID, limit)
	return notifications, err
}

func (s *NotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(countUnreadQuery), userID)
	return count, err
}

// MarkRead only touches notifications owned by userID
func (s *NotificationStore) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(markNotificationQuery), id, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, fmt.Errorf("notification: %w", bracket.ErrNotFound))
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(markAllNotificationsQuery), userID)
	return err
}
