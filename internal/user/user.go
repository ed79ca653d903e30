package users

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

// GuestID is the seeded admin account used when guest login is enabled
var GuestID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type User struct {
	ID                uuid.UUID         `db:"id"`
	Email             string            `db:"email"`
	Username          string            `db:"username"`
	IsAdmin           bool              `db:"is_admin"`
	TeamID            *uuid.UUID        `db:"team_id"`
	CreatedAt         time.Time         `db:"created_at"`
	Provider          *string           `db:"provider"`
	ProviderID        *string           `db:"provider_id"`
	AvatarURL         *string           `db:"avatar_url"`
	NotificationPrefs NotificationPrefs `db:"notification_prefs"`
}

func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, IsAdmin: u.IsAdmin, TeamID: u.TeamID}
}

// Principal is who is making a request, as far as permission checks care
type Principal struct {
	UserID  uuid.UUID
	IsAdmin bool
	TeamID  *uuid.UUID
}

type NotificationKind string

const (
	NotifyMatchResult NotificationKind = "match_result"
	NotifyNextMatch   NotificationKind = "next_match"
	NotifyEmail       NotificationKind = "email"
)

// NotificationPrefs holds the kinds a user opted out of. Anything missing is enabled.
type NotificationPrefs map[NotificationKind]bool

func (p NotificationPrefs) Enabled(kind NotificationKind) bool {
	enabled, ok := p[kind]
	return !ok || enabled
}

func (p NotificationPrefs) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *NotificationPrefs) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = NotificationPrefs{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported notification prefs type %T", src)
	}

	prefs := NotificationPrefs{}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return fmt.Errorf("invalid notification prefs: %w", err)
	}
	*p = prefs
	return nil
}

// Notification is an in-app message shown in the user's inbox. Data is a JSON object
// whose fields depend on Type.
type Notification struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	UserID    uuid.UUID        `db:"user_id" json:"user_id"`
	Type      NotificationKind `db:"type" json:"type"`
	Data      string           `db:"data" json:"data"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	ReadAt    *time.Time       `db:"read_at" json:"read_at"`
}
