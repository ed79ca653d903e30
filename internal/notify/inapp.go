package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/google/uuid"
)

type NotificationCreator interface {
	Create(ctx context.Context, n *users.Notification) error
}

// InApp writes notifications to the inbox shown in the portal
type InApp struct {
	directory *Directory
	store     NotificationCreator
}

func NewInApp(directory *Directory, store NotificationCreator) *InApp {
	return &InApp{directory: directory, store: store}
}

// MatchPayload is the Data of match_result and next_match notifications
type MatchPayload struct {
	MatchID      uuid.UUID `json:"match_id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	Round        int       `json:"round"`
	Participant  string    `json:"participant"`
	Opponent     string    `json:"opponent"`
	Won          *bool     `json:"won,omitempty"`
	Score        string    `json:"score,omitempty"`
}

// DecodePayload reads the Data of a notification written by InApp
func DecodePayload(n users.Notification) (MatchPayload, error) {
	var p MatchPayload
	if err := json.Unmarshal([]byte(n.Data), &p); err != nil {
		return p, fmt.Errorf("failed to decode notification %s: %w", n.ID, err)
	}
	return p, nil
}

// Message is the one line summary shown in the inbox
func (p MatchPayload) Message(kind users.NotificationKind) string {
	switch kind {
	case users.NotifyMatchResult:
		result := "lost to"
		if p.Won != nil && *p.Won {
			result = "beat"
		}
		msg := fmt.Sprintf("%s %s %s", p.Participant, result, p.Opponent)
		if p.Score != "" {
			msg += " (" + p.Score + ")"
		}
		return msg
	case users.NotifyNextMatch:
		return fmt.Sprintf("%s plays %s next in round %d", p.Participant, p.Opponent, p.Round+1)
	default:
		return string(kind)
	}
}

func (n *InApp) NotifyMatchResult(ctx context.Context, match *bracket.Match) error {
	return n.send(ctx, match, users.NotifyMatchResult)
}

func (n *InApp) NotifyNextMatch(ctx context.Context, match *bracket.Match) error {
	return n.send(ctx, match, users.NotifyNextMatch)
}

func (n *InApp) send(ctx context.Context, match *bracket.Match, kind users.NotificationKind) error {
	recipients, err := n.directory.Recipients(ctx, match)
	if err != nil {
		return err
	}

	var errs []error
	for _, r := range recipients {
		if !r.User.NotificationPrefs.Enabled(kind) {
			continue
		}
		payload := MatchPayload{
			MatchID:      match.ID,
			TournamentID: match.TournamentID,
			Round:        match.Round,
			Participant:  r.Registration.Name,
			Opponent:     r.Opponent,
		}
		if kind == users.NotifyMatchResult {
			won := r.Won
			payload.Won = &won
			payload.Score = scoreLine(match)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		errs = append(errs, n.store.Create(ctx, &users.Notification{
			UserID: r.User.ID,
			Type:   kind,
			Data:   string(data),
		}))
	}
	return errors.Join(errs...)
}
