package views

import (
	"context"
	"log/slog"

	"github.com/AdamBeresnev/tournament-portal/internal/notify"
	"github.com/AdamBeresnev/tournament-portal/internal/service"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/a-h/templ"
	"github.com/google/uuid"
)

var prefLabels = []struct {
	kind  users.NotificationKind
	label string
}{
	{users.NotifyMatchResult, "Match results"},
	{users.NotifyNextMatch, "Upcoming matches"},
	{users.NotifyEmail, "Send notifications by email too"},
}

func NotificationsPage(inbox *service.Inbox, prefs users.NotificationPrefs) templ.Component {
	return page("Notifications", func(ctx context.Context, h *html) error {
		h.printf(`<h1>Notifications <span class="unread">%s</span></h1>`, inbox.Unread)

		if inbox.Unread > 0 {
			markReadForm(ctx, h, uuid.Nil, "Mark all as read")
		}

		h.raw(`<ul class="notifications">`)
		for _, n := range inbox.Notifications {
			class := "unread"
			if n.IsRead {
				class = "read"
			}
			h.printf(`<li class="%s">`, class)

			payload, err := notify.DecodePayload(n)
			if err != nil {
				slog.Warn("skipping unreadable notification", "id", n.ID, "error", err)
				h.text(string(n.Type))
			} else {
				h.printf(`<a href="/matches/%s">%s</a>`, payload.MatchID, payload.Message(n.Type))
			}
			h.printf(` <time>%s</time>`, n.CreatedAt.Format("2 Jan 15:04"))
			if !n.IsRead {
				markReadForm(ctx, h, n.ID, "Mark as read")
			}
			h.raw(`</li>`)
		}
		h.raw(`</ul>`)

		h.raw(`<form class="prefs" method="post" action="/notifications/prefs"><h2>Preferences</h2>`)
		h.raw(csrfField(ctx))
		for _, p := range prefLabels {
			checked := ""
			if prefs.Enabled(p.kind) {
				checked = " checked"
			}
			h.printf(`<label><input type="checkbox" name="%s" value="true"`, p.kind)
			h.raw(checked)
			h.printf(`> %s</label>`, p.label)
		}
		h.raw(`<button type="submit">Save</button></form>`)
		return nil
	})
}

func markReadForm(ctx context.Context, h *html, id uuid.UUID, label string) {
	h.raw(`<form method="post" action="/notifications/read">`)
	h.raw(csrfField(ctx))
	if id != uuid.Nil {
		h.printf(`<input type="hidden" name="id" value="%s">`, id)
	}
	h.printf(`<button type="submit">%s</button></form>`, label)
}
