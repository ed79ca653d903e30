package views

import (
	"context"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/a-h/templ"
)

func LoginPage(providers []string, allowGuest bool) templ.Component {
	return page("Log in", func(ctx context.Context, h *html) error {
		h.raw(`<section class="login"><h1>Log in</h1>`)
		for _, p := range providers {
			h.printf(`<a class="button" href="/auth/%s">Continue with %s</a>`, p, p)
		}
		if allowGuest {
			h.raw(`<form method="post" action="/auth/guest">`)
			h.raw(csrfField(ctx))
			h.raw(`<button type="submit">Continue as guest</button></form>`)
		}
		if len(providers) == 0 && !allowGuest {
			h.raw(`<p>No login method is configured.</p>`)
		}
		h.raw(`</section>`)
		return nil
	})
}

func Index(tournaments []bracket.Tournament) templ.Component {
	return page("Tournaments", func(ctx context.Context, h *html) error {
		h.raw(`<h1>Your tournaments</h1><a class="button" href="/tournaments/create">New tournament</a>`)
		if len(tournaments) == 0 {
			h.raw(`<p>No tournaments yet.</p>`)
			return nil
		}
		h.raw(`<ul class="tournaments">`)
		for _, t := range tournaments {
			h.printf(`<li><a href="/tournaments/%s">%s</a> <span class="status">%s</span></li>`, t.ID, t.Name, t.Status)
		}
		h.raw(`</ul>`)
		return nil
	})
}

func CreateTournamentPage() templ.Component {
	return page("New tournament", func(ctx context.Context, h *html) error {
		h.raw(`<h1>New tournament</h1>`)
		h.raw(`<form hx-post="/tournaments" method="post" action="/tournaments">`)
		h.raw(csrfField(ctx))
		h.raw(`<label>Name <input name="name" required maxlength="100"></label>`)
		h.raw(`<label>Format <select name="type">`)
		h.printf(`<option value="%s" selected>Single elimination</option>`, bracket.SingleElimination)
		h.printf(`<option value="%s">Double elimination</option>`, bracket.DoubleElimination)
		h.raw(`</select></label>`)
		h.raw(`<label>Participants, one per line <textarea name="participants" rows="8"></textarea></label>`)
		h.raw(`<label>Stream link <input type="url" name="stream_url" placeholder="https://www.twitch.tv/..."></label>`)
		h.raw(`<button type="submit">Create</button></form>`)
		return nil
	})
}
