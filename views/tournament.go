package views

import (
	"context"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/service"
	"github.com/AdamBeresnev/tournament-portal/internal/video"
	"github.com/a-h/templ"
)

// TournamentView renders the bracket page. host is the page hostname, needed by stream embeds.
func TournamentView(data *service.TournamentData, host string) templ.Component {
	t := data.Tournament
	bd := PrepareBracketData(data.Registrations, data.Matches)

	return page(t.Name, func(ctx context.Context, h *html) error {
		h.printf(`<h1>%s</h1><p class="status">%s</p>`, t.Name, t.Status)

		if t.ChampionID != nil {
			if r, ok := bd.RegistrationMap[*t.ChampionID]; ok {
				h.printf(`<p class="champion">Champion: %s</p>`, r.Name)
			}
		}
		if data.NextMatchID != nil {
			h.printf(`<a class="button" href="/matches/%s">Next match</a>`, *data.NextMatchID)
		}
		stream(h, video.GetEmbedInfo(t.StreamURL, host))

		registrations(ctx, h, data)
		if data.CanManage && t.Status != bracket.TournamentCompleted {
			generateForm(ctx, h, t, len(data.Matches) > 0)
		}
		bracketGrid(h, bd)
		return nil
	})
}

func registrations(ctx context.Context, h *html, data *service.TournamentData) {
	t := data.Tournament
	open := t.Status == bracket.TournamentRegistration

	h.raw(`<section class="registrations"><h2>Participants</h2><ul>`)
	for _, r := range data.Registrations {
		h.printf(`<li class="%s">%s <span class="status">%s</span>`, r.Status, r.Name, r.Status)
		if data.CanManage && open && r.Status == bracket.RegistrationRegistered {
			h.printf(`<form method="post" action="/tournaments/%s/registrations/%s/approve">`, t.ID, r.ID)
			h.raw(csrfField(ctx))
			h.raw(`<button type="submit">Approve</button></form>`)
		}
		if open && r.Eligible() {
			h.printf(`<form method="post" action="/tournaments/%s/registrations/%s/withdraw">`, t.ID, r.ID)
			h.raw(csrfField(ctx))
			h.raw(`<button type="submit">Withdraw</button></form>`)
		}
		h.raw(`</li>`)
	}
	h.raw(`</ul>`)

	if open {
		h.printf(`<form method="post" action="/tournaments/%s/register">`, t.ID)
		h.raw(csrfField(ctx))
		h.raw(`<input name="name" placeholder="Team or player name" required maxlength="50">`)
		h.raw(`<button type="submit">Register</button></form>`)
	}
	h.raw(`</section>`)
}

func stream(h *html, embed video.EmbedInfo) {
	switch embed.Type {
	case video.EmbedTypeYouTube, video.EmbedTypeTwitch:
		h.printf(`<iframe class="stream" src="%s" allowfullscreen></iframe>`, embed.URL)
	case video.EmbedTypeVideo:
		h.printf(`<video class="stream" src="%s" controls></video>`, embed.URL)
	case video.EmbedTypeLink:
		h.printf(`<a class="button stream" href="%s" target="_blank" rel="noopener">Watch stream</a>`, embed.URL)
	}
}

func generateForm(ctx context.Context, h *html, t *bracket.Tournament, exists bool) {
	h.printf(`<form class="generate" method="post" action="/tournaments/%s/generate">`, t.ID)
	h.raw(csrfField(ctx))
	if exists {
		h.raw(`<label><input type="checkbox" name="force" value="true"> Discard recorded results</label>`)
		h.raw(`<button type="submit">Regenerate bracket</button>`)
	} else {
		h.raw(`<button type="submit">Generate bracket</button>`)
	}
	h.raw(`</form>`)
}

func bracketGrid(h *html, bd BracketData) {
	if len(bd.RoundNums) == 0 {
		return
	}
	roundCount := bd.RoundNums[len(bd.RoundNums)-1] + 1

	h.raw(`<section class="bracket">`)
	for _, round := range bd.RoundNums {
		h.printf(`<div class="round"><h3>%s</h3>`, RoundLabel(round, roundCount))
		for _, m := range bd.Rounds[round] {
			h.printf(`<a class="match %s" href="/matches/%s">`, m.Status, m.ID)
			for _, side := range []bracket.Side{bracket.FirstSlot, bracket.SecondSlot} {
				class := "side"
				if m.IsWinner(side) {
					class += " winner"
				} else if m.IsLoser(side) {
					class += " loser"
				}
				h.printf(`<span class="%s">%s</span>`, class, bd.SideName(&m, side))
			}
			h.raw(`</a>`)
		}
		h.raw(`</div>`)
	}
	h.raw(`</section>`)
}
