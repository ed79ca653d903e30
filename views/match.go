package views

import (
	"context"
	"strconv"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/service"
	"github.com/a-h/templ"
)

func MatchView(data *service.MatchData) templ.Component {
	m := data.Match
	names := [2]string{sideName(m, bracket.FirstSlot, data.Participant1), sideName(m, bracket.SecondSlot, data.Participant2)}

	return page(names[0]+" vs "+names[1], func(ctx context.Context, h *html) error {
		h.printf(`<a href="/tournaments/%s">%s</a>`, data.Tournament.ID, data.Tournament.Name)
		h.printf(`<h1>%s vs %s</h1>`, names[0], names[1])
		h.printf(`<p class="round">Round %s, match %s</p>`, m.Round+1, m.MatchIndex+1)

		switch {
		case m.Status == bracket.MatchCompleted && m.IsBye():
			h.raw(`<p>Decided by a bye.</p>`)
		case m.Status == bracket.MatchCompleted:
			winner := names[0]
			if m.IsWinner(bracket.SecondSlot) {
				winner = names[1]
			}
			h.printf(`<p class="result">%s won`, winner)
			if m.Score1 != nil && m.Score2 != nil {
				h.printf(` %s - %s`, *m.Score1, *m.Score2)
			}
			h.raw(`</p>`)
		case !m.Ready():
			h.raw(`<p>Waiting for the previous round.</p>`)
		case data.CanManage:
			resultForm(ctx, h, m, names)
		default:
			h.raw(`<p>Waiting for the result.</p>`)
		}

		if data.NextMatchID != nil {
			h.printf(`<a class="button" href="/matches/%s">Next match</a>`, *data.NextMatchID)
		}
		return nil
	})
}

func resultForm(ctx context.Context, h *html, m *bracket.Match, names [2]string) {
	h.printf(`<form class="result" hx-post="/matches/%s/result" method="post" action="/matches/%s/result">`, m.ID, m.ID)
	h.raw(csrfField(ctx))
	h.printf(`<label>%s <input type="number" name="score_1" min="0"></label>`, names[0])
	h.printf(`<label>%s <input type="number" name="score_2" min="0"></label>`, names[1])
	h.printf(`<label><input type="radio" name="winner" value="a" required> %s wins</label>`, names[0])
	h.printf(`<label><input type="radio" name="winner" value="b"> %s wins</label>`, names[1])
	h.raw(`<button type="submit">Submit result</button></form>`)
}

func sideName(m *bracket.Match, side bracket.Side, r *bracket.Registration) string {
	switch {
	case m.IsByeSide(side):
		return "BYE"
	case r == nil:
		return "TBD"
	default:
		return r.Name
	}
}

// MatchResult is the fragment shown after a result was recorded
func MatchResult(adv *service.Advancement, tournamentID string) templ.Component {
	return component(func(ctx context.Context, h *html) error {
		h.raw(`<div class="advancement">`)
		switch {
		case adv.TournamentCompleted:
			h.raw(`<p>The tournament is over.</p>`)
		case len(adv.Next) > 0 && adv.Next[0].Ready():
			h.printf(`<p>The next match is ready. <a href="/matches/%s">Go to it</a></p>`, adv.Next[0].ID)
		default:
			h.raw(`<p>Result recorded.</p>`)
		}
		if n := len(adv.AutoCompleted); n > 0 {
			h.printf(`<p>%s match(es) were decided by a bye.</p>`, strconv.Itoa(n))
		}
		h.printf(`<a href="/tournaments/%s">Back to the bracket</a></div>`, tournamentID)
		return nil
	})
}
