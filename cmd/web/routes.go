package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/httputil"
	"github.com/AdamBeresnev/tournament-portal/internal/middleware"
	"github.com/AdamBeresnev/tournament-portal/internal/service"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/AdamBeresnev/tournament-portal/internal/utils"
	"github.com/AdamBeresnev/tournament-portal/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Read only JSON for external bracket widgets, no session involved
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: app.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))
		r.Get("/tournaments/{id}/bracket", app.apiBracket)
	})

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(middleware.LoadPrincipal(app.sessionManager, app.userStore))
		r.Use(middleware.CSRF(app.sessionManager))

		fileServer := http.FileServer(http.Dir("./static"))
		r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

		r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
			views.Render(w, r, views.LoginPage(app.providers, app.cfg.AllowGuest))
		})
		r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
			r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
			gothic.BeginAuthHandler(w, r)
		})
		r.Get("/auth/{provider}/callback", app.authCallback)
		if app.cfg.AllowGuest {
			r.Post("/auth/guest", app.guestLogin)
		}
		r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
			if err := app.sessionManager.Destroy(r.Context()); err != nil {
				httputil.InternalServerError(w, "Failed to destroy session", err)
				return
			}
			redirect(w, r, "/login")
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/", app.index)
			r.Get("/tournaments/create", func(w http.ResponseWriter, r *http.Request) {
				views.Render(w, r, views.CreateTournamentPage())
			})
			r.Post("/tournaments", app.createTournament)

			r.Route("/tournaments/{id}", func(r chi.Router) {
				r.Get("/", app.showTournament)
				r.Post("/register", app.register)
				r.Post("/registrations/{registrationID}/withdraw", app.withdraw)
				r.Post("/registrations/{registrationID}/approve", app.approve)
				r.Post("/generate", app.generate)
			})

			r.Get("/matches/{id}", app.showMatch)
			r.Post("/matches/{id}/result", app.submitResult)

			r.Get("/notifications", app.notifications)
			r.Post("/notifications/read", app.markRead)
			r.Post("/notifications/prefs", app.updatePrefs)
		})
	})

	return r
}

// principal is only called behind RequireAuth
func principal(r *http.Request) users.Principal {
	p, _ := middleware.GetPrincipal(r.Context())
	return p
}

func urlID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		httputil.NotFound(w, "Not found", err)
		return uuid.Nil, false
	}
	return id, true
}

func hostname(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.Host); err == nil {
		return host
	}
	return r.Host
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (app *application) authCallback(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (app *application) guestLogin(w http.ResponseWriter, r *http.Request) {
	user, err := app.users.EnsureGuestUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to login as guest", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	redirect(w, r, "/")
}

func (app *application) index(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.GetTournamentsForUser(r.Context(), principal(r))
	if err != nil {
		httputil.InternalServerError(w, "Failed to get tournaments", err)
		return
	}
	views.Render(w, r, views.Index(tournaments))
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	name := strings.TrimSpace(r.Form.Get("name"))
	if name == "" {
		httputil.BadRequest(w, "Tournament name is required", nil)
		return
	}
	tournamentType := bracket.TournamentType(r.Form.Get("type"))
	if tournamentType == "" {
		tournamentType = bracket.SingleElimination
	}

	id, err := app.tournaments.CreateTournament(r.Context(), principal(r), service.CreateTournamentInput{
		Name:         name,
		Type:         tournamentType,
		Participants: r.Form.Get("participants"),
		StreamURL:    r.Form.Get("stream_url"),
	})
	if err != nil {
		httputil.Error(w, "Failed to create tournament", err)
		return
	}
	redirect(w, r, fmt.Sprintf("/tournaments/%s", id))
}

func (app *application) showTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	data, err := app.tournaments.GetTournamentData(r.Context(), principal(r), id)
	if err != nil {
		httputil.Error(w, "Failed to get tournament", err)
		return
	}
	views.Render(w, r, views.TournamentView(data, hostname(r)))
}

func (app *application) register(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	name := strings.TrimSpace(r.Form.Get("name"))
	if name == "" || len(name) > 50 {
		httputil.BadRequest(w, "Name must be between 1 and 50 characters", nil)
		return
	}

	if _, err := app.tournaments.Register(r.Context(), principal(r), id, service.RegisterInput{Name: name}); err != nil {
		httputil.Error(w, "Failed to register", err)
		return
	}
	redirect(w, r, fmt.Sprintf("/tournaments/%s", id))
}

func (app *application) withdraw(w http.ResponseWriter, r *http.Request) {
	app.registrationAction(w, r, app.tournaments.Withdraw)
}

func (app *application) approve(w http.ResponseWriter, r *http.Request) {
	app.registrationAction(w, r, app.tournaments.Approve)
}

func (app *application) registrationAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, p users.Principal, id uuid.UUID) error) {
	tournamentID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	registrationID, ok := urlID(w, r, "registrationID")
	if !ok {
		return
	}

	if err := action(r.Context(), principal(r), registrationID); err != nil {
		httputil.Error(w, "Failed to update registration", err)
		return
	}
	redirect(w, r, fmt.Sprintf("/tournaments/%s", tournamentID))
}

func (app *application) generate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	force, _ := strconv.ParseBool(r.Form.Get("force"))
	if _, err := app.brackets.Generate(r.Context(), principal(r), id, service.GenerateOptions{Force: force}); err != nil {
		httputil.Error(w, "Failed to generate bracket", err)
		return
	}
	redirect(w, r, fmt.Sprintf("/tournaments/%s", id))
}

func (app *application) showMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	data, err := app.matches.GetMatchViewData(r.Context(), principal(r), id)
	if err != nil {
		httputil.Error(w, "Failed to get match data", err)
		return
	}
	views.Render(w, r, views.MatchView(data))
}

func (app *application) submitResult(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	input := service.SubmitResultInput{MatchID: id}
	var err error
	if input.Score1, err = utils.IntOrNil(r.Form.Get("score_1")); err != nil {
		httputil.BadRequest(w, "Invalid score", err)
		return
	}
	if input.Score2, err = utils.IntOrNil(r.Form.Get("score_2")); err != nil {
		httputil.BadRequest(w, "Invalid score", err)
		return
	}
	if input.Winner, err = service.ParseOutcome(r.Form.Get("winner")); err != nil {
		httputil.BadRequest(w, "Invalid winner", err)
		return
	}

	adv, err := app.matches.SubmitResult(r.Context(), principal(r), input)
	if err != nil {
		httputil.Error(w, "Failed to record result", err)
		return
	}

	if r.Header.Get("HX-Request") == "" {
		redirect(w, r, fmt.Sprintf("/matches/%s", id))
		return
	}

	data, err := app.matches.GetMatchViewData(r.Context(), principal(r), id)
	if err != nil {
		httputil.InternalServerError(w, "Failed to get match data", err)
		return
	}
	views.Render(w, r, views.MatchResult(adv, data.Tournament.ID.String()))
}

func (app *application) notifications(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	inbox, err := app.users.GetInbox(r.Context(), p)
	if err != nil {
		httputil.InternalServerError(w, "Failed to get notifications", err)
		return
	}

	var prefs users.NotificationPrefs
	if user := middleware.GetAuthenticatedUser(r.Context()); user != nil {
		prefs = user.NotificationPrefs
	}
	views.Render(w, r, views.NotificationsPage(inbox, prefs))
}

func (app *application) markRead(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	id := uuid.Nil
	if s := r.Form.Get("id"); s != "" {
		var err error
		if id, err = uuid.Parse(s); err != nil {
			httputil.BadRequest(w, "Invalid notification ID", err)
			return
		}
	}

	if err := app.users.MarkRead(r.Context(), principal(r), id); err != nil {
		httputil.Error(w, "Failed to mark notification read", err)
		return
	}
	redirect(w, r, "/notifications")
}

func (app *application) updatePrefs(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	// Unchecked boxes are not submitted at all
	prefs := users.NotificationPrefs{}
	for _, kind := range []users.NotificationKind{users.NotifyMatchResult, users.NotifyNextMatch, users.NotifyEmail} {
		prefs[kind] = r.Form.Get(string(kind)) == "true"
	}

	if err := app.users.UpdateNotificationPrefs(r.Context(), principal(r), prefs); err != nil {
		httputil.InternalServerError(w, "Failed to save preferences", err)
		return
	}
	redirect(w, r, "/notifications")
}

type bracketResponse struct {
	Tournament    *bracket.Tournament                `json:"tournament"`
	Version       int                                `json:"version"`
	Bracket       *bracket.Bracket                   `json:"bracket"`
	Matches       []bracket.Match                    `json:"matches"`
	Registrations map[uuid.UUID]bracket.Registration `json:"registrations"`
}

func (app *application) apiBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	data, err := app.brackets.GetBracketData(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get bracket", err)
		return
	}
	if data.Record == nil {
		httputil.NotFound(w, "Bracket has not been generated", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bracketResponse{
		Tournament:    data.Tournament,
		Version:       data.Record.Version,
		Bracket:       data.Snapshot,
		Matches:       data.Matches,
		Registrations: data.Registrations,
	}); err != nil {
		httputil.InternalServerError(w, "Failed to encode bracket", err)
	}
}
