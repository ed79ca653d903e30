package main

import (
	"log"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/tournament-portal/internal/config"
	"github.com/AdamBeresnev/tournament-portal/internal/db"
	"github.com/AdamBeresnev/tournament-portal/internal/middleware"
	"github.com/AdamBeresnev/tournament-portal/internal/notify"
	"github.com/AdamBeresnev/tournament-portal/internal/service"
	"github.com/AdamBeresnev/tournament-portal/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jmoiron/sqlx"
)

type application struct {
	cfg            *config.Config
	sessionManager *scs.SessionManager
	providers      []string

	userStore   *store.UserStore
	tournaments *service.TournamentService
	brackets    *service.BracketService
	matches     *service.MatchService
	users       *service.UserService
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	slog.SetDefault(cfg.Logger())

	database, err := db.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	sessionManager := newSessionManager(cfg, database)

	sender, err := notify.NewSender(cfg.MailDSN)
	if err != nil {
		log.Fatal("Invalid MAIL_DSN: ", err)
	}

	app := newApplication(cfg, database, sessionManager, sender)
	app.providers = middleware.InitAuth(cfg)

	router := newRouter(app)

	slog.Info("server starting", "addr", cfg.Addr, "base_url", cfg.BaseURL)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatal(err)
	}
}

// Sessions live in the database on SQLite. Postgres keeps them in memory, so they
// do not survive a restart.
func newSessionManager(cfg *config.Config, database *sqlx.DB) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	if cfg.DatabaseDriver == config.DriverSQLite {
		sessionManager.Store = sqlite3store.New(database.DB)
		return sessionManager
	}
	sessionManager.Store = memstore.New()
	slog.Info("using in-memory session store, sessions are lost on restart", "driver", cfg.DatabaseDriver)
	return sessionManager
}

func newApplication(cfg *config.Config, database *sqlx.DB, sessionManager *scs.SessionManager, sender notify.Sender) *application {
	userStore := store.NewUserStore(database)
	tournamentStore := store.NewTournamentStore(database)
	matchStore := store.NewMatchStore(database)
	bracketStore := store.NewBracketStore(database, matchStore)
	notificationStore := store.NewNotificationStore(database)

	directory := notify.NewDirectory(tournamentStore, userStore)
	notifier := notify.Multi{
		notify.NewInApp(directory, notificationStore),
		notify.NewMail(directory, sender, cfg.MailFrom, cfg.BaseURL),
	}

	advancer := service.NewAdvancer(matchStore, bracketStore, tournamentStore)

	return &application{
		cfg:            cfg,
		sessionManager: sessionManager,
		userStore:      userStore,
		tournaments:    service.NewTournamentService(database, tournamentStore, matchStore),
		brackets:       service.NewBracketService(database, tournamentStore, bracketStore, matchStore, notifier),
		matches:        service.NewMatchService(database, tournamentStore, matchStore, advancer, notifier),
		users:          service.NewUserService(database, userStore, notificationStore),
	}
}
