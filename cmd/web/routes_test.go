package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/config"
	"github.com/AdamBeresnev/tournament-portal/internal/db"
	"github.com/AdamBeresnev/tournament-portal/internal/notify"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type testClient struct {
	t      *testing.T
	server *httptest.Server
	http   *http.Client
	token  string
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		BaseURL:         "http://localhost",
		DatabaseDriver:  config.DriverSQLite,
		DatabaseURL:     fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", filepath.Join(t.TempDir(), "web.db")),
		SessionLifetime: time.Hour,
		AllowGuest:      true,
		MailFrom:        "test@example.com",
		CORSOrigins:     []string{"*"},
	}

	database, err := db.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database, "../../migrations"))

	sessionManager := newSessionManager(cfg, database)
	t.Cleanup(sessionManager.Store.(*sqlite3store.SQLite3Store).StopCleanup)

	app := newApplication(cfg, database, sessionManager, notify.LogSender{})
	server := httptest.NewServer(newRouter(app))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:      t,
		server: server,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) get(path string) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.http.Get(c.server.URL + path)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	if m := csrfPattern.FindStringSubmatch(string(body)); m != nil {
		c.token = m[1]
	}
	return resp, string(body)
}

func (c *testClient) post(path string, form url.Values) *http.Response {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if c.token != "" && form.Get("csrf_token") == "" {
		form.Set("csrf_token", c.token)
	}
	resp, err := c.http.PostForm(c.server.URL+path, form)
	require.NoError(c.t, err)
	resp.Body.Close()
	return resp
}

func (c *testClient) bracket(tournamentID string) bracketResponse {
	c.t.Helper()
	resp, body := c.get("/api/tournaments/" + tournamentID + "/bracket")
	require.Equal(c.t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(c.t, "application/json", resp.Header.Get("Content-Type"))

	var data bracketResponse
	require.NoError(c.t, json.Unmarshal([]byte(body), &data))
	return data
}

func (c *testClient) loginAsGuest() {
	c.t.Helper()
	c.get("/login")
	require.NotEmpty(c.t, c.token)
	resp := c.post("/auth/guest", nil)
	require.Equal(c.t, http.StatusSeeOther, resp.StatusCode)
}

func TestAnonymousRequestsGoToLogin(t *testing.T) {
	c := newTestClient(t, newTestServer(t))

	resp, _ := c.get("/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, body := c.get("/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Continue as guest")
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	c := newTestClient(t, newTestServer(t))
	c.loginAsGuest()

	resp := c.post("/tournaments", url.Values{"name": {"Cup"}, "csrf_token": {"forged"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTournamentFlow(t *testing.T) {
	server := newTestServer(t)
	c := newTestClient(t, server)
	c.loginAsGuest()

	resp := c.post("/tournaments", url.Values{
		"name":         {"Spring Cup"},
		"participants": {"Red\nBlue\nGreen\n"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/tournaments/"))
	tournamentID := strings.TrimPrefix(location, "/tournaments/")

	// No bracket yet
	resp, _ = c.get("/api/tournaments/" + tournamentID + "/bracket")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := c.get(location)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Spring Cup")
	assert.Contains(t, body, "Generate bracket")

	resp = c.post(location+"/generate", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	data := c.bracket(tournamentID)
	assert.Equal(t, 1, data.Version)
	assert.Equal(t, 4, data.Bracket.SlotCount)
	assert.Len(t, data.Matches, 3)
	assert.Len(t, data.Registrations, 3)

	// Registration is closed once the bracket exists
	resp = c.post(location+"/register", url.Values{"name": {"Late"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	for played := 0; ; played++ {
		require.Less(t, played, 3)

		var ready *bracket.Match
		for _, m := range c.bracket(tournamentID).Matches {
			if m.Ready() {
				ready = &m
				break
			}
		}
		if ready == nil {
			break
		}

		resp, _ = c.get(fmt.Sprintf("/matches/%s", ready.ID))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = c.post(fmt.Sprintf("/matches/%s/result", ready.ID), url.Values{
			"score_1": {"3"},
			"score_2": {"1"},
			"winner":  {"a"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)

		// The same result can't be recorded twice
		resp = c.post(fmt.Sprintf("/matches/%s/result", ready.ID), url.Values{"winner": {"a"}})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	}

	data = c.bracket(tournamentID)
	assert.Equal(t, bracket.TournamentCompleted, data.Tournament.Status)
	require.NotNil(t, data.Tournament.ChampionID)

	resp, body = c.get(location)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Champion: ")
}

func TestSubmitResultValidation(t *testing.T) {
	c := newTestClient(t, newTestServer(t))
	c.loginAsGuest()

	resp := c.post("/tournaments", url.Values{"name": {"Duel"}, "participants": {"Red\nBlue"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.Equal(t, http.StatusSeeOther, c.post(location+"/generate", nil).StatusCode)

	final := c.bracket(strings.TrimPrefix(location, "/tournaments/")).Matches[0]
	path := fmt.Sprintf("/matches/%s/result", final.ID)

	testCases := []struct {
		name         string
		form         url.Values
		expectedCode int
	}{
		{name: "draw", form: url.Values{"winner": {"draw"}}, expectedCode: http.StatusBadRequest},
		{name: "no winner", form: url.Values{}, expectedCode: http.StatusBadRequest},
		{name: "not a number", form: url.Values{"winner": {"a"}, "score_1": {"three"}}, expectedCode: http.StatusBadRequest},
		{name: "negative", form: url.Values{"winner": {"a"}, "score_1": {"-1"}}, expectedCode: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedCode, c.post(path, tc.form).StatusCode)
		})
	}

	resp, _ = c.get("/matches/not-a-uuid")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotificationPreferences(t *testing.T) {
	c := newTestClient(t, newTestServer(t))
	c.loginAsGuest()

	resp, body := c.get("/notifications")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="email" value="true" checked`)

	resp = c.post("/notifications/prefs", url.Values{"match_result": {"true"}, "next_match": {"true"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = c.get("/notifications")
	assert.NotContains(t, body, `name="email" value="true" checked`)
	assert.Contains(t, body, `name="match_result" value="true" checked`)

	resp = c.post("/notifications/read", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestNewSessionManager(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	t.Run("sqlite keeps sessions in the database", func(t *testing.T) {
		cfg := &config.Config{
			DatabaseDriver:  config.DriverSQLite,
			DatabaseURL:     filepath.Join(t.TempDir(), "sessions.db"),
			SessionLifetime: time.Hour,
		}
		database, err := db.InitDB(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })

		sm := newSessionManager(cfg, database)
		store, ok := sm.Store.(*sqlite3store.SQLite3Store)
		require.True(t, ok)
		store.StopCleanup()
		assert.Equal(t, time.Hour, sm.Lifetime)
		assert.NotContains(t, logs.String(), "in-memory session store")
	})

	t.Run("postgres falls back to memory and says so", func(t *testing.T) {
		cfg := &config.Config{DatabaseDriver: config.DriverPostgres, SessionLifetime: 2 * time.Hour}

		sm := newSessionManager(cfg, nil)
		assert.IsType(t, &memstore.MemStore{}, sm.Store)
		assert.Equal(t, 2*time.Hour, sm.Lifetime)
		assert.Contains(t, logs.String(), "using in-memory session store")
		assert.Contains(t, logs.String(), "driver=postgres")
	})
}
