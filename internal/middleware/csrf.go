package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

const (
	CSRFTokenKey ContextKey = "csrfToken"

	CSRFFormField = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"

	sessionCSRFKey = "csrfToken"
)

// CSRF keeps a per session token and rejects state changing requests that
// don't echo it back in the form or the X-CSRF-Token header
func CSRF(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionManager.GetString(r.Context(), sessionCSRFKey)
			if token == "" {
				var err error
				token, err = newCSRFToken()
				if err != nil {
					slog.Error("failed to generate csrf token", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				sessionManager.Put(r.Context(), sessionCSRFKey, token)
			}

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				sent := r.Header.Get(CSRFHeader)
				if sent == "" {
					sent = r.PostFormValue(CSRFFormField)
				}
				if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
					slog.Warn("csrf token mismatch", "method", r.Method, "path", r.URL.Path)
					http.Error(w, "Forbidden", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), CSRFTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetCSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
