package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/tournament-portal/internal/middleware"
	users "github.com/AdamBeresnev/tournament-portal/internal/user"
	"github.com/a-h/templ"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

func csrfToken(ctx context.Context) string {
	return middleware.GetCSRFToken(ctx)
}

func csrfField(ctx context.Context) string {
	return fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`,
		middleware.CSRFFormField, templ.EscapeString(csrfToken(ctx)))
}

// html collects markup for a component, escaping every interpolated value
type html struct {
	strings.Builder
}

func (h *html) raw(s string) {
	h.WriteString(s)
}

func (h *html) text(s string) {
	h.WriteString(templ.EscapeString(s))
}

func (h *html) printf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = templ.EscapeString(fmt.Sprint(a))
	}
	fmt.Fprintf(&h.Builder, format, escaped...)
}
