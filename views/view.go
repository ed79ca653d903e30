package views

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	return component.Render(r.Context(), w)
}

func component(build func(ctx context.Context, h *html) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var h html
		if err := build(ctx, &h); err != nil {
			return err
		}
		_, err := io.WriteString(w, h.String())
		return err
	})
}

// page wraps content in the site layout
func page(title string, content func(ctx context.Context, h *html) error) templ.Component {
	return component(func(ctx context.Context, h *html) error {
		h.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.printf("<title>%s | Tournament Portal</title>", title)
		h.raw(`<link rel="stylesheet" href="/static/style.css">`)
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`)
		h.raw("</head>")
		h.printf(`<body hx-headers='{"X-CSRF-Token": "%s"}'>`, csrfToken(ctx))

		h.raw(`<nav><a href="/">Tournament Portal</a>`)
		if user := GetUser(ctx); user != nil {
			h.raw(`<a href="/notifications">Notifications</a>`)
			h.printf(`<span class="user">%s</span>`, user.Username)
			h.raw(`<form method="post" action="/logout">`)
			h.raw(csrfField(ctx))
			h.raw(`<button type="submit">Log out</button></form>`)
		}
		h.raw("</nav><main>")

		if err := content(ctx, h); err != nil {
			return err
		}

		h.raw("</main></body></html>")
		return nil
	})
}
