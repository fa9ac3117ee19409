// Package httpd adapts the cycle runner to net/http: one handler that turns
// a parsed request into a cycle run and wraps the resulting markup in a page
// shell with the session round-trip field.
package httpd

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/jask/panelkit/internal/cycle"
	"github.com/jask/panelkit/internal/wire"
)

// Handler serves a panel application at a single path.
type Handler struct {
	Runner *cycle.Runner
	Title  string
	Logger *slog.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	res, err := h.Runner.Run(r.Context(), r.Form)
	if err != nil {
		h.logger().Error("cycle failed", "err", err, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
<form method="post" action=%q>
%s
%s</form>
</body>
</html>
`, html.EscapeString(h.title()), r.URL.Path, SessionField(res.SessionID), res.Markup)
}

func (h *Handler) title() string {
	if h.Title != "" {
		return h.Title
	}
	return "panelkit"
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// SessionField emits the hidden input that round-trips the session id.
func SessionField(id string) string {
	return fmt.Sprintf("<input type=\"hidden\" name=%q value=%q>", wire.SessionParam, html.EscapeString(id))
}
