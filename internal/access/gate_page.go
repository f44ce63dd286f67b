package access

import (
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/vidhaven/vidhaven/internal/httputil"
)

var gatePageTemplate = template.Must(template.New("gate").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Enter Access Code — VidHaven</title>
    <style nonce="{{.Nonce}}">
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #0a1628; color: #fff;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            min-height: 100vh; display: flex; align-items: center; justify-content: center;
        }
        .card { background: #1e293b; border-radius: 12px; padding: 2rem; max-width: 360px; width: 100%; }
        h1 { font-size: 1.25rem; margin-bottom: 1rem; }
        input {
            width: 100%; padding: 0.6rem; border-radius: 6px; border: 1px solid #334155;
            background: #0f172a; color: #fff; margin-bottom: 1rem;
        }
        button, .get-code {
            display: block; width: 100%; text-align: center; padding: 0.6rem;
            border: none; border-radius: 6px; cursor: pointer; text-decoration: none;
        }
        button { background: #00b67a; color: #fff; }
        .get-code { background: transparent; color: #00b67a; margin-top: 0.75rem; }
        .error { color: #f87171; font-size: 0.875rem; margin-bottom: 0.75rem; display: none; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Enter your access code</h1>
        <p class="error" id="error">That code didn't work. Try again.</p>
        <form id="gate-form">
            <input id="code" type="text" placeholder="Access code" autocomplete="off" autofocus>
            <button type="submit">Unlock</button>
        </form>
        {{if .ButtonEnabled}}<a class="get-code" href="{{.ButtonURL}}">{{.ButtonText}}</a>{{end}}
    </div>
    <script nonce="{{.Nonce}}">
    document.getElementById('gate-form').addEventListener('submit', function(e) {
        e.preventDefault();
        fetch('/api/access/verify', {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify({ code: document.getElementById('code').value })
        }).then(function(r) { return r.json(); }).then(function(body) {
            if (body.verified) { window.location.reload(); }
            else { document.getElementById('error').style.display = 'block'; }
        });
    });
    </script>
</body>
</html>`))

type gatePageData struct {
	Nonce         string
	ButtonEnabled bool
	ButtonText    string
	ButtonURL     string
}

// renderGatePage serves the code-entry page to unverified browsers.
func (h *Handler) renderGatePage(w http.ResponseWriter, r *http.Request) {
	var cfg buttonConfig
	if err := h.db.QueryRow(r.Context(),
		`SELECT button_text, button_url, is_enabled FROM access_code_button_config WHERE id = 1`,
	).Scan(&cfg.ButtonText, &cfg.ButtonURL, &cfg.IsEnabled); err != nil {
		cfg = buttonConfig{}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	if err := gatePageTemplate.Execute(w, gatePageData{
		Nonce:         httputil.NonceFromContext(r.Context()),
		ButtonEnabled: cfg.IsEnabled && cfg.ButtonURL != "",
		ButtonText:    cfg.ButtonText,
		ButtonURL:     cfg.ButtonURL,
	}); err != nil {
		log.Printf("failed to render gate page: %v", err)
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
