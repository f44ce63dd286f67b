package access

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidhaven/vidhaven/internal/httputil"
	"github.com/vidhaven/vidhaven/internal/realtime"
)

const maxButtonTextLength = 100
const maxButtonURLLength = 500

type buttonConfig struct {
	ButtonText string `json:"buttonText"`
	ButtonURL  string `json:"buttonUrl"`
	IsEnabled  bool   `json:"isEnabled"`
}

// GetButtonConfig handles GET /api/access/button-config. Public: the landing
// page renders the "get access code" button from it.
func (h *Handler) GetButtonConfig(w http.ResponseWriter, r *http.Request) {
	var cfg buttonConfig
	err := h.db.QueryRow(r.Context(),
		`SELECT button_text, button_url, is_enabled FROM access_code_button_config WHERE id = 1`,
	).Scan(&cfg.ButtonText, &cfg.ButtonURL, &cfg.IsEnabled)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load button config")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// SaveButtonConfig handles PUT /api/admin/access/button-config.
func (h *Handler) SaveButtonConfig(w http.ResponseWriter, r *http.Request) {
	var req buttonConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ButtonText = strings.TrimSpace(req.ButtonText)
	if req.ButtonText == "" {
		httputil.WriteError(w, http.StatusBadRequest, "button text is required")
		return
	}
	if len(req.ButtonText) > maxButtonTextLength {
		httputil.WriteError(w, http.StatusBadRequest, "button text is too long")
		return
	}
	if len(req.ButtonURL) > maxButtonURLLength {
		httputil.WriteError(w, http.StatusBadRequest, "button URL is too long")
		return
	}

	_, err := h.db.Exec(r.Context(),
		`UPDATE access_code_button_config
		 SET button_text = $1, button_url = $2, is_enabled = $3, updated_at = now()
		 WHERE id = 1`,
		req.ButtonText, req.ButtonURL, req.IsEnabled,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to save button config")
		return
	}

	h.hub.Publish(realtime.Event{Table: "access_code_button_config", Action: realtime.ActionUpdate})
	httputil.WriteJSON(w, http.StatusOK, req)
}
