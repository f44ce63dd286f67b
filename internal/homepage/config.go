package homepage

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vidhaven/vidhaven/internal/httputil"
)

type Config struct {
	SiteTitle       string    `json:"siteTitle"`
	SiteDescription string    `json:"siteDescription"`
	FeaturedVideoID *string   `json:"featuredVideoId,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	err := h.db.QueryRow(r.Context(),
		`SELECT site_title, site_description, featured_video_id, updated_at FROM homepage_config WHERE id = 1`,
	).Scan(&cfg.SiteTitle, &cfg.SiteDescription, &cfg.FeaturedVideoID, &cfg.UpdatedAt)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load homepage config")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

type saveConfigRequest struct {
	SiteTitle       string  `json:"siteTitle"`
	SiteDescription string  `json:"siteDescription"`
	FeaturedVideoID *string `json:"featuredVideoId"`
}

func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	var req saveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var cfg Config
	err := h.db.QueryRow(r.Context(),
		`UPDATE homepage_config SET site_title = $1, site_description = $2, featured_video_id = $3, updated_at = now()
		 WHERE id = 1
		 RETURNING site_title, site_description, featured_video_id, updated_at`,
		req.SiteTitle, req.SiteDescription, req.FeaturedVideoID,
	).Scan(&cfg.SiteTitle, &cfg.SiteDescription, &cfg.FeaturedVideoID, &cfg.UpdatedAt)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to save homepage config")
		return
	}

	h.publish("update", "homepage_config", "1")
	httputil.WriteJSON(w, http.StatusOK, cfg)
}
