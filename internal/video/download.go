package video

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vidhaven/vidhaven/internal/httputil"
)

type DownloadConfig struct {
	IsEnabled   bool      `json:"isEnabled"`
	ButtonText  string    `json:"buttonText"`
	URLTemplate string    `json:"urlTemplate"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (h *Handler) GetDownloadConfig(w http.ResponseWriter, r *http.Request) {
	var cfg DownloadConfig
	err := h.db.QueryRow(r.Context(),
		`SELECT is_enabled, button_text, url_template, updated_at FROM download_config WHERE id = 1`,
	).Scan(&cfg.IsEnabled, &cfg.ButtonText, &cfg.URLTemplate, &cfg.UpdatedAt)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load download config")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

type saveDownloadConfigRequest struct {
	IsEnabled   bool   `json:"isEnabled"`
	ButtonText  string `json:"buttonText"`
	URLTemplate string `json:"urlTemplate"`
}

func (h *Handler) SaveDownloadConfig(w http.ResponseWriter, r *http.Request) {
	var req saveDownloadConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ButtonText == "" {
		req.ButtonText = "Download"
	}

	var cfg DownloadConfig
	err := h.db.QueryRow(r.Context(),
		`UPDATE download_config SET is_enabled = $1, button_text = $2, url_template = $3, updated_at = now()
		 WHERE id = 1
		 RETURNING is_enabled, button_text, url_template, updated_at`,
		req.IsEnabled, req.ButtonText, req.URLTemplate,
	).Scan(&cfg.IsEnabled, &cfg.ButtonText, &cfg.URLTemplate, &cfg.UpdatedAt)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to save download config")
		return
	}

	h.publish("update", "download_config", "1")
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// Download resolves the download URL for a video. Storage-hosted files get a
// presigned attachment URL; external videos fall back to the configured URL
// template with {id} and {url} substituted.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	var enabled bool
	if err := h.db.QueryRow(r.Context(),
		`SELECT is_enabled FROM download_config WHERE id = 1`,
	).Scan(&enabled); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load download config")
		return
	}
	if !enabled {
		httputil.WriteError(w, http.StatusForbidden, "downloads are disabled")
		return
	}

	var title string
	var videoURL string
	var fileKey *string
	var contentType string
	err := h.db.QueryRow(r.Context(),
		`SELECT title, video_url, file_key, COALESCE(content_type, '') FROM videos
		 WHERE id = $1 AND status = 'ready'`,
		videoID,
	).Scan(&title, &videoURL, &fileKey, &contentType)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	if fileKey != nil {
		filename := title + extensionForContentType(contentType)
		downloadURL, err := h.storage.GenerateDownloadURLWithDisposition(r.Context(), *fileKey, filename, 1*time.Hour)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to generate download URL")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"downloadUrl": downloadURL})
		return
	}

	var template string
	if err := h.db.QueryRow(r.Context(),
		`SELECT url_template FROM download_config WHERE id = 1`,
	).Scan(&template); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load download config")
		return
	}

	downloadURL := videoURL
	if template != "" {
		downloadURL = strings.NewReplacer("{id}", videoID, "{url}", videoURL).Replace(template)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"downloadUrl": downloadURL})
}
