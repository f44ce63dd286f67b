package homepage

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vidhaven/vidhaven/internal/httputil"
	"github.com/vidhaven/vidhaven/internal/validate"
)

type SEOSettings struct {
	ID          string    `json:"id"`
	Page        string    `json:"page"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Keywords    string    `json:"keywords"`
	OGImage     string    `json:"ogImage"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const seoColumns = `id, page, title, description, keywords, og_image, updated_at`

func (h *Handler) ListSEO(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(),
		`SELECT `+seoColumns+` FROM seo_settings ORDER BY page`,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list SEO settings")
		return
	}
	defer rows.Close()

	settings := []SEOSettings{}
	for rows.Next() {
		var s SEOSettings
		if err := rows.Scan(&s.ID, &s.Page, &s.Title, &s.Description, &s.Keywords, &s.OGImage, &s.UpdatedAt); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to list SEO settings")
			return
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list SEO settings")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) GetSEO(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")

	var s SEOSettings
	err := h.db.QueryRow(r.Context(),
		`SELECT `+seoColumns+` FROM seo_settings WHERE page = $1`,
		page,
	).Scan(&s.ID, &s.Page, &s.Title, &s.Description, &s.Keywords, &s.OGImage, &s.UpdatedAt)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "no SEO settings for page")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, s)
}

type saveSEORequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	OGImage     string `json:"ogImage"`
}

// SaveSEO upserts the settings row for a page.
func (h *Handler) SaveSEO(w http.ResponseWriter, r *http.Request) {
	page := strings.TrimSpace(chi.URLParam(r, "page"))
	if page == "" {
		httputil.WriteError(w, http.StatusBadRequest, "page is required")
		return
	}

	var req saveSEORequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validate.SEOTitle(req.Title); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validate.SEODescription(req.Description); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validate.SEOKeywords(req.Keywords); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	var s SEOSettings
	err := h.db.QueryRow(r.Context(),
		`INSERT INTO seo_settings (page, title, description, keywords, og_image)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (page)
		 DO UPDATE SET title = $2, description = $3, keywords = $4, og_image = $5, updated_at = now()
		 RETURNING `+seoColumns,
		page, req.Title, req.Description, req.Keywords, req.OGImage,
	).Scan(&s.ID, &s.Page, &s.Title, &s.Description, &s.Keywords, &s.OGImage, &s.UpdatedAt)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to save SEO settings")
		return
	}

	h.publish("update", "seo_settings", s.ID)
	httputil.WriteJSON(w, http.StatusOK, s)
}
