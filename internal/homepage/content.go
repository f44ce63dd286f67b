package homepage

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vidhaven/vidhaven/internal/database"
	"github.com/vidhaven/vidhaven/internal/httputil"
	"github.com/vidhaven/vidhaven/internal/realtime"
	"github.com/vidhaven/vidhaven/internal/validate"
)

type Content struct {
	ID           string    `json:"id"`
	ContentType  string    `json:"contentType"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var validContentTypes = map[string]bool{
	"video":     true,
	"image":     true,
	"featured":  true,
	"instagram": true,
}

type Handler struct {
	db  database.DBTX
	hub *realtime.Hub
}

func NewHandler(db database.DBTX, hub *realtime.Hub) *Handler {
	return &Handler{db: db, hub: hub}
}

func (h *Handler) publish(action realtime.Action, table, id string) {
	if h.hub != nil {
		h.hub.Publish(realtime.Event{Table: table, Action: action, ID: id})
	}
}

const contentColumns = `id, content_type, title, description, url, thumbnail_url, display_order, created_at, updated_at`

type contentScanner interface {
	Scan(dest ...any) error
}

func scanContent(row contentScanner) (Content, error) {
	var c Content
	err := row.Scan(&c.ID, &c.ContentType, &c.Title, &c.Description, &c.URL,
		&c.ThumbnailURL, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns homepage items in display order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(),
		`SELECT `+contentColumns+` FROM homepage_content ORDER BY display_order, created_at`,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list homepage content")
		return
	}
	defer rows.Close()

	items := []Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to list homepage content")
			return
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list homepage content")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, items)
}

type upsertContentRequest struct {
	ContentType  string  `json:"contentType"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

func (req *upsertContentRequest) validate() string {
	if !validContentTypes[req.ContentType] {
		return "contentType must be one of video, image, link"
	}
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	if msg := validate.Title(req.Title); msg != "" {
		return msg
	}
	if msg := validate.Description(req.Description); msg != "" {
		return msg
	}
	if msg := validate.URL(req.URL); msg != "" {
		return msg
	}
	return ""
}

// Create appends the item at the end of the current ordering.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	c, err := scanContent(h.db.QueryRow(r.Context(),
		`INSERT INTO homepage_content (content_type, title, description, url, thumbnail_url, display_order)
		 VALUES ($1, $2, $3, $4, $5,
		         (SELECT COALESCE(MAX(display_order), 0) + 1 FROM homepage_content))
		 RETURNING `+contentColumns,
		req.ContentType, req.Title, req.Description, req.URL, req.ThumbnailURL,
	))
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create homepage content")
		return
	}

	h.publish("insert", "homepage_content", c.ID)
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "id")

	var req upsertContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	c, err := scanContent(h.db.QueryRow(r.Context(),
		`UPDATE homepage_content SET content_type = $1, title = $2, description = $3,
		 url = $4, thumbnail_url = $5, updated_at = now()
		 WHERE id = $6
		 RETURNING `+contentColumns,
		req.ContentType, req.Title, req.Description, req.URL, req.ThumbnailURL, contentID,
	))
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "homepage content not found")
		return
	}

	h.publish("update", "homepage_content", c.ID)
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "id")

	tag, err := h.db.Exec(r.Context(),
		`DELETE FROM homepage_content WHERE id = $1`,
		contentID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete homepage content")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "homepage content not found")
		return
	}

	h.publish("delete", "homepage_content", contentID)
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	OtherID string `json:"otherId"`
}

// Reorder swaps the display order of two items inside one transaction, so a
// concurrent reader never sees both items on the same position.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "id")

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OtherID == "" || req.OtherID == contentID {
		httputil.WriteError(w, http.StatusBadRequest, "otherId must name a different item")
		return
	}

	tx, err := h.db.Begin(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to reorder")
		return
	}
	defer tx.Rollback(r.Context())

	var orderA, orderB int
	if err := tx.QueryRow(r.Context(),
		`SELECT display_order FROM homepage_content WHERE id = $1 FOR UPDATE`,
		contentID,
	).Scan(&orderA); err != nil {
		httputil.WriteError(w, http.StatusNotFound, "homepage content not found")
		return
	}
	if err := tx.QueryRow(r.Context(),
		`SELECT display_order FROM homepage_content WHERE id = $1 FOR UPDATE`,
		req.OtherID,
	).Scan(&orderB); err != nil {
		httputil.WriteError(w, http.StatusNotFound, "homepage content not found")
		return
	}

	if _, err := tx.Exec(r.Context(),
		`UPDATE homepage_content SET display_order = $1, updated_at = now() WHERE id = $2`,
		orderB, contentID,
	); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to reorder")
		return
	}
	if _, err := tx.Exec(r.Context(),
		`UPDATE homepage_content SET display_order = $1, updated_at = now() WHERE id = $2`,
		orderA, req.OtherID,
	); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to reorder")
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to reorder")
		return
	}

	h.publish("update", "homepage_content", contentID)
	w.WriteHeader(http.StatusNoContent)
}
