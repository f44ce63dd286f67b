package video

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"
	"github.com/vidhaven/vidhaven/internal/httputil"
)

type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	CustomURL    *string   `json:"customUrl,omitempty"`
	AdsTiming    int       `json:"adsTiming"`
	ViewCount    int64     `json:"viewCount"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

const videoColumns = `id, title, description, video_url, thumbnail_url, custom_url, ads_timing, view_count, status, created_at, updated_at`

type videoScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row videoScanner) (Video, error) {
	var v Video
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.CustomURL, &v.AdsTiming, &v.ViewCount, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// List returns ready videos newest-first. limit/offset paginate; limit caps
// at 100.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}

	rows, err := h.db.Query(r.Context(),
		`SELECT `+videoColumns+` FROM videos
		 WHERE status = 'ready'
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	defer rows.Close()

	videos := []Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to list videos")
			return
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, videos)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	v, err := scanVideo(h.db.QueryRow(r.Context(),
		`SELECT `+videoColumns+` FROM videos WHERE id = $1 AND status = 'ready'`,
		videoID,
	))
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) GetByCustomURL(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "customUrl")

	v, err := scanVideo(h.db.QueryRow(r.Context(),
		`SELECT `+videoColumns+` FROM videos WHERE custom_url = $1 AND status = 'ready'`,
		slug,
	))
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, v)
}

// recordView bumps the view counter and logs the viewer. The increment is a
// single UPDATE so concurrent views never lose counts. Called once per
// successful watch-page render; failures are logged, never surfaced.
func (h *Handler) recordView(ctx context.Context, videoID, ip, uaString, referrer string) {
	if _, err := h.db.Exec(ctx,
		`UPDATE videos SET view_count = view_count + 1 WHERE id = $1`,
		videoID,
	); err != nil {
		slog.Error("video: failed to increment view count", "video_id", videoID, "error", err)
		return
	}

	ua := useragent.New(uaString)
	browser, _ := ua.Browser()
	device := "desktop"
	if ua.Mobile() {
		device = "mobile"
	}

	var country, city string
	if h.geo != nil {
		country, city = h.geo.Lookup(ip)
	}

	if _, err := h.db.Exec(ctx,
		`INSERT INTO video_views (video_id, viewer_hash, referrer, browser, os, device, country, city)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		videoID, viewerHash(ip, uaString), referrer, browser, ua.OS(), device, country, city,
	); err != nil {
		slog.Error("video: failed to record view", "video_id", videoID, "error", err)
		return
	}

	h.publish("update", "videos", videoID)
}
