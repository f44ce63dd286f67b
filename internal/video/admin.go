package video

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vidhaven/vidhaven/internal/httputil"
	"github.com/vidhaven/vidhaven/internal/validate"
)

type upsertVideoRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	VideoURL     string  `json:"videoUrl"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	CustomURL    *string `json:"customUrl"`
	AdsTiming    int     `json:"adsTiming"`
}

func (req *upsertVideoRequest) validate() string {
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	if msg := validate.Title(req.Title); msg != "" {
		return msg
	}
	if msg := validate.Description(req.Description); msg != "" {
		return msg
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		return "videoUrl is required"
	}
	if req.CustomURL != nil && *req.CustomURL != "" {
		if msg := validate.CustomURL(*req.CustomURL); msg != "" {
			return msg
		}
	}
	if req.AdsTiming < 0 {
		return "adsTiming must not be negative"
	}
	return ""
}

// normalizedSlug turns an empty custom URL into NULL so the unique index
// only bites on real slugs.
func (req *upsertVideoRequest) normalizedSlug() *string {
	if req.CustomURL == nil || *req.CustomURL == "" {
		return nil
	}
	s := strings.ToLower(*req.CustomURL)
	return &s
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	v, err := scanVideo(h.db.QueryRow(r.Context(),
		`INSERT INTO videos (title, description, video_url, thumbnail_url, custom_url, ads_timing)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+videoColumns,
		req.Title, req.Description, req.VideoURL, req.ThumbnailURL, req.normalizedSlug(), req.AdsTiming,
	))
	if err != nil {
		if isUniqueViolation(err) {
			httputil.WriteError(w, http.StatusConflict, "custom URL already in use")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create video")
		return
	}

	h.publish("insert", "videos", v.ID)
	httputil.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	var req upsertVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	v, err := scanVideo(h.db.QueryRow(r.Context(),
		`UPDATE videos SET title = $1, description = $2, video_url = $3, thumbnail_url = $4,
		 custom_url = $5, ads_timing = $6, updated_at = now()
		 WHERE id = $7 AND status != 'deleted'
		 RETURNING `+videoColumns,
		req.Title, req.Description, req.VideoURL, req.ThumbnailURL, req.normalizedSlug(), req.AdsTiming, videoID,
	))
	if err != nil {
		if isUniqueViolation(err) {
			httputil.WriteError(w, http.StatusConflict, "custom URL already in use")
			return
		}
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	h.publish("update", "videos", v.ID)
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	var fileKey *string
	var thumbnailKey *string
	err := h.db.QueryRow(r.Context(),
		`UPDATE videos SET status = 'deleted', updated_at = now()
		 WHERE id = $1 AND status != 'deleted'
		 RETURNING file_key, thumbnail_key`,
		videoID,
	).Scan(&fileKey, &thumbnailKey)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	h.publish("delete", "videos", videoID)

	if fileKey != nil {
		key := *fileKey
		thumb := thumbnailKey
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := deleteWithRetry(ctx, h.storage, key, 3); err != nil {
				slog.Error("video: all delete retries failed", "key", key, "error", err)
				return
			}
			if thumb != nil {
				if err := deleteWithRetry(ctx, h.storage, *thumb, 3); err != nil {
					slog.Error("video: thumbnail delete failed", "key", *thumb, "error", err)
				}
			}
			if _, err := h.db.Exec(ctx,
				`UPDATE videos SET file_purged_at = now() WHERE id = $1`,
				videoID,
			); err != nil {
				slog.Error("video: failed to mark file_purged_at", "video_id", videoID, "error", err)
			}
		}()
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdminList includes every non-deleted video regardless of status.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(),
		`SELECT `+videoColumns+` FROM videos
		 WHERE status != 'deleted'
		 ORDER BY created_at DESC`,
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
