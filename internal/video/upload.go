package video

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vidhaven/vidhaven/internal/httputil"
	"github.com/vidhaven/vidhaven/internal/validate"
)

type uploadRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
	AdsTiming   int    `json:"adsTiming"`
}

type uploadResponse struct {
	ID        string `json:"id"`
	UploadURL string `json:"uploadUrl"`
}

var allowedUploadTypes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

// Upload creates a video row in the uploading state and hands back a
// presigned PUT URL. The file goes straight to object storage; Finalize
// verifies it landed before the video becomes visible.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !allowedUploadTypes[req.ContentType] {
		httputil.WriteError(w, http.StatusBadRequest, "only video/mp4, video/webm, and video/quicktime uploads are supported")
		return
	}
	if req.FileSize <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "fileSize must be positive")
		return
	}
	if h.maxUploadBytes > 0 && req.FileSize > h.maxUploadBytes {
		httputil.WriteError(w, http.StatusBadRequest, "file too large")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled Video"
	}
	if msg := validate.Title(title); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	var videoID string
	err := h.db.QueryRow(r.Context(),
		`INSERT INTO videos (title, description, video_url, ads_timing, status)
		 VALUES ($1, $2, '', $3, 'uploading') RETURNING id`,
		title, req.Description, req.AdsTiming,
	).Scan(&videoID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create video")
		return
	}

	fileKey := videoFileKey(videoID, req.ContentType)
	if _, err := h.db.Exec(r.Context(),
		`UPDATE videos SET file_key = $1, content_type = $2 WHERE id = $3`,
		fileKey, req.ContentType, videoID,
	); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create video")
		return
	}

	uploadURL, err := h.storage.GenerateUploadURL(r.Context(), fileKey, req.ContentType, req.FileSize, 30*time.Minute)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate upload URL")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, uploadResponse{ID: videoID, UploadURL: uploadURL})
}

// Finalize checks the uploaded object exists with the expected size before
// flipping the video to ready.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	var fileKey string
	err := h.db.QueryRow(r.Context(),
		`SELECT file_key FROM videos WHERE id = $1 AND status = 'uploading'`,
		videoID,
	).Scan(&fileKey)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	size, _, err := h.storage.HeadObject(r.Context(), fileKey)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "could not verify upload")
		return
	}
	if size <= 0 || (h.maxUploadBytes > 0 && size > h.maxUploadBytes) {
		httputil.WriteError(w, http.StatusBadRequest, "uploaded file invalid size")
		return
	}

	tag, err := h.db.Exec(r.Context(),
		`UPDATE videos SET status = 'ready', updated_at = now()
		 WHERE id = $1 AND status = 'uploading'`,
		videoID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update video")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	h.publish("insert", "videos", videoID)
	w.WriteHeader(http.StatusNoContent)
}
