package video

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vidhaven/vidhaven/internal/database"
	"github.com/vidhaven/vidhaven/internal/geoip"
	"github.com/vidhaven/vidhaven/internal/realtime"
)

type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string, contentLength int64, expiry time.Duration) (string, error)
	GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	GenerateDownloadURLWithDisposition(ctx context.Context, key string, filename string, expiry time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
	HeadObject(ctx context.Context, key string) (int64, string, error)
}

type Handler struct {
	db             database.DBTX
	storage        ObjectStorage
	hub            *realtime.Hub
	geo            *geoip.Resolver
	baseURL        string
	maxUploadBytes int64
}

func NewHandler(db database.DBTX, s ObjectStorage, hub *realtime.Hub, geo *geoip.Resolver, baseURL string, maxUploadBytes int64) *Handler {
	return &Handler{
		db:             db,
		storage:        s,
		hub:            hub,
		geo:            geo,
		baseURL:        baseURL,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) publish(action realtime.Action, table, id string) {
	if h.hub != nil {
		h.hub.Publish(realtime.Event{Table: table, Action: action, ID: id})
	}
}

// publishKeyed carries a row key so subscribers filtered to one video only
// see that video's changes.
func (h *Handler) publishKeyed(action realtime.Action, table, id, key string) {
	if h.hub != nil {
		h.hub.Publish(realtime.Event{Table: table, Action: action, ID: id, Key: key})
	}
}

func extensionForContentType(ct string) string {
	switch ct {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ".webm"
	}
}

func videoFileKey(videoID, contentType string) string {
	return fmt.Sprintf("videos/%s%s", videoID, extensionForContentType(contentType))
}

func thumbnailFileKey(videoID, contentType string) string {
	return fmt.Sprintf("thumbnails/%s%s", videoID, extensionForContentType(contentType))
}

func deleteWithRetry(ctx context.Context, storage ObjectStorage, key string, maxAttempts int) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		lastErr = storage.DeleteObject(ctx, key)
		if lastErr == nil {
			return nil
		}
		slog.Error("storage: delete attempt failed", "attempt", attempt+1, "max_attempts", maxAttempts, "key", key, "error", lastErr)
	}
	return fmt.Errorf("all %d delete attempts failed for %s: %w", maxAttempts, key, lastErr)
}

func viewerHash(ip, userAgent string) string {
	h := sha256.Sum256([]byte(ip + "|" + userAgent))
	return fmt.Sprintf("%x", h[:8])
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
