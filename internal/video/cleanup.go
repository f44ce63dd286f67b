package video

import (
	"context"
	"log/slog"
	"time"

	"github.com/vidhaven/vidhaven/internal/database"
)

// PurgeDeletedFiles removes storage objects left behind by deleted videos.
func PurgeDeletedFiles(ctx context.Context, db database.DBTX, storage ObjectStorage) {
	rows, err := db.Query(ctx,
		`SELECT id, file_key, thumbnail_key FROM videos
		 WHERE status = 'deleted' AND file_key IS NOT NULL AND file_purged_at IS NULL
		 LIMIT 50`)
	if err != nil {
		slog.Error("cleanup: failed to query deleted videos", "error", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var videoID string
		var fileKey string
		var thumbnailKey *string
		if err := rows.Scan(&videoID, &fileKey, &thumbnailKey); err != nil {
			slog.Error("cleanup: failed to scan file key", "error", err)
			continue
		}
		if err := deleteWithRetry(ctx, storage, fileKey, 3); err != nil {
			slog.Error("cleanup: failed to delete file", "key", fileKey, "error", err)
			continue
		}
		if thumbnailKey != nil {
			if err := deleteWithRetry(ctx, storage, *thumbnailKey, 3); err != nil {
				slog.Error("cleanup: failed to delete thumbnail", "key", *thumbnailKey, "error", err)
			}
		}
		if _, err := db.Exec(ctx,
			`UPDATE videos SET file_purged_at = now() WHERE id = $1`,
			videoID,
		); err != nil {
			slog.Error("cleanup: failed to mark purged", "video_id", videoID, "error", err)
		}
	}
	if err := rows.Err(); err != nil {
		slog.Error("cleanup: row iteration error", "error", err)
	}
}

func StartCleanupLoop(ctx context.Context, db database.DBTX, storage ObjectStorage, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("cleanup: shutting down")
				return
			case <-ticker.C:
				PurgeDeletedFiles(ctx, db, storage)
			}
		}
	}()
}
