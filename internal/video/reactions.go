package video

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vidhaven/vidhaven/internal/httputil"
)

type Reaction struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"videoId"`
	ReactionType string    `json:"reactionType"`
	Count        int64     `json:"count"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var validReactions = map[string]bool{
	"like":  true,
	"love":  true,
	"laugh": true,
	"wow":   true,
	"sad":   true,
	"angry": true,
}

func (h *Handler) ListReactions(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	rows, err := h.db.Query(r.Context(),
		`SELECT id, video_id, reaction_type, count, updated_at FROM reactions
		 WHERE video_id = $1 ORDER BY reaction_type`,
		videoID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list reactions")
		return
	}
	defer rows.Close()

	reactions := []Reaction{}
	for rows.Next() {
		var re Reaction
		if err := rows.Scan(&re.ID, &re.VideoID, &re.ReactionType, &re.Count, &re.UpdatedAt); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to list reactions")
			return
		}
		reactions = append(reactions, re)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list reactions")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reactions)
}

type reactRequest struct {
	ReactionType string `json:"reactionType"`
}

// React increments a reaction counter. The upsert does the read-modify-write
// inside the database, so two simultaneous taps both land.
func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validReactions[req.ReactionType] {
		httputil.WriteError(w, http.StatusBadRequest, "unknown reaction type")
		return
	}

	var re Reaction
	err := h.db.QueryRow(r.Context(),
		`INSERT INTO reactions (video_id, reaction_type, count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (video_id, reaction_type)
		 DO UPDATE SET count = reactions.count + 1, updated_at = now()
		 RETURNING id, video_id, reaction_type, count, updated_at`,
		videoID, req.ReactionType,
	).Scan(&re.ID, &re.VideoID, &re.ReactionType, &re.Count, &re.UpdatedAt)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	h.publishKeyed("update", "reactions", re.ID, re.VideoID)
	httputil.WriteJSON(w, http.StatusOK, re)
}
