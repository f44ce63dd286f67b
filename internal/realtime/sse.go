package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const heartbeatInterval = 30 * time.Second

// Handler streams change events to browsers over Server-Sent Events.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Stream handles GET /api/realtime?tables=ads,videos[&key=<rowKey>].
// Every matching change event is written as one SSE message; a comment line
// is sent periodically so intermediaries do not drop the idle connection.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	tablesParam := r.URL.Query().Get("tables")
	if tablesParam == "" {
		http.Error(w, "tables query parameter is required", http.StatusBadRequest)
		return
	}
	tables := strings.Split(tablesParam, ",")
	for i := range tables {
		tables[i] = strings.TrimSpace(tables[i])
	}

	events, cancel := h.hub.Subscribe(tables, r.URL.Query().Get("key"))
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Error("realtime: failed to encode event", "table", ev.Table, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
