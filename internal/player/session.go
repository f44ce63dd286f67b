package player

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vidhaven/vidhaven/internal/httputil"
)

const sessionTTL = 4 * time.Hour

// Session tracks the playback state machine for one mounted player instance.
// Playback is guarded by mu: event posts for the same session can arrive
// concurrently (a seek racing a timeupdate), so every read and transition
// goes through apply or view.
type Session struct {
	ID       string
	VideoID  string
	Source   Source
	Playback *Playback
	LastSeen time.Time

	mu sync.Mutex
}

// sessionView is the wire shape of a session, copied under the lock.
type sessionView struct {
	ID       string   `json:"id"`
	VideoID  string   `json:"videoId"`
	Source   Source   `json:"source"`
	Playback Playback `json:"playback"`
}

func (s *Session) view() sessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sessionView{ID: s.ID, VideoID: s.VideoID, Source: s.Source, Playback: *s.Playback}
}

// apply advances the state machine and returns the resulting state snapshot.
func (s *Session) apply(ev sessionEvent) (Playback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := applyEvent(s.Playback, ev)
	return *s.Playback, err
}

// Store holds live sessions in memory. A session is owned by exactly one
// mounted player; there is no cross-session sharing to coordinate.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (s *Store) Create(videoID string, source Source) *Session {
	sess := &Session{
		ID:       uuid.NewString(),
		VideoID:  videoID,
		Source:   source,
		Playback: NewPlayback(),
		LastSeen: time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.LastSeen = time.Now()
	}
	return sess, ok
}

func (s *Store) sweep() {
	cutoff := time.Now().Add(-sessionTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// StartSweeper drops abandoned sessions until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// Handler exposes playback sessions over HTTP. The watch page creates a
// session when it mounts and reports media events as they fire.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type createSessionRequest struct {
	VideoID   string `json:"videoId"`
	URL       string `json:"url"`
	NativeHLS bool   `json:"nativeHls"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		httputil.WriteError(w, http.StatusBadRequest, "url is required")
		return
	}

	sess := h.store.Create(req.VideoID, Resolve(req.URL, req.NativeHLS))
	httputil.WriteJSON(w, http.StatusCreated, sess.view())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "session not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.view())
}

type sessionEvent struct {
	Type      string  `json:"type"`
	Duration  float64 `json:"duration,omitempty"`
	Time      float64 `json:"time,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
	Muted     bool    `json:"muted,omitempty"`
	Buffering bool    `json:"buffering,omitempty"`
	ErrorCode int     `json:"errorCode,omitempty"`
}

// Event applies one media event to the session's state machine. Illegal
// transitions are rejected with 409 so a confused client resynchronizes from
// the returned state instead of drifting.
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "session not found")
		return
	}

	var ev sessionEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playback, err := sess.apply(ev)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			slog.Warn("player: illegal transition",
				"session_id", sess.ID, "event", ev.Type, "state", playback.State)
			httputil.WriteJSON(w, http.StatusConflict, playback)
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, playback)
}

func applyEvent(p *Playback, ev sessionEvent) error {
	switch ev.Type {
	case "load":
		return p.Load()
	case "loadedmetadata":
		return p.MetadataReady(ev.Duration)
	case "play":
		return p.Play()
	case "pause":
		return p.Pause()
	case "timeupdate":
		p.Progress(ev.Time)
		return nil
	case "seek":
		return p.Seek(ev.Time)
	case "skip_forward":
		return p.SkipForward()
	case "skip_back":
		return p.SkipBack()
	case "volume":
		p.SetVolume(ev.Volume)
		return nil
	case "mute":
		p.SetMuted(true)
		return nil
	case "unmute":
		p.SetMuted(false)
		return nil
	case "waiting":
		p.SetBuffering(true)
		return nil
	case "canplay":
		p.SetBuffering(false)
		return nil
	case "ended":
		return p.End()
	case "error":
		p.Fail(MediaErrorCode(ev.ErrorCode))
		return nil
	case "retry":
		return p.Retry()
	default:
		return errors.New("unknown event type: " + ev.Type)
	}
}
