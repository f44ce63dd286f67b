package ads

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vidhaven/vidhaven/internal/database"
	"github.com/vidhaven/vidhaven/internal/httputil"
	"github.com/vidhaven/vidhaven/internal/realtime"
)

// Provider tags for ad networks the site integrates with.
const (
	ProviderAdsterra   = "adsterra"
	ProviderHilltopAds = "hilltopads"
	ProviderPopAds     = "popads"
	ProviderCustom     = "custom"
)

// Placement slots: named page regions an ad may render into.
const (
	SlotTop        = "top"
	SlotBottom     = "bottom"
	SlotSidebar    = "sidebar"
	SlotInVideo    = "in_video"
	SlotBelowVideo = "below_video"
	SlotFooter     = "footer"
)

var validProviders = map[string]bool{
	ProviderAdsterra:   true,
	ProviderHilltopAds: true,
	ProviderPopAds:     true,
	ProviderCustom:     true,
}

var validSlots = map[string]bool{
	SlotTop:        true,
	SlotBottom:     true,
	SlotSidebar:    true,
	SlotInVideo:    true,
	SlotBelowVideo: true,
	SlotFooter:     true,
}

const maxAdNameLength = 200
const maxAdCodeLength = 64 * 1024

type Ad struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AdType    string `json:"adType"`
	Position  string `json:"position"`
	AdCode    string `json:"adCode"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Handler struct {
	db       database.DBTX
	hub      *realtime.Hub
	schedule Schedule
}

func NewHandler(db database.DBTX, hub *realtime.Hub, schedule Schedule) *Handler {
	return &Handler{db: db, hub: hub, schedule: schedule}
}

type upsertAdRequest struct {
	Name     string `json:"name"`
	AdType   string `json:"adType"`
	Position string `json:"position"`
	AdCode   string `json:"adCode"`
	IsActive *bool  `json:"isActive"`
}

func (req *upsertAdRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if len(req.Name) > maxAdNameLength {
		return "name is too long"
	}
	if !validProviders[req.AdType] {
		return "unknown ad type"
	}
	if !validSlots[req.Position] {
		return "unknown position"
	}
	if req.AdCode == "" {
		return "ad code is required"
	}
	if len(req.AdCode) > maxAdCodeLength {
		return "ad code is too long"
	}
	return ""
}

// List handles GET /api/admin/ads — every ad, active or not.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(),
		`SELECT id, name, ad_type, position, ad_code, is_active, created_at, updated_at
		 FROM ads ORDER BY created_at DESC`)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list ads")
		return
	}
	defer rows.Close()

	ads, err := scanAds(rows)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list ads")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ads)
}

// Slot handles GET /api/ads/slot/{position}: the active ads for one page
// region, rendered for injection and paired with their load schedule.
func (h *Handler) Slot(w http.ResponseWriter, r *http.Request) {
	position := chi.URLParam(r, "position")
	if !validSlots[position] {
		httputil.WriteError(w, http.StatusBadRequest, "unknown position")
		return
	}

	rows, err := h.db.Query(r.Context(),
		`SELECT id, name, ad_type, position, ad_code, is_active, created_at, updated_at
		 FROM ads WHERE position = $1 AND is_active = true ORDER BY created_at`,
		position)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load ads")
		return
	}
	defer rows.Close()

	ads, err := scanAds(rows)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load ads")
		return
	}

	slots := make([]RenderedSlot, 0, len(ads))
	for i, ad := range ads {
		rendered, err := Render(ad, i, h.schedule)
		if err != nil {
			// A broken creative must not break the surrounding page.
			continue
		}
		slots = append(slots, rendered)
	}

	httputil.WriteJSON(w, http.StatusOK, slotResponse{
		Position: position,
		Slots:    slots,
		Overlay:  h.schedule.Overlay(),
	})
}

type slotResponse struct {
	Position string          `json:"position"`
	Slots    []RenderedSlot  `json:"slots"`
	Overlay  OverlaySchedule `json:"overlay"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	var id string
	err := h.db.QueryRow(r.Context(),
		`INSERT INTO ads (name, ad_type, position, ad_code, is_active)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		req.Name, req.AdType, req.Position, req.AdCode, active,
	).Scan(&id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create ad")
		return
	}

	h.hub.Publish(realtime.Event{Table: "ads", Action: realtime.ActionInsert, ID: id})
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req upsertAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	tag, err := h.db.Exec(r.Context(),
		`UPDATE ads SET name = $1, ad_type = $2, position = $3, ad_code = $4, is_active = $5, updated_at = now()
		 WHERE id = $6`,
		req.Name, req.AdType, req.Position, req.AdCode, active, id,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update ad")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "ad not found")
		return
	}

	h.hub.Publish(realtime.Event{Table: "ads", Action: realtime.ActionUpdate, ID: id})
	w.WriteHeader(http.StatusNoContent)
}

// Toggle flips is_active. Pages subscribed to the ads table refetch their
// slots, so a deactivated ad disappears without a reload.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tag, err := h.db.Exec(r.Context(),
		`UPDATE ads SET is_active = NOT is_active, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to toggle ad")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "ad not found")
		return
	}

	h.hub.Publish(realtime.Event{Table: "ads", Action: realtime.ActionUpdate, ID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tag, err := h.db.Exec(r.Context(), `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete ad")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "ad not found")
		return
	}

	h.hub.Publish(realtime.Event{Table: "ads", Action: realtime.ActionDelete, ID: id})
	w.WriteHeader(http.StatusNoContent)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAds(rows rowScanner) ([]Ad, error) {
	ads := make([]Ad, 0)
	for rows.Next() {
		var ad Ad
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&ad.ID, &ad.Name, &ad.AdType, &ad.Position, &ad.AdCode, &ad.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		ad.CreatedAt = createdAt.Format(time.RFC3339)
		ad.UpdatedAt = updatedAt.Format(time.RFC3339)
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}
