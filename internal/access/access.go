package access

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vidhaven/vidhaven/internal/auth"
	"github.com/vidhaven/vidhaven/internal/database"
	"github.com/vidhaven/vidhaven/internal/httputil"
	"github.com/vidhaven/vidhaven/internal/realtime"
)

const gateCookieName = "vh_gate"
const gateCookieMaxAge = 30 * 24 * time.Hour

const maxCodeLength = 64

// Handler owns viewer gating: access codes, the signed gate cookie that
// replaces the original client-side verified flag, and the "get access code"
// button configuration.
type Handler struct {
	db            database.DBTX
	hub           *realtime.Hub
	hmacSecret    string
	secureCookies bool
}

func NewHandler(db database.DBTX, hub *realtime.Hub, hmacSecret string, secureCookies bool) *Handler {
	return &Handler{db: db, hub: hub, hmacSecret: hmacSecret, secureCookies: secureCookies}
}

type accessCode struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

// Verify handles POST /api/access/verify. A matching active code sets the
// signed gate cookie; anything else returns verified=false and sets nothing.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" || len(code) > maxCodeLength {
		httputil.WriteJSON(w, http.StatusForbidden, verifyResponse{Verified: false})
		return
	}

	var id string
	err := h.db.QueryRow(r.Context(),
		`SELECT id FROM access_codes WHERE code = $1 AND is_active = true`,
		code,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httputil.WriteJSON(w, http.StatusForbidden, verifyResponse{Verified: false})
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to verify code")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     gateCookieName,
		Value:    signGateCookie(h.hmacSecret, code),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(gateCookieMaxAge / time.Second),
	})
	httputil.WriteJSON(w, http.StatusOK, verifyResponse{Verified: true})
}

// RequireGate guards viewer-facing listings. Admins pass without a gate
// cookie; everyone else needs the signed cookie from a successful Verify.
func (h *Handler) RequireGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IsAdminFromContext(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(gateCookieName)
		if err != nil || !h.gateCookieValid(r.Context(), cookie.Value) {
			if wantsHTML(r) {
				h.renderGatePage(w, r)
				return
			}
			httputil.WriteError(w, http.StatusForbidden, "access code required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func signGateCookie(secret, code string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("gate|" + code))
	return hex.EncodeToString(mac.Sum(nil)) + "." + hex.EncodeToString([]byte(code))
}

// gateCookieValid checks the signature and that the embedded code is still
// active, so deactivating a code revokes existing viewer sessions.
func (h *Handler) gateCookieValid(ctx context.Context, value string) bool {
	sig, encoded, found := strings.Cut(value, ".")
	if !found {
		return false
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return false
	}
	code := string(raw)
	expected := signGateCookie(h.hmacSecret, code)
	expectedSig, _, _ := strings.Cut(expected, ".")
	if !hmac.Equal([]byte(expectedSig), []byte(sig)) {
		return false
	}

	var active bool
	if err := h.db.QueryRow(ctx,
		`SELECT is_active FROM access_codes WHERE code = $1`, code,
	).Scan(&active); err != nil {
		return false
	}
	return active
}

// --- admin CRUD ---

type upsertCodeRequest struct {
	Code     string `json:"code"`
	IsActive *bool  `json:"isActive"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(),
		`SELECT id, code, is_active, created_at, updated_at FROM access_codes ORDER BY created_at DESC`)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list access codes")
		return
	}
	defer rows.Close()

	codes := make([]accessCode, 0)
	for rows.Next() {
		var c accessCode
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&c.ID, &c.Code, &c.IsActive, &createdAt, &updatedAt); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to scan access code")
			return
		}
		c.CreatedAt = createdAt.Format(time.RFC3339)
		c.UpdatedAt = updatedAt.Format(time.RFC3339)
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list access codes")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, codes)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		httputil.WriteError(w, http.StatusBadRequest, "code is required")
		return
	}
	if len(code) > maxCodeLength {
		httputil.WriteError(w, http.StatusBadRequest, "code is too long")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	var id string
	err := h.db.QueryRow(r.Context(),
		`INSERT INTO access_codes (code, is_active) VALUES ($1, $2) RETURNING id`,
		code, active,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			httputil.WriteError(w, http.StatusConflict, "code already exists")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create access code")
		return
	}

	h.hub.Publish(realtime.Event{Table: "access_codes", Action: realtime.ActionInsert, ID: id})
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tag, err := h.db.Exec(r.Context(),
		`UPDATE access_codes SET is_active = NOT is_active, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to toggle access code")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "access code not found")
		return
	}

	h.hub.Publish(realtime.Event{Table: "access_codes", Action: realtime.ActionUpdate, ID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tag, err := h.db.Exec(r.Context(), `DELETE FROM access_codes WHERE id = $1`, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete access code")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "access code not found")
		return
	}

	h.hub.Publish(realtime.Event{Table: "access_codes", Action: realtime.ActionDelete, ID: id})
	w.WriteHeader(http.StatusNoContent)
}
