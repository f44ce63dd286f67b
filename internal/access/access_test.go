package access

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/vidhaven/vidhaven/internal/realtime"
)

func newRouterWithID(h http.HandlerFunc, pattern, method string) chi.Router {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	return r
}

const testSecret = "test-gate-secret"

func newTestHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface, *realtime.Hub) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	hub := realtime.NewHub()
	return NewHandler(mock, hub, testSecret, false), mock, hub
}

func TestVerify_ValidActiveCode(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT id FROM access_codes`).
		WithArgs("DEMO2025").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("code-1"))

	body, _ := json.Marshal(verifyRequest{Code: "DEMO2025"})
	req := httptest.NewRequest(http.MethodPost, "/api/access/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp verifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !resp.Verified {
		t.Error("expected verified=true")
	}

	var gateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == gateCookieName {
			gateCookie = c
		}
	}
	if gateCookie == nil {
		t.Fatal("expected gate cookie to be set")
	}
	if !gateCookie.HttpOnly {
		t.Error("expected gate cookie to be HttpOnly")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet pgxmock expectations: %v", err)
	}
}

func TestVerify_WrongCode(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT id FROM access_codes`).
		WithArgs("WRONG").
		WillReturnError(pgx.ErrNoRows)

	body, _ := json.Marshal(verifyRequest{Code: "WRONG"})
	req := httptest.NewRequest(http.MethodPost, "/api/access/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}

	var resp verifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Verified {
		t.Error("expected verified=false")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no cookie set for a wrong code")
	}
}

func TestVerify_EmptyCodeSkipsDatabase(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	body, _ := json.Marshal(verifyRequest{Code: "   "})
	req := httptest.NewRequest(http.MethodPost, "/api/access/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestRequireGate_ValidCookie(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT is_active FROM access_codes`).
		WithArgs("DEMO2025").
		WillReturnRows(pgxmock.NewRows([]string{"is_active"}).AddRow(true))

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.AddCookie(&http.Cookie{Name: gateCookieName, Value: signGateCookie(testSecret, "DEMO2025")})
	rec := httptest.NewRecorder()
	h.RequireGate(next).ServeHTTP(rec, req)

	if !called {
		t.Errorf("expected next handler to run, got status %d", rec.Code)
	}
}

func TestRequireGate_DeactivatedCodeRevokesAccess(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT is_active FROM access_codes`).
		WithArgs("DEMO2025").
		WillReturnRows(pgxmock.NewRows([]string{"is_active"}).AddRow(false))

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.AddCookie(&http.Cookie{Name: gateCookieName, Value: signGateCookie(testSecret, "DEMO2025")})
	rec := httptest.NewRecorder()
	h.RequireGate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestRequireGate_TamperedCookie(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.AddCookie(&http.Cookie{Name: gateCookieName, Value: signGateCookie("other-secret", "DEMO2025")})
	rec := httptest.NewRecorder()
	h.RequireGate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestToggle_PublishesChangeEvent(t *testing.T) {
	h, mock, hub := newTestHandler(t)

	events, cancel := hub.Subscribe([]string{"access_codes"}, "")
	defer cancel()

	mock.ExpectExec(`UPDATE access_codes SET is_active`).
		WithArgs("code-3").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	r := newRouterWithID(h.Toggle, "/api/admin/access-codes/{id}/toggle", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/access-codes/code-3/toggle", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, rec.Code, rec.Body.String())
	}

	select {
	case ev := <-events:
		if ev.Table != "access_codes" || ev.Action != realtime.ActionUpdate || ev.ID != "code-3" {
			t.Errorf("unexpected event: %+v", ev)
		}
	default:
		t.Error("expected a change event after toggle")
	}
}

func TestButtonConfig_RoundTrip(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectExec(`UPDATE access_code_button_config`).
		WithArgs("Request Access", "https://t.me/example", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`SELECT button_text, button_url, is_enabled FROM access_code_button_config`).
		WillReturnRows(pgxmock.NewRows([]string{"button_text", "button_url", "is_enabled"}).
			AddRow("Request Access", "https://t.me/example", true))

	saved := buttonConfig{ButtonText: "Request Access", ButtonURL: "https://t.me/example", IsEnabled: true}
	body, _ := json.Marshal(saved)
	rec := httptest.NewRecorder()
	h.SaveButtonConfig(rec, httptest.NewRequest(http.MethodPut, "/api/admin/access/button-config", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("save: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.GetButtonConfig(rec, httptest.NewRequest(http.MethodGet, "/api/access/button-config", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got buttonConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if got != saved {
		t.Errorf("round trip mismatch: saved %+v, got %+v", saved, got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet pgxmock expectations: %v", err)
	}
}
