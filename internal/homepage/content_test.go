package homepage

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/vidhaven/vidhaven/internal/realtime"
)

func newTestHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface, *realtime.Hub) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	hub := realtime.NewHub()
	return NewHandler(mock, hub), mock, hub
}

func contentRow(id string, order int) *pgxmock.Rows {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return pgxmock.NewRows([]string{"id", "content_type", "title", "description", "url",
		"thumbnail_url", "display_order", "created_at", "updated_at"}).
		AddRow(id, "video", "Featured Clip", "", "https://vidhaven.test/watch/vid-1",
			(*string)(nil), order, now, now)
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateAppendsAtEnd(t *testing.T) {
	h, mock, hub := newTestHandler(t)

	events, cancel := hub.Subscribe([]string{"homepage_content"}, "")
	defer cancel()

	mock.ExpectQuery(`INSERT INTO homepage_content`).
		WithArgs("video", "Featured Clip", "", "https://vidhaven.test/watch/vid-1", (*string)(nil)).
		WillReturnRows(contentRow("hc-1", 4))

	r := chi.NewRouter()
	r.Post("/api/admin/homepage", h.Create)

	rec := doJSON(t, r, http.MethodPost, "/api/admin/homepage", upsertContentRequest{
		ContentType: "video",
		Title:       "Featured Clip",
		URL:         "https://vidhaven.test/watch/vid-1",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var c Content
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatal(err)
	}
	if c.DisplayOrder != 4 {
		t.Fatalf("displayOrder = %d, want 4", c.DisplayOrder)
	}
	select {
	case ev := <-events:
		if ev.Action != "insert" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected a realtime event")
	}
}

func TestCreateAcceptsEveryContentType(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Post("/api/admin/homepage", h.Create)

	for i, contentType := range []string{"video", "image", "featured", "instagram"} {
		mock.ExpectQuery(`INSERT INTO homepage_content`).
			WithArgs(contentType, "Item", "", "https://vidhaven.test/x", (*string)(nil)).
			WillReturnRows(contentRow("hc-1", i+1))

		rec := doJSON(t, r, http.MethodPost, "/api/admin/homepage", upsertContentRequest{
			ContentType: contentType,
			Title:       "Item",
			URL:         "https://vidhaven.test/x",
		})

		if rec.Code != http.StatusCreated {
			t.Fatalf("%s: status = %d: %s", contentType, rec.Code, rec.Body.String())
		}
	}
}

func TestCreateRejectsUnknownContentType(t *testing.T) {
	h, _, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Post("/api/admin/homepage", h.Create)

	rec := doJSON(t, r, http.MethodPost, "/api/admin/homepage", upsertContentRequest{
		ContentType: "widget",
		Title:       "X",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReorderSwapsInTransaction(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT display_order FROM homepage_content`).
		WithArgs("hc-1").
		WillReturnRows(pgxmock.NewRows([]string{"display_order"}).AddRow(1))
	mock.ExpectQuery(`SELECT display_order FROM homepage_content`).
		WithArgs("hc-2").
		WillReturnRows(pgxmock.NewRows([]string{"display_order"}).AddRow(2))
	mock.ExpectExec(`UPDATE homepage_content SET display_order`).
		WithArgs(2, "hc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE homepage_content SET display_order`).
		WithArgs(1, "hc-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	r := chi.NewRouter()
	r.Post("/api/admin/homepage/{id}/reorder", h.Reorder)

	rec := doJSON(t, r, http.MethodPost, "/api/admin/homepage/hc-1/reorder", reorderRequest{OtherID: "hc-2"})

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet pgxmock expectations: %v", err)
	}
}

func TestReorderRollsBackWhenOtherMissing(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT display_order FROM homepage_content`).
		WithArgs("hc-1").
		WillReturnRows(pgxmock.NewRows([]string{"display_order"}).AddRow(1))
	mock.ExpectQuery(`SELECT display_order FROM homepage_content`).
		WithArgs("hc-404").
		WillReturnRows(pgxmock.NewRows([]string{"display_order"}))
	mock.ExpectRollback()

	r := chi.NewRouter()
	r.Post("/api/admin/homepage/{id}/reorder", h.Reorder)

	rec := doJSON(t, r, http.MethodPost, "/api/admin/homepage/hc-1/reorder", reorderRequest{OtherID: "hc-404"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet pgxmock expectations: %v", err)
	}
}

func TestReorderRejectsSelfSwap(t *testing.T) {
	h, _, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Post("/api/admin/homepage/{id}/reorder", h.Reorder)

	rec := doJSON(t, r, http.MethodPost, "/api/admin/homepage/hc-1/reorder", reorderRequest{OtherID: "hc-1"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestList(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT (.+) FROM homepage_content ORDER BY display_order`).
		WillReturnRows(contentRow("hc-1", 1))

	req := httptest.NewRequest(http.MethodGet, "/api/homepage", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var items []Content
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title != "Featured Clip" {
		t.Fatalf("unexpected items: %+v", items)
	}
}
