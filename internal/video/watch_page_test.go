package video

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func watchPageRow(videoURL string) *pgxmock.Rows {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cols := append(videoColumnNames(), "file_key", "content_type")
	return pgxmock.NewRows(cols).
		AddRow("vid-1", "Deep Sea Documentary", "A dive into the abyss", videoURL,
			(*string)(nil), (*string)(nil), 5, int64(42), "ready", now, now,
			(*string)(nil), "")
}

func renderWatch(t *testing.T, mock pgxmock.PgxPoolIface, h *Handler, videoURL string) *httptest.ResponseRecorder {
	t.Helper()
	mock.ExpectQuery(`SELECT (.+) FROM videos WHERE id`).
		WithArgs("vid-1").
		WillReturnRows(watchPageRow(videoURL))
	mock.ExpectQuery(`SELECT is_enabled, button_text FROM download_config`).
		WillReturnRows(pgxmock.NewRows([]string{"is_enabled", "button_text"}).AddRow(true, "Download"))

	r := chi.NewRouter()
	r.Get("/watch/{id}", h.WatchPage)

	req := httptest.NewRequest(http.MethodGet, "/watch/vid-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWatchPageManifestUsesEngine(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	rec := renderWatch(t, mock, h, "https://cdn.vidhaven.test/a.m3u8")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "hls.js") {
		t.Error("manifest page should load the streaming engine")
	}
	if !strings.Contains(body, "Deep Sea Documentary") {
		t.Error("page should contain the title")
	}
	if !strings.Contains(body, "slot-top") || !strings.Contains(body, "slot-footer") {
		t.Error("page should contain ad slot containers")
	}
	if !strings.Contains(body, "Download") {
		t.Error("page should contain the download button")
	}
}

func TestWatchPageProgressiveSkipsEngine(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	rec := renderWatch(t, mock, h, "https://cdn.vidhaven.test/a.mp4")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "hls.js") {
		t.Error("progressive page should not load the streaming engine")
	}
	if !strings.Contains(body, `preload="metadata"`) {
		t.Error("progressive page should preload metadata only")
	}
}

func TestWatchPageOverlayAndSidebarSlots(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	rec := renderWatch(t, mock, h, "https://cdn.vidhaven.test/a.mp4")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="slot-in-video"`) {
		t.Error("page should contain the in-video overlay container")
	}
	if !strings.Contains(body, `injectSlot('in_video', 'slot-in-video'`) {
		t.Error("page should fetch the in_video slot")
	}
	if !strings.Contains(body, "sched.periodSeconds") || !strings.Contains(body, "sched.visibleSeconds") {
		t.Error("overlay cycle should honor the schedule from the slot payload")
	}
	if !strings.Contains(body, "disableClickThrough") {
		t.Error("overlay should honor the click-through setting")
	}
	if !strings.Contains(body, `id="slot-sidebar"`) || !strings.Contains(body, `injectSlot('sidebar', 'slot-sidebar')`) {
		t.Error("page should render and fill the sidebar slot")
	}
}

func TestWatchPageInjectorGuards(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	rec := renderWatch(t, mock, h, "https://cdn.vidhaven.test/a.mp4")

	body := rec.Body.String()
	if !strings.Contains(body, "did not settle") {
		t.Error("injector should log slots that never render")
	}
	if !strings.Contains(body, ".ad-container") || !strings.Contains(body, "maxWidth") {
		t.Error("injector should keep re-clamping ad containers to their bounds")
	}
}

func TestWatchPageNotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT (.+) FROM videos WHERE id`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	r := chi.NewRouter()
	r.Get("/watch/{id}", h.WatchPage)

	req := httptest.NewRequest(http.MethodGet, "/watch/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
