package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/vidhaven/vidhaven/internal/realtime"
)

type fakeStorage struct {
	headSize    int64
	headType    string
	headErr     error
	deletedKeys []string
}

func (f *fakeStorage) GenerateUploadURL(ctx context.Context, key, contentType string, contentLength int64, expiry time.Duration) (string, error) {
	return "https://s3.vidhaven.test/upload/" + key, nil
}

func (f *fakeStorage) GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://s3.vidhaven.test/" + key, nil
}

func (f *fakeStorage) GenerateDownloadURLWithDisposition(ctx context.Context, key, filename string, expiry time.Duration) (string, error) {
	return "https://s3.vidhaven.test/" + key + "?dl=" + filename, nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, key string) error {
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}

func (f *fakeStorage) HeadObject(ctx context.Context, key string) (int64, string, error) {
	return f.headSize, f.headType, f.headErr
}

func newUploadHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface, *fakeStorage) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	fs := &fakeStorage{}
	return NewHandler(mock, fs, realtime.NewHub(), nil, "https://vidhaven.test", 1<<30), mock, fs
}

func TestUploadIssuesPresignedURL(t *testing.T) {
	h, mock, _ := newUploadHandler(t)

	mock.ExpectQuery(`INSERT INTO videos`).
		WithArgs("Clip", "", 0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("vid-9"))
	mock.ExpectExec(`UPDATE videos SET file_key`).
		WithArgs("videos/vid-9.mp4", "video/mp4", "vid-9").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	r := chi.NewRouter()
	r.Post("/api/admin/videos/upload", h.Upload)

	rec := postJSON(t, r, "/api/admin/videos/upload", uploadRequest{
		Title:       "Clip",
		ContentType: "video/mp4",
		FileSize:    1024,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.UploadURL == "" || resp.ID != "vid-9" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet pgxmock expectations: %v", err)
	}
}

func TestUploadRejectsOversize(t *testing.T) {
	h, _, _ := newUploadHandler(t)

	r := chi.NewRouter()
	r.Post("/api/admin/videos/upload", h.Upload)

	rec := postJSON(t, r, "/api/admin/videos/upload", uploadRequest{
		Title:       "Clip",
		ContentType: "video/mp4",
		FileSize:    2 << 30,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFinalizeVerifiesObject(t *testing.T) {
	h, mock, fs := newUploadHandler(t)
	fs.headSize = 1024
	fs.headType = "video/mp4"

	mock.ExpectQuery(`SELECT file_key FROM videos`).
		WithArgs("vid-9").
		WillReturnRows(pgxmock.NewRows([]string{"file_key"}).AddRow("videos/vid-9.mp4"))
	mock.ExpectExec(`UPDATE videos SET status = 'ready'`).
		WithArgs("vid-9").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	r := chi.NewRouter()
	r.Post("/api/admin/videos/{id}/finalize", h.Finalize)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/videos/vid-9/finalize", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet pgxmock expectations: %v", err)
	}
}

func TestFinalizeRejectsMissingObject(t *testing.T) {
	h, mock, fs := newUploadHandler(t)
	fs.headErr = context.DeadlineExceeded

	mock.ExpectQuery(`SELECT file_key FROM videos`).
		WithArgs("vid-9").
		WillReturnRows(pgxmock.NewRows([]string{"file_key"}).AddRow("videos/vid-9.mp4"))

	r := chi.NewRouter()
	r.Post("/api/admin/videos/{id}/finalize", h.Finalize)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/videos/vid-9/finalize", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPurgeDeletedFiles(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	fs := &fakeStorage{}

	thumb := "thumbnails/vid-1.jpg"
	mock.ExpectQuery(`SELECT id, file_key, thumbnail_key FROM videos`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "file_key", "thumbnail_key"}).
			AddRow("vid-1", "videos/vid-1.mp4", &thumb))
	mock.ExpectExec(`UPDATE videos SET file_purged_at`).
		WithArgs("vid-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	PurgeDeletedFiles(context.Background(), mock, fs)

	if len(fs.deletedKeys) != 2 {
		t.Fatalf("deleted keys = %v, want file and thumbnail", fs.deletedKeys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet pgxmock expectations: %v", err)
	}
}
