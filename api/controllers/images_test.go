package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gurudev-engicon/gallery-backend/internal/images"
	"github.com/gurudev-engicon/gallery-backend/pkg/config"
	"github.com/gurudev-engicon/gallery-backend/pkg/db/models"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/pagination"
	"github.com/gurudev-engicon/gallery-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubImagesService struct {
	records    map[uuid.UUID]*models.ImageRecord
	lastParams pagination.Params
	lastFile   images.File
}

func newStubImagesService() *stubImagesService {
	return &stubImagesService{records: map[uuid.UUID]*models.ImageRecord{}}
}

func (s *stubImagesService) Upload(_ context.Context, file images.File) (*models.ImageRecord, error) {
	s.lastFile = file
	rec := &models.ImageRecord{ID: uuid.New(), PublicID: "gallery/" + file.Name, ImageURL: "https://cdn.test/" + file.Name, CreatedAt: time.Now()}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *stubImagesService) List(_ context.Context, params pagination.Params) (types.Page[models.ImageRecord], error) {
	s.lastParams = params
	page := types.Page[models.ImageRecord]{Items: []models.ImageRecord{}}
	for _, rec := range s.records {
		page.Items = append(page.Items, *rec)
	}
	return page, nil
}

func (s *stubImagesService) Get(_ context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
	}
	return rec, nil
}

func (s *stubImagesService) Replace(ctx context.Context, id uuid.UUID, file images.File) (*models.ImageRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.PublicID = "gallery/" + file.Name
	return rec, nil
}

func (s *stubImagesService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	delete(s.records, id)
	return nil
}

func imagesRouter(svc images.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/upload", ImagesUpload(svc, testMaxBytes, nil))
	r.Route("/api/images", func(r chi.Router) {
		r.Get("/", ImagesList(svc, nil))
		r.Get("/{id}", ImagesGet(svc, nil))
		r.Post("/{id}", ImagesReplace(svc, testMaxBytes, nil))
		r.Delete("/{id}", ImagesDelete(svc, nil))
	})
	return r
}

func TestImagesUploadGetReplaceDelete(t *testing.T) {
	svc := newStubImagesService()
	h := imagesRouter(svc)

	body, contentType := multipartBody(t, nil, filePart{"file", "site.png", pngBytes})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.ImageRecord
	decodeData(t, rec, &created)
	assert.Equal(t, "gallery/site.png", created.PublicID)
	assert.Equal(t, "image/png", svc.lastFile.ContentType)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images/"+created.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, contentType = multipartBody(t, nil, filePart{"file", "v2.png", pngBytes})
	req = httptest.NewRequest(http.MethodPost, "/api/images/"+created.ID.String(), body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var replaced models.ImageRecord
	decodeData(t, rec, &replaced)
	assert.Equal(t, "gallery/v2.png", replaced.PublicID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/images/"+created.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/images/"+created.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImagesListPassesPagination(t *testing.T) {
	svc := newStubImagesService()
	h := imagesRouter(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images?limit=5&cursor=abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, svc.lastParams)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImagesGetRejectsBadID(t *testing.T) {
	rec := httptest.NewRecorder()
	imagesRouter(newStubImagesService()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil,
		ReadinessCheck{Name: "db", Pinger: stubPinger{}},
		ReadinessCheck{Name: "redis"},
		ReadinessCheck{Name: "storage", Pinger: stubPinger{}},
	).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get(envHeader))
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeData(t, rec, &body)
	assert.Equal(t, map[string]string{"db": "ok", "redis": "skipped", "storage": "ok"}, body.Checks)

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil,
		ReadinessCheck{Name: "db", Pinger: stubPinger{}},
		ReadinessCheck{Name: "storage", Pinger: stubPinger{err: errors.New("dial tcp: refused")}},
	).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, "DEPENDENCY_ERROR", env.Error.Code)
	assert.Equal(t, map[string]any{"db": "ok", "storage": "down"}, env.Error.Details["checks"])
}

func TestPublicPing(t *testing.T) {
	rec := httptest.NewRecorder()
	PublicPing().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
