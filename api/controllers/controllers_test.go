package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gurudev-engicon/gallery-backend/internal/gallery"
	"github.com/gurudev-engicon/gallery-backend/pkg/enums"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

const (
	testMaxBytes      = 1 << 20
	testMaxBatchFiles = 4
)

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

type filePart struct {
	field string
	name  string
	data  []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func jsonBody(v string) *strings.Reader {
	return strings.NewReader(v)
}

// stubGallery is an in-memory gallery.Repository keyed by public id.
type stubGallery struct {
	mu       sync.Mutex
	images   map[string]gallery.GalleryImage
	order    []string
	seq      int
	failFrom int
	uploads  int
	listErr  error
}

func newStubGallery(images ...gallery.GalleryImage) *stubGallery {
	s := &stubGallery{images: map[string]gallery.GalleryImage{}}
	for _, img := range images {
		s.images[img.ID] = img
		s.order = append(s.order, img.ID)
	}
	return s
}

func (s *stubGallery) category(raw string) (enums.Category, error) {
	cat, err := enums.ParseCategory(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidCategory, "unknown category")
	}
	return cat, nil
}

func (s *stubGallery) ListImages(_ context.Context, category string) ([]gallery.GalleryImage, error) {
	cat, err := s.category(category)
	if err != nil {
		return nil, err
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gallery.GalleryImage{}
	for _, id := range s.order {
		if img, ok := s.images[id]; ok && img.Category == cat {
			out = append(out, img)
		}
	}
	return out, nil
}

func (s *stubGallery) ListAll(ctx context.Context) (map[enums.Category][]gallery.GalleryImage, error) {
	out := map[enums.Category][]gallery.GalleryImage{}
	for _, cat := range enums.Categories() {
		images, err := s.ListImages(ctx, cat.String())
		if err != nil {
			return nil, err
		}
		out[cat] = images
	}
	return out, nil
}

func (s *stubGallery) FindImage(_ context.Context, id string) (gallery.GalleryImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return gallery.GalleryImage{}, pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
	}
	return img, nil
}

func (s *stubGallery) UploadImage(_ context.Context, in gallery.UploadInput) (gallery.GalleryImage, error) {
	cat, err := s.category(in.Category)
	if err != nil {
		return gallery.GalleryImage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	if s.failFrom > 0 && s.uploads >= s.failFrom {
		return gallery.GalleryImage{}, pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, "store down")
	}
	s.seq++
	id := cat.Folder("gurudev-gallery") + "/img" + strconv.Itoa(s.seq)
	img := gallery.GalleryImage{ID: id, URL: "https://cdn.test/" + id, Title: in.Title, Description: in.Description, Category: cat}
	s.images[id] = img
	s.order = append(s.order, id)
	return img, nil
}

func (s *stubGallery) UpdateImage(_ context.Context, id, title, description string) (gallery.GalleryImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return gallery.GalleryImage{}, pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
	}
	img.Title, img.Description = title, description
	s.images[id] = img
	return img, nil
}

func (s *stubGallery) DeleteImage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[id]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
	}
	delete(s.images, id)
	return nil
}

func highway(id, title string) gallery.GalleryImage {
	return gallery.GalleryImage{
		ID:       "gurudev-gallery/highways/" + id,
		URL:      "https://cdn.test/" + id,
		Title:    title,
		Category: enums.CategoryHighway,
	}
}
