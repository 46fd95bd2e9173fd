package minio

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gurudev-engicon/gallery-backend/pkg/config"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers HEAD and DELETE for a fixed set of objects.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]http.Header
	deleted []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/gallery/")
	headers, ok := f.objects[key]
	switch r.Method {
	case http.MethodHead:
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		for k, v := range headers {
			w.Header()[k] = v
		}
		w.Header().Set("Last-Modified", "Wed, 01 May 2024 10:00:00 GMT")
		w.Header().Set("ETag", `"abc"`)
		w.Header().Set("Content-Length", "4")
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, key)
		f.deleted = append(f.deleted, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newFakeClient(t *testing.T, fake *fakeS3) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	api, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	return newClient(api, config.MinIOConfig{
		Endpoint:      u.Host,
		Bucket:        "gallery",
		PublicBaseURL: "https://media.example.com/gallery/",
	}, nil)
}

func TestGetReadsUserMetadataAndDimensions(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{objects: map[string]http.Header{
		"gurudev-gallery/bridges/one.jpg": {
			"X-Amz-Meta-Title":    {"River Bridge"},
			"X-Amz-Meta-Category": {"Bridge Construction"},
			"X-Amz-Meta-Width":    {"1024"},
			"X-Amz-Meta-Height":   {"768"},
		},
	}}
	client := newFakeClient(t, fake)

	asset, found, err := client.Get(context.Background(), "gurudev-gallery/bridges/one.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://media.example.com/gallery/gurudev-gallery/bridges/one.jpg", asset.URL)
	assert.Equal(t, "gurudev-gallery/bridges", asset.Folder)
	assert.Equal(t, 1024, asset.Width)
	assert.Equal(t, 768, asset.Height)
	assert.Equal(t, "River Bridge", asset.Metadata["title"])
	assert.NotContains(t, asset.Metadata, "width")
	assert.Equal(t, 2024, asset.CreatedAt.Year())

	_, found, err = client.Get(context.Background(), "gurudev-gallery/bridges/missing.jpg")
	require.NoError(t, err)
	assert.False(t, found)
}

// vp8xHeader is a minimal extended WebP header for a 640x480 canvas.
func vp8xHeader() []byte {
	return []byte{
		'R', 'I', 'F', 'F', 22, 0, 0, 0, 'W', 'E', 'B', 'P',
		'V', 'P', '8', 'X', 10, 0, 0, 0,
		0, 0, 0, 0,
		0x7f, 0x02, 0x00, // width - 1
		0xdf, 0x01, 0x00, // height - 1
	}
}

func TestImageDimensions(t *testing.T) {
	t.Parallel()

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 12, 7))))

	tests := []struct {
		name          string
		body          []byte
		width, height int
		ok            bool
	}{
		{"png", pngBuf.Bytes(), 12, 7, true},
		{"webp", vp8xHeader(), 640, 480, true},
		{"not an image", []byte("plain text"), 0, 0, false},
	}
	for _, tt := range tests {
		width, height, ok := imageDimensions(tt.body)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.width, width, tt.name)
		assert.Equal(t, tt.height, height, tt.name)
	}
}

func TestDestroyReportsMissingObjects(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{objects: map[string]http.Header{
		"gurudev-gallery/roads/a.png": {},
	}}
	client := newFakeClient(t, fake)

	status, err := client.Destroy(context.Background(), "gurudev-gallery/roads/a.png")
	require.NoError(t, err)
	assert.Equal(t, storage.DestroyStatusDeleted, status)

	status, err = client.Destroy(context.Background(), "gurudev-gallery/roads/a.png")
	require.NoError(t, err)
	assert.Equal(t, storage.DestroyStatusNotFound, status)

	assert.Equal(t, []string{"gurudev-gallery/roads/a.png"}, fake.deleted)
}

func TestObjectKeyKeepsExtension(t *testing.T) {
	t.Parallel()

	key := ObjectKey("/gurudev-gallery/highways/", "Site Photo.JPG")
	assert.True(t, strings.HasPrefix(key, "gurudev-gallery/highways/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, ObjectKey("gurudev-gallery/highways", "Site Photo.JPG"))
}

func TestNormalizeMetadata(t *testing.T) {
	t.Parallel()

	meta := NormalizeMetadata(map[string]string{
		"X-Amz-Meta-Title": "Flyover",
		"Description":      "deck pour",
	})
	assert.Equal(t, storage.Metadata{"title": "Flyover", "description": "deck pour"}, meta)
}

func TestPublicBaseDefaultsToEndpoint(t *testing.T) {
	t.Parallel()

	c := newClient(nil, config.MinIOConfig{Endpoint: "minio:9000", Bucket: "gallery", UseSSL: true}, nil)
	asset := c.toAsset("gurudev-gallery/roads/x.png", map[string]string{"Width": "5", "Height": "6"}, time.Now())
	assert.Equal(t, "https://minio:9000/gallery/gurudev-gallery/roads/x.png", asset.URL)
	assert.Equal(t, 5, asset.Width)
	assert.Empty(t, asset.Metadata)
}
