package cloudinary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gurudev-engicon/gallery-backend/pkg/config"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "key-123"
	testSecret = "secret-xyz"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := newClient(config.CloudinaryConfig{
		CloudName:    "demo",
		APIKey:       testKey,
		APISecret:    testSecret,
		UploadPrefix: srv.URL + "/",
		ResourceType: "image",
	}, 5*time.Second, nil)
	require.NoError(t, err)
	return client
}

func writeNotFound(w http.ResponseWriter, id string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, `{"error":{"message":"Resource not found - `+id+`"}}`)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := newClient(config.CloudinaryConfig{CloudName: "demo", APIKey: testKey}, time.Second, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api secret")
}

func TestSearchDecodesBothContextShapes(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/demo/resources/search"), r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "gurudev-gallery/highways")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"total_count":3,"resources":[
			{"public_id":"gurudev-gallery/highways/a","secure_url":"https://cdn/a.jpg","width":800,"height":600,"folder":"gurudev-gallery/highways","created_at":"2024-05-01T10:00:00Z","context":{"title":"NH-31 Widening","description":"phase 1"}},
			{"public_id":"gurudev-gallery/highways/b","secure_url":"https://cdn/b.jpg","width":640,"height":480,"created_at":"2024-05-02T10:00:00Z","context":{"custom":{"title":"Bypass Road"}}},
			{"public_id":"gurudev-gallery/highways/c","secure_url":"https://cdn/c.jpg","width":10,"height":10,"created_at":"2024-05-03T10:00:00Z"}
		]}`)
	})

	assets, err := client.Search(context.Background(), "gurudev-gallery/highways")
	require.NoError(t, err)
	require.Len(t, assets, 3)

	assert.Equal(t, "NH-31 Widening", assets[0].Metadata["title"])
	assert.Equal(t, "phase 1", assets[0].Metadata["description"])
	assert.Equal(t, 2024, assets[0].CreatedAt.Year())
	assert.Equal(t, "Bypass Road", assets[1].Metadata["title"])
	assert.Equal(t, "gurudev-gallery/highways", assets[1].Folder)
	assert.Empty(t, assets[2].Metadata)
	assert.Equal(t, 800, assets[0].Width)
}

func TestSearchUpstreamFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"General Error"}}`)
	})

	_, err := client.Search(context.Background(), "gurudev-gallery/roads")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstreamUnavailable))
}

func TestUploadSendsFolderAndContext(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/demo/image/upload"), r.URL.Path)
		assert.Equal(t, "gurudev-gallery/bridges", r.FormValue("folder"))
		assert.Contains(t, r.FormValue("context"), "title=River Bridge")
		assert.NotEmpty(t, r.FormValue("signature"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		raw, _ := io.ReadAll(file)
		assert.Equal(t, "jpeg-bytes", string(raw))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"public_id":"gurudev-gallery/bridges/xyz","secure_url":"https://cdn/xyz.jpg","width":1200,"height":900,"created_at":"2024-05-01T10:00:00Z"}`)
	})

	asset, err := client.Upload(context.Background(), "gurudev-gallery/bridges", storage.UploadInput{
		Body:     []byte("jpeg-bytes"),
		FileName: "bridge.jpg",
		Metadata: storage.Metadata{"title": "River Bridge", "description": "", "category": "Bridge Construction"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gurudev-gallery/bridges/xyz", asset.PublicID)
	assert.Equal(t, "gurudev-gallery/bridges", asset.Folder)
	assert.Equal(t, 1200, asset.Width)
	assert.Equal(t, "River Bridge", asset.Metadata["title"])
}

func TestDestroyMapsResults(t *testing.T) {
	t.Parallel()

	results := map[string]string{"present": "ok", "gone": "not found"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/demo/image/destroy"), r.URL.Path)
		id := r.FormValue("public_id")
		w.Header().Set("Content-Type", "application/json")
		if id == "broken" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"message":"Service Unavailable"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"result":"`+results[id]+`"}`)
	})

	status, err := client.Destroy(context.Background(), "present")
	require.NoError(t, err)
	assert.Equal(t, storage.DestroyStatusDeleted, status)

	status, err = client.Destroy(context.Background(), "gone")
	require.NoError(t, err)
	assert.Equal(t, storage.DestroyStatusNotFound, status)

	_, err = client.Destroy(context.Background(), "broken")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstreamUnavailable))
}

func TestUpdateMetadataUsesExplicitAndReportsMissing(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/demo/image/explicit"), r.URL.Path)
		id := r.FormValue("public_id")
		if id == "missing" {
			writeNotFound(w, id)
			return
		}
		assert.Contains(t, r.FormValue("context"), "title=Renamed")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"public_id":"x"}`)
	})

	meta := storage.Metadata{"title": "Renamed", "description": "new"}
	status, err := client.UpdateMetadata(context.Background(), "x", meta)
	require.NoError(t, err)
	assert.Equal(t, storage.UpdateStatusUpdated, status)

	status, err = client.UpdateMetadata(context.Background(), "missing", meta)
	require.NoError(t, err)
	assert.Equal(t, storage.UpdateStatusNotFound, status)
}

func TestGetAndPing(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/demo/ping"):
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		case strings.HasSuffix(r.URL.Path, "/roads/known site"):
			_, _ = io.WriteString(w, `{"public_id":"gurudev-gallery/roads/known site","secure_url":"https://cdn/k.jpg","width":5,"height":6,"created_at":"2024-05-01T10:00:00Z","context":{"custom":{"title":"City Road Network"}}}`)
		default:
			writeNotFound(w, r.URL.Path)
		}
	})

	require.NoError(t, client.Ping(context.Background()))

	asset, found, err := client.Get(context.Background(), "gurudev-gallery/roads/known site")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "City Road Network", asset.Metadata["title"])
	assert.Equal(t, "gurudev-gallery/roads", asset.Folder)

	_, found, err = client.Get(context.Background(), "gurudev-gallery/roads/unknown")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = client.Get(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDecodeContextShapes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, storage.Metadata{"title": "A"}, decodeContext(map[string]any{"custom": map[string]any{"title": "A"}}))
	assert.Equal(t, storage.Metadata{"title": "B", "n": "3"}, decodeContext(map[string]any{"title": "B", "n": 3, "skip": nil}))
	assert.Empty(t, decodeContext(nil))
}
