package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type part struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFormFileDetectsImageType(t *testing.T) {
	req := multipartRequest(t, map[string]string{"title": "  NH-31 Widening \x00"}, part{"file", "site.bin", pngBytes})
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))

	file, err := FormFile(req, "file", 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, "site.bin", file.Name)
	assert.Equal(t, "NH-31 Widening", FormValue(req, "title", 200))
}

func TestFormFileRejectsNonImage(t *testing.T) {
	req := multipartRequest(t, nil, part{"file", "notes.txt", []byte("just text")})
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))

	_, err := FormFile(req, "file", 1<<20)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFormFileMissing(t *testing.T) {
	req := multipartRequest(t, map[string]string{"category": "Highway Construction"})
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))

	_, err := FormFile(req, "file", 1<<20)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFormFilesKeepsOrderAndSizeLimit(t *testing.T) {
	big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, 64)...)
	req := multipartRequest(t, nil,
		part{"files", "a.png", pngBytes},
		part{"files", "b.png", pngBytes},
	)
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))
	files, err := FormFiles(req, "files", 1<<20)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.png", files[0].Name)
	assert.Equal(t, "b.png", files[1].Name)

	req = multipartRequest(t, nil, part{"files", "big.png", big})
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))
	_, err = FormFiles(req, "files", int64(len(pngBytes)))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type updateBody struct {
	PublicID    string `json:"publicId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"publicId":"","title":"x"}`))
	var body updateBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"publicId": "is required"}, typed.Details())
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"publicId":"a","title":"b","extra":1}`))
	var body updateBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=x&big=500", nil)

	v, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = ParseQueryInt(req, "missing", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	_, err = ParseQueryInt(req, "bad", 20, 1, 100)
	assert.Error(t, err)
	_, err = ParseQueryInt(req, "big", 20, 1, 100)
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abc  ", 0))
	assert.Equal(t, "ab", SanitizeString("abcdef", 2))
	assert.Equal(t, "पुल", SanitizeString("पुलनिर्माण", 3))
}
