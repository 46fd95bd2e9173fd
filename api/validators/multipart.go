package validators

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
)

// AllowedImageTypes lists the MIME types accepted for image uploads.
var AllowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// multipart overhead allowed on top of the file limit for the other fields
const formOverhead = 1 << 20

// UploadedFile is a multipart file part read into memory.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ParseMultipart caps the body at maxFileBytes plus form overhead and parses it.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxFileBytes int64) error {
	return parseMultipart(w, r, maxFileBytes+formOverhead, maxFileBytes)
}

// ParseMultipartBatch caps the body at maxFiles files of maxFileBytes each.
// Per-file limits are enforced when the parts are read.
func ParseMultipartBatch(w http.ResponseWriter, r *http.Request, maxFileBytes int64, maxFiles int) error {
	if maxFiles <= 0 {
		maxFiles = 1
	}
	return parseMultipart(w, r, maxFileBytes*int64(maxFiles)+formOverhead, maxFileBytes)
}

func parseMultipart(w http.ResponseWriter, r *http.Request, maxBody, maxMemory int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.New(pkgerrors.CodeValidation, "upload too large").WithDetails(map[string]any{"max_bytes": maxBody - formOverhead})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormFile reads a single required image part.
func FormFile(r *http.Request, field string, maxFileBytes int64) (UploadedFile, error) {
	files, err := FormFiles(r, field, maxFileBytes)
	if err != nil {
		return UploadedFile{}, err
	}
	return files[0], nil
}

// FileCount reports how many parts were submitted under field.
func FileCount(r *http.Request, field string) int {
	if r.MultipartForm == nil {
		return 0
	}
	return len(r.MultipartForm.File[field])
}

// FormFiles reads every image part submitted under field, in order.
func FormFiles(r *http.Request, field string, maxFileBytes int64) ([]UploadedFile, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required").WithDetails(map[string]any{"field": field})
	}
	headers := r.MultipartForm.File[field]
	out := make([]UploadedFile, 0, len(headers))
	for i, fh := range headers {
		file, err := readPart(fh, maxFileBytes)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				return nil, typed.WithDetails(map[string]any{"field": field, "index": i + 1, "file_name": fh.Filename})
			}
			return nil, err
		}
		out = append(out, file)
	}
	return out, nil
}

func readPart(fh *multipart.FileHeader, maxFileBytes int64) (UploadedFile, error) {
	if fh.Size > maxFileBytes {
		return UploadedFile{}, pkgerrors.New(pkgerrors.CodeValidation, "upload too large")
	}
	f, err := fh.Open()
	if err != nil {
		return UploadedFile{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable file part")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
	if err != nil {
		return UploadedFile{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable file part")
	}
	if int64(len(data)) > maxFileBytes {
		return UploadedFile{}, pkgerrors.New(pkgerrors.CodeValidation, "upload too large")
	}
	if len(data) == 0 {
		return UploadedFile{}, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}

	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), AllowedImageTypes...) {
		return UploadedFile{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported file type %s", detected.String()))
	}

	name := strings.TrimSpace(fh.Filename)
	if name == "" {
		name = "upload" + detected.Extension()
	}
	return UploadedFile{Name: name, ContentType: detected.String(), Data: data}, nil
}

// FormValue returns a trimmed, sanitized form field.
func FormValue(r *http.Request, field string, maxLen int) string {
	return SanitizeString(r.FormValue(field), maxLen)
}
