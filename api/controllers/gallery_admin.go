package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gurudev-engicon/gallery-backend/api/responses"
	"github.com/gurudev-engicon/gallery-backend/api/validators"
	"github.com/gurudev-engicon/gallery-backend/internal/gallery/admin"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
)

type openSessionRequest struct {
	Category string `json:"category" validate:"required"`
}

type imageTextRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type closeSessionResponse struct {
	SessionID string `json:"session_id"`
	Closed    bool   `json:"closed"`
}

type cancelPreviewResponse struct {
	PreviewID string `json:"preview_id"`
	Released  bool   `json:"released"`
}

type deleteOutcomeResponse struct {
	ID      string              `json:"id"`
	Outcome admin.DeleteOutcome `json:"outcome"`
}

func writeStoreUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin session store unavailable"))
}

// sessionFromRequest resolves {sessionId} and tags the request context.
func sessionFromRequest(store *admin.SessionStore, r *http.Request, logg *logger.Logger) (*admin.Session, *http.Request, error) {
	s, err := store.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		return nil, r, err
	}
	if logg != nil {
		ctx := logg.WithSessionID(r.Context(), s.ID().String())
		ctx = logg.WithCategory(ctx, s.Category().String())
		r = r.WithContext(ctx)
	}
	return s, r, nil
}

// imageIDParam reads the wildcard image id. Public ids contain slashes so
// clients may send them escaped.
func imageIDParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "*")
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image id")
	}
	id = strings.Trim(id, "/")
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	return id, nil
}

// AdminOpenSession starts an editing session over one category.
func AdminOpenSession(store *admin.SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStoreUnavailable(w, r, logg)
			return
		}

		var payload openSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		s, err := store.Open(r.Context(), strings.TrimSpace(payload.Category))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, s.Snapshot())
	}
}

func AdminGetSession(store *admin.SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStoreUnavailable(w, r, logg)
			return
		}
		s, r, err := sessionFromRequest(store, r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, s.Snapshot())
	}
}

// AdminCloseSession drops the session and releases its previews.
func AdminCloseSession(store *admin.SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStoreUnavailable(w, r, logg)
			return
		}
		id := chi.URLParam(r, "sessionId")
		if err := store.CloseSession(id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, closeSessionResponse{SessionID: id, Closed: true})
	}
}

// AdminStagePreview holds an uploaded file as a scoped preview.
func AdminStagePreview(store *admin.SessionStore, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStoreUnavailable(w, r, logg)
			return
		}
		s, r, err := sessionFromRequest(store, r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		file, err := validators.FormFile(r, "file", maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		p, err := s.StagePreview(file.Name, file.ContentType, file.Data)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, p.Info())
	}
}

func AdminCancelPreview(store *admin.SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStoreUnavailable(w, r, logg)
			return
		}
		s, r, err := sessionFromRequest(store, r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		previewID := chi.URLParam(r, "previewId")
		if err := s.CancelPreview(previewID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cancelPreviewResponse{PreviewID: previewID, Released: true})
	}
}

// AdminCommitPreview uploads a staged preview under the given project title.
func AdminCommitPreview(store *admin.SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStoreUnavailable(w, r, logg)
			return
		}
		s, r, err := sessionFromRequest(store, r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload imageTextRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		image, err := s.CommitPreview(r.Context(), chi.URLParam(r, "previewId"),
			validators.SanitizeString(payload.Title, maxTitleLen),
			validators.SanitizeString(payload.Description, maxDescriptionLen),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, image)
	}
}

// AdminUploadBatch uploads every submitted file in order under one project
// title and stops at the first failure.
func AdminUploadBatch(store *admin.SessionStore, maxBytes int64, maxFiles int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStoreUnavailable(w, r, logg)
			return
		}
		s, r, err := sessionFromRequest(store, r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := validators.ParseMultipartBatch(w, r, maxBytes, maxFiles); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if n := validators.FileCount(r, "files"); n > maxFiles {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many files in batch").
				WithDetails(map[string]any{"field": "files", "count": n, "max_files": maxFiles}))
			return
		}
		files, err := validators.FormFiles(r, "files", maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]admin.BatchItem, 0, len(files))
		for _, f := range files {
			items = append(items, admin.BatchItem{Name: f.Name, ContentType: f.ContentType, Data: f.Data})
		}

		result, err := s.UploadBatch(r.Context(), items,
			validators.FormValue(r, "title", maxTitleLen),
			validators.FormValue(r, "description", maxDescriptionLen),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, batchFailure(err, result))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func batchFailure(err error, result admin.BatchResult) error {
	var batchErr *admin.BatchError
	if !errors.As(err, &batchErr) {
		return err
	}
	code := pkgerrors.CodeInternal
	details := map[string]any{
		"failed_index": batchErr.Index,
		"failed_name":  batchErr.Name,
		"uploaded":     result.Uploaded,
	}
	if cause := pkgerrors.As(batchErr.Err); cause != nil {
		code = cause.Code()
		if d := cause.Details(); d != nil {
			details["cause"] = d
		}
	}
	return pkgerrors.Wrap(code, batchErr, batchErr.Error()).WithDetails(details)
}

// AdminUpdateImage rewrites a session image's title and description.
func AdminUpdateImage(store *admin.SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStoreUnavailable(w, r, logg)
			return
		}
		s, r, err := sessionFromRequest(store, r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := imageIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload imageTextRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		image, err := s.UpdateImage(r.Context(), id,
			validators.SanitizeString(payload.Title, maxTitleLen),
			validators.SanitizeString(payload.Description, maxDescriptionLen),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, image)
	}
}

// AdminDeleteImage removes a session image. A missing image is reported as
// already gone with a 200.
func AdminDeleteImage(store *admin.SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeStoreUnavailable(w, r, logg)
			return
		}
		s, r, err := sessionFromRequest(store, r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := imageIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := s.DeleteImage(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleteOutcomeResponse{ID: id, Outcome: outcome})
	}
}
