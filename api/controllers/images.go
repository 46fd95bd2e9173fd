package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gurudev-engicon/gallery-backend/api/responses"
	"github.com/gurudev-engicon/gallery-backend/api/validators"
	"github.com/gurudev-engicon/gallery-backend/internal/images"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
	"github.com/gurudev-engicon/gallery-backend/pkg/pagination"
)

func imagesUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "images service unavailable"))
}

// ImagesList pages through image records newest first.
func ImagesList(svc images.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			imagesUnavailable(w, r, logg)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ImagesUpload stores a binary and records it.
func ImagesUpload(svc images.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			imagesUnavailable(w, r, logg)
			return
		}

		file, err := readImageFile(w, r, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Upload(r.Context(), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

func ImagesGet(svc images.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			imagesUnavailable(w, r, logg)
			return
		}

		id, err := validators.ParseUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// ImagesReplace swaps the binary behind an existing record.
func ImagesReplace(svc images.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			imagesUnavailable(w, r, logg)
			return
		}

		id, err := validators.ParseUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		file, err := readImageFile(w, r, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Replace(r.Context(), id, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func ImagesDelete(svc images.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			imagesUnavailable(w, r, logg)
			return
		}

		id, err := validators.ParseUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleteResponse{ID: id.String(), Deleted: true})
	}
}

func readImageFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (images.File, error) {
	if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
		return images.File{}, err
	}
	file, err := validators.FormFile(r, "file", maxBytes)
	if err != nil {
		return images.File{}, err
	}
	return images.File{Name: file.Name, ContentType: file.ContentType, Data: file.Data}, nil
}
