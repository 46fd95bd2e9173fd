package controllers

import (
	"net/http"
	"strings"

	"github.com/gurudev-engicon/gallery-backend/api/responses"
	"github.com/gurudev-engicon/gallery-backend/api/validators"
	"github.com/gurudev-engicon/gallery-backend/internal/gallery"
	"github.com/gurudev-engicon/gallery-backend/pkg/enums"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
)

type galleryImagesResponse struct {
	Images []gallery.GalleryImage `json:"images"`
}

type galleryProjectsResponse struct {
	Category enums.Category    `json:"category"`
	Projects []gallery.Project `json:"projects"`
}

type galleryUpdateRequest struct {
	PublicID    string `json:"publicId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type galleryDeleteRequest struct {
	PublicID string `json:"publicId" validate:"required"`
}

type deleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// GalleryList returns one category's images, or every category keyed by its
// partition when no category is given.
func GalleryList(repo gallery.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gallery repository unavailable"))
			return
		}

		category := strings.TrimSpace(r.URL.Query().Get("category"))
		if category == "" {
			all, err := repo.ListAll(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			keyed := make(map[string][]gallery.GalleryImage, len(all))
			for _, cat := range enums.Categories() {
				images := all[cat]
				if images == nil {
					images = []gallery.GalleryImage{}
				}
				keyed[cat.Partition()] = images
			}
			responses.WriteSuccess(w, keyed)
			return
		}

		images, err := repo.ListImages(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, galleryImagesResponse{Images: images})
	}
}

// GalleryProjects returns a category's images grouped into projects.
func GalleryProjects(repo gallery.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gallery repository unavailable"))
			return
		}

		category := strings.TrimSpace(r.URL.Query().Get("category"))
		images, err := repo.ListImages(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, galleryProjectsResponse{
			Category: enums.Category(category),
			Projects: gallery.GroupByTitle(images),
		})
	}
}

// GalleryUpload stores a single image. It does not enforce project capacity.
func GalleryUpload(repo gallery.Repository, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gallery repository unavailable"))
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

		image, err := repo.UploadImage(r.Context(), gallery.UploadInput{
			Category:    validators.FormValue(r, "category", 0),
			File:        file.Data,
			FileName:    file.Name,
			ContentType: file.ContentType,
			Title:       validators.FormValue(r, "title", maxTitleLen),
			Description: validators.FormValue(r, "description", maxDescriptionLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, image)
	}
}

// GalleryUpdate rewrites an image's title and description.
func GalleryUpdate(repo gallery.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gallery repository unavailable"))
			return
		}

		var payload galleryUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		image, err := repo.UpdateImage(r.Context(),
			strings.TrimSpace(payload.PublicID),
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

// GalleryDelete destroys an image by public id.
func GalleryDelete(repo gallery.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gallery repository unavailable"))
			return
		}

		var payload galleryDeleteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := strings.TrimSpace(payload.PublicID)
		if err := repo.DeleteImage(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleteResponse{ID: id, Deleted: true})
	}
}
