package gallery

import "github.com/gurudev-engicon/gallery-backend/pkg/enums"

// GalleryImage is one project photograph as exposed to readers and the admin
// surface. ID, URL and dimensions are assigned by the asset store.
type GalleryImage struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Category    enums.Category `json:"category"`
}

// Project groups images sharing a title.
type Project struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Images      []GalleryImage `json:"images"`
	Thumbnail   string         `json:"thumbnail"`
}

// UploadInput is a single image upload into a category.
type UploadInput struct {
	Category    string
	File        []byte
	FileName    string
	ContentType string
	Title       string
	Description string
}

const (
	metaTitle       = "title"
	metaDescription = "description"
	metaCategory    = "category"

	untitledProject   = "Untitled"
	fallbackImageName = "Project Image"
)
