package gallery

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gurudev-engicon/gallery-backend/pkg/enums"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage"
	"golang.org/x/sync/errgroup"
)

// Repository maps gallery categories onto asset store folders.
type Repository interface {
	ListImages(ctx context.Context, category string) ([]GalleryImage, error)
	ListAll(ctx context.Context) (map[enums.Category][]GalleryImage, error)
	FindImage(ctx context.Context, id string) (GalleryImage, error)
	UploadImage(ctx context.Context, input UploadInput) (GalleryImage, error)
	UpdateImage(ctx context.Context, id, title, description string) (GalleryImage, error)
	DeleteImage(ctx context.Context, id string) error
}

// Options tunes repository behaviour.
type Options struct {
	FolderRoot string
	// DefaultContent fills blank upload titles and descriptions from the
	// category's stock pool. When off, a blank title is rejected.
	DefaultContent bool
	Logger         *logger.Logger
	// Intn picks a pool entry; defaults to math/rand.
	Intn func(int) int
}

type repository struct {
	store          storage.Store
	root           string
	defaultContent bool
	logg           *logger.Logger
	intn           func(int) int
}

// NewRepository constructs a gallery repository over store.
func NewRepository(store storage.Store, opts Options) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("asset store required")
	}
	root := strings.Trim(strings.TrimSpace(opts.FolderRoot), "/")
	if root == "" {
		return nil, fmt.Errorf("gallery folder root required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	intn := opts.Intn
	if intn == nil {
		intn = defaultIntn
	}
	return &repository{
		store:          store,
		root:           root,
		defaultContent: opts.DefaultContent,
		logg:           logg,
		intn:           intn,
	}, nil
}

func (r *repository) parseCategory(raw string) (enums.Category, error) {
	category, err := enums.ParseCategory(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidCategory, fmt.Sprintf("unknown category %q", raw)).
			WithDetails(map[string]any{"category": raw, "allowed": enums.Categories()})
	}
	return category, nil
}

func (r *repository) ListImages(ctx context.Context, category string) ([]GalleryImage, error) {
	cat, err := r.parseCategory(category)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, cat)
}

func (r *repository) list(ctx context.Context, category enums.Category) ([]GalleryImage, error) {
	folder := category.Folder(r.root)
	assets, err := r.store.Search(ctx, folder)
	if err != nil {
		return nil, upstream(err, "list gallery images")
	}

	images := make([]GalleryImage, 0, len(assets))
	for _, asset := range assets {
		images = append(images, toImage(asset, category, folder))
	}
	return images, nil
}

// ListAll fetches every category concurrently. All searches finish before
// the first error, if any, is returned.
func (r *repository) ListAll(ctx context.Context) (map[enums.Category][]GalleryImage, error) {
	categories := enums.Categories()
	results := make([][]GalleryImage, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		g.Go(func() error {
			images, err := r.list(gctx, category)
			if err != nil {
				return err
			}
			results[i] = images
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[enums.Category][]GalleryImage, len(categories))
	for i, category := range categories {
		out[category] = results[i]
	}
	return out, nil
}

func (r *repository) FindImage(ctx context.Context, id string) (GalleryImage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return GalleryImage{}, pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	category, ok := enums.CategoryForFolder(r.root, path.Dir(id))
	if !ok {
		return GalleryImage{}, notFound(id)
	}
	asset, found, err := r.store.Get(ctx, id)
	if err != nil {
		return GalleryImage{}, upstream(err, "load gallery image")
	}
	if !found {
		return GalleryImage{}, notFound(id)
	}
	return toImage(asset, category, category.Folder(r.root)), nil
}

func (r *repository) UploadImage(ctx context.Context, input UploadInput) (GalleryImage, error) {
	category, err := r.parseCategory(input.Category)
	if err != nil {
		return GalleryImage{}, err
	}
	if len(input.File) == 0 {
		return GalleryImage{}, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	pool, hasPool := DefaultContent[category]
	usePool := r.defaultContent && hasPool
	if title == "" {
		if !usePool {
			return GalleryImage{}, pkgerrors.New(pkgerrors.CodeValidation, "title is required").
				WithDetails(map[string]any{"field": "title"})
		}
		title = pickFrom(pool.Titles, r.intn)
	}
	if description == "" && usePool {
		description = pickFrom(pool.Descriptions, r.intn)
	}

	folder := category.Folder(r.root)
	asset, err := r.store.Upload(ctx, folder, storage.UploadInput{
		Body:        input.File,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		Metadata: storage.Metadata{
			metaTitle:       title,
			metaDescription: description,
			metaCategory:    category.String(),
		},
	})
	if err != nil {
		return GalleryImage{}, upstream(err, "upload gallery image")
	}

	image := toImage(asset, category, folder)
	// The upload response may omit context; the values just written are authoritative.
	image.Title = title
	image.Description = description

	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"category": category.String(),
		"image_id": image.ID,
	}), "gallery.upload.stored")
	return image, nil
}

func (r *repository) UpdateImage(ctx context.Context, id, title, description string) (GalleryImage, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return GalleryImage{}, pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	if title == "" {
		return GalleryImage{}, pkgerrors.New(pkgerrors.CodeValidation, "title is required").
			WithDetails(map[string]any{"field": "title"})
	}

	current, err := r.FindImage(ctx, id)
	if err != nil {
		return GalleryImage{}, err
	}

	status, err := r.store.UpdateMetadata(ctx, id, storage.Metadata{
		metaTitle:       title,
		metaDescription: strings.TrimSpace(description),
		metaCategory:    current.Category.String(),
	})
	if err != nil {
		return GalleryImage{}, upstream(err, "update gallery image")
	}
	if status == storage.UpdateStatusNotFound {
		return GalleryImage{}, notFound(id)
	}

	updated, err := r.FindImage(ctx, id)
	if err != nil {
		return GalleryImage{}, err
	}

	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"category": updated.Category.String(),
		"image_id": id,
	}), "gallery.update.applied")
	return updated, nil
}

func (r *repository) DeleteImage(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	status, err := r.store.Destroy(ctx, id)
	if err != nil {
		return upstream(err, "delete gallery image")
	}
	if status == storage.DestroyStatusNotFound {
		return notFound(id)
	}
	r.logg.Info(r.logg.WithField(ctx, "image_id", id), "gallery.delete.destroyed")
	return nil
}

// toImage denormalizes a raw asset. Titles fall back to the folder leaf and
// then to a generic name.
func toImage(asset storage.Asset, category enums.Category, folder string) GalleryImage {
	title := strings.TrimSpace(asset.Metadata[metaTitle])
	if title == "" {
		title = strings.Replace(path.Base(folder), "-", " ", 1)
	}
	if title == "" || title == "." || title == "/" {
		title = fallbackImageName
	}
	return GalleryImage{
		ID:          asset.PublicID,
		URL:         asset.URL,
		Title:       title,
		Description: asset.Metadata[metaDescription],
		Width:       asset.Width,
		Height:      asset.Height,
		Category:    category,
	}
}

func upstream(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeUpstreamUnavailable {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, op)
}

func notFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "image not found").
		WithDetails(map[string]any{"id": id})
}
