package images

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gurudev-engicon/gallery-backend/pkg/db"
	"github.com/gurudev-engicon/gallery-backend/pkg/db/models"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
	"github.com/gurudev-engicon/gallery-backend/pkg/pagination"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage"
	"github.com/gurudev-engicon/gallery-backend/pkg/types"
)

type recordRepository interface {
	Create(ctx context.Context, record *models.ImageRecord) (*models.ImageRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error)
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.ImageRecord, error)
	UpdateAsset(ctx context.Context, id uuid.UUID, imageURL, publicID string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service manages image records and the assets behind them.
type Service interface {
	Upload(ctx context.Context, file File) (*models.ImageRecord, error)
	List(ctx context.Context, params pagination.Params) (types.Page[models.ImageRecord], error)
	Get(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error)
	Replace(ctx context.Context, id uuid.UUID, file File) (*models.ImageRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// File is an uploaded binary.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type service struct {
	repo   recordRepository
	store  storage.Store
	folder string
	logg   *logger.Logger
}

// NewService wires the record repository to an asset store folder.
func NewService(repo recordRepository, store storage.Store, folder string, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("image repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("asset store required")
	}
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return nil, fmt.Errorf("records folder required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, store: store, folder: folder, logg: logg}, nil
}

func (s *service) Upload(ctx context.Context, file File) (*models.ImageRecord, error) {
	if len(file.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}

	asset, err := s.put(ctx, file)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Create(ctx, &models.ImageRecord{ImageURL: asset.URL, PublicID: asset.PublicID})
	if err != nil {
		s.compensate(ctx, asset.PublicID)
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "image already recorded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save image record")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"image_id":  record.ID.String(),
		"public_id": record.PublicID,
	}), "images.upload.recorded")
	return record, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (types.Page[models.ImageRecord], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return types.Page[models.ImageRecord]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, params.Limit, cursor)
	if err != nil {
		return types.Page[models.ImageRecord]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list image records")
	}

	items, more := pagination.Trim(rows, params.Limit)
	page := types.Page[models.ImageRecord]{Items: items}
	if page.Items == nil {
		page.Items = []models.ImageRecord{}
	}
	if more {
		last := items[len(items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load image record")
	}
	return record, nil
}

// Replace stores the new binary, repoints the record and then destroys the
// previous asset. The record never references a missing asset.
func (s *service) Replace(ctx context.Context, id uuid.UUID, file File) (*models.ImageRecord, error) {
	if len(file.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	asset, err := s.put(ctx, file)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAsset(ctx, id, asset.URL, asset.PublicID); err != nil {
		s.compensate(ctx, asset.PublicID)
		if db.IsNotFound(err) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update image record")
	}

	if _, err := s.store.Destroy(ctx, current.PublicID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "public_id", current.PublicID), "images.replace.destroy_previous_failed", err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"image_id":  id.String(),
		"previous":  current.PublicID,
		"public_id": updated.PublicID,
	}), "images.replace.applied")
	return updated, nil
}

// Delete destroys the asset and then the record. An asset already missing
// from the store does not block removing the record.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	status, err := s.store.Destroy(ctx, record.PublicID)
	if err != nil {
		return upstream(err, "destroy asset")
	}
	if status == storage.DestroyStatusNotFound {
		s.logg.Warn(s.logg.WithField(ctx, "public_id", record.PublicID), "images.delete.asset_missing")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return notFound(id)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image record")
	}
	s.logg.Info(s.logg.WithField(ctx, "image_id", id.String()), "images.delete.removed")
	return nil
}

func (s *service) put(ctx context.Context, file File) (storage.Asset, error) {
	asset, err := s.store.Upload(ctx, s.folder, storage.UploadInput{
		Body:        file.Data,
		FileName:    file.Name,
		ContentType: file.ContentType,
	})
	if err != nil {
		return storage.Asset{}, upstream(err, "upload asset")
	}
	return asset, nil
}

func (s *service) compensate(ctx context.Context, publicID string) {
	if _, err := s.store.Destroy(ctx, publicID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "public_id", publicID), "images.compensate.destroy_failed", err)
	}
}

func upstream(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, op)
}

func notFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "image not found").WithDetails(map[string]any{"id": id.String()})
}
