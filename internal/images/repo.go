package images

import (
	"context"

	"github.com/google/uuid"
	"github.com/gurudev-engicon/gallery-backend/pkg/db/models"
	"github.com/gurudev-engicon/gallery-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists image records.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a repository to the provided gorm connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, record *models.ImageRecord) (*models.ImageRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	var record models.ImageRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns records newest first. The result holds up to limit+1 rows so
// callers can detect a following page.
func (r *Repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.ImageRecord, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ImageRecord{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit))

	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.ImageRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateAsset points a record at a new asset.
func (r *Repository) UpdateAsset(ctx context.Context, id uuid.UUID, imageURL, publicID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.ImageRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"image_url": imageURL, "public_id": publicID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ImageRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
