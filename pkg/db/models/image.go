package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImageRecord mirrors one uploaded asset in the legacy images table.
type ImageRecord struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ImageURL  string    `gorm:"column:image_url;not null" json:"image_url"`
	PublicID  string    `gorm:"column:public_id;not null;uniqueIndex" json:"public_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ImageRecord) TableName() string { return "images" }

// BeforeCreate assigns an id when the caller left it empty.
func (r *ImageRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
