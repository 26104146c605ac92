package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upload registers an externally stored file. The engine never touches
// file bytes; it only checks existence, ownership and MIME type when
// gating a submission.
type Upload struct {
	ID        string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"owner_id" validate:"required"`
	MIME      string         `gorm:"type:varchar(64)" json:"mime"`
	URL       string         `json:"url"`
	Size      int64          `json:"size"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
