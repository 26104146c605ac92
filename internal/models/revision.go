package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Revision statuses. A revision is editable only while draft or rejected;
// pending_review revisions are read-only until a moderator decides.
const (
	RevisionDraft         = "draft"
	RevisionPendingReview = "pending_review"
	RevisionApproved      = "approved"
	RevisionRejected      = "rejected"
)

// Revision is one versioned snapshot of a comic's graph. Versions are
// monotonically increasing per comic starting at 1; the composite unique
// index backs the MAX(version)+1 allocation done inside the save
// transaction. Revisions are never deleted individually, only cascaded
// with their comic.
type Revision struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ComicID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_revisions_comic_version,unique" json:"comic_id" validate:"required"`
	Version         int            `gorm:"not null;index:idx_revisions_comic_version,unique" json:"version" validate:"gte=1"`
	Status          string         `gorm:"type:varchar(16);index;not null;default:draft" json:"status" validate:"required,oneof=draft pending_review approved rejected"`
	Payload         datatypes.JSON `gorm:"type:jsonb" json:"payload" validate:"required"`
	PayloadSHA      string         `gorm:"type:varchar(64)" json:"payload_sha"`
	CreatedBy       uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	SubmittedAt     *time.Time     `json:"submitted_at"`
	ReviewedAt      *time.Time     `json:"reviewed_at"`
	ReviewedBy      *uuid.UUID     `gorm:"type:uuid" json:"reviewed_by"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// Editable reports whether the creator may still replace the payload.
func (r *Revision) Editable() bool {
	return r.Status == RevisionDraft || r.Status == RevisionRejected
}
