package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification kinds emitted by the review workflow.
const (
	NotifyRevisionApproved = "revision.approved"
	NotifyRevisionRejected = "revision.rejected"
	NotifyComicPublished   = "comic.published"
)

// Notification is a delivered review-outcome event. Rows are written by
// the worker; delivery failures never affect the state transition that
// emitted them.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id" validate:"required"`
	Kind      string         `gorm:"type:varchar(32);not null" json:"kind" validate:"required"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
}
