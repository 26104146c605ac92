package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Comic publication states.
const (
	ComicDraft     = "draft"
	ComicPublished = "published"
)

// Comic is the aggregate root an author works on. The summary fields
// (title through total_endings) are denormalized copies recomputed from
// the approved graph on publish; the revision payload stays authoritative
// for the draft. PublishedRevisionID is a lookup back-reference, not a
// lifecycle control: the revision's own status decides what is published.
type Comic struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AuthorID            uuid.UUID      `gorm:"type:uuid;index;not null" json:"author_id" validate:"required"`
	AuthorName          string         `gorm:"type:varchar(100)" json:"author_name"`
	Title               string         `gorm:"not null" json:"title" validate:"required"`
	Description         string         `gorm:"type:text" json:"description"`
	CoverFileID         string         `gorm:"type:varchar(64)" json:"cover_file_id"`
	CoverImage          string         `json:"cover_image"`
	Genres              datatypes.JSON `gorm:"type:jsonb" json:"genres"`
	Tags                datatypes.JSON `gorm:"type:jsonb" json:"tags"`
	StartNodeID         string         `gorm:"type:varchar(64)" json:"start_node_id"`
	EstimatedMinutes    int            `json:"estimated_minutes"`
	TotalPages          int            `json:"total_pages"`
	TotalEndings        int            `json:"total_endings"`
	Status              string         `gorm:"type:varchar(16);index;not null;default:draft" json:"status" validate:"oneof=draft published"`
	PublishedRevisionID *uuid.UUID     `gorm:"type:uuid" json:"published_revision_id"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}
