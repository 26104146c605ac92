package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Page is one immutable reader-facing record derived from a scene node on
// publish. PageID is the node id carried across from the draft graph;
// choices reference other pages by that same id. The whole set for a
// comic is replaced atomically by the publish transform, so pages carry
// no soft delete.
type Page struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ComicID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_pages_comic_page,unique" json:"comic_id" validate:"required"`
	PageID      string         `gorm:"type:varchar(64);not null;index:idx_pages_comic_page,unique" json:"page_id" validate:"required"`
	RevisionID  uuid.UUID      `gorm:"type:uuid;index;not null" json:"revision_id"`
	PageNumber  int            `gorm:"not null" json:"page_number"`
	Title       string         `json:"title"`
	ImageFileID string         `gorm:"type:varchar(64)" json:"image_file_id"`
	ImageURL    string         `json:"image_url"`
	IsEnding    bool           `gorm:"not null;default:false" json:"is_ending"`
	Panels      datatypes.JSON `gorm:"type:jsonb" json:"panels"`
	Choices     datatypes.JSON `gorm:"type:jsonb" json:"choices"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PagePanel is the synthesized single full-frame image panel stored in
// Page.Panels. Coordinates are canvas percentages.
type PagePanel struct {
	Type        string  `json:"type"`
	ImageFileID string  `json:"imageFileId,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	W           float64 `json:"w"`
	H           float64 `json:"h"`
}

// PageChoice mirrors a draft choice button with its target rewritten into
// page identity space. Presentation fields are preserved verbatim for the
// renderer.
type PageChoice struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	TargetPageID string  `json:"targetPageId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	W            float64 `json:"w"`
	H            float64 `json:"h"`
	BgColor      string  `json:"bgColor"`
	TextColor    string  `json:"textColor"`
	BorderColor  string  `json:"borderColor"`
	BorderWidth  float64 `json:"borderWidth"`
	Opacity      float64 `json:"opacity"`
	Radius       float64 `json:"radius"`
	FontSize     float64 `json:"fontSize"`
	FontWeight   string  `json:"fontWeight"`
	TextAlign    string  `json:"textAlign"`
	Visible      bool    `json:"visible"`
}
