package repository

import (
	"gorm.io/gorm"

	"github.com/inkpath/engine/internal/models"
)

// UploadRepository looks up opaque file references registered by the
// upload service. The engine reads them only to gate submissions.
type UploadRepository interface {
	BaseRepository[models.Upload]
}

type uploadRepository struct {
	BaseRepository[models.Upload]
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{BaseRepository: NewBaseRepository[models.Upload](db), db: db}
}
