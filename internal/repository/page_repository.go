package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkpath/engine/internal/models"
	appErr "github.com/inkpath/engine/pkg/errors"
)

type PageRepository interface {
	ListByComic(ctx context.Context, comicID uuid.UUID) ([]models.Page, error)
	GetByPageID(ctx context.Context, comicID uuid.UUID, pageID string, dest *models.Page) error
}

type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository returns the read side of the published page set. All
// writes go through the publish transform's transaction, so pages expose
// no mutating operations here.
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) ListByComic(ctx context.Context, comicID uuid.UUID) ([]models.Page, error) {
	var out []models.Page
	if err := r.db.WithContext(ctx).Where("comic_id = ?", comicID).Order("page_number ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list pages failed")
	}
	return out, nil
}

func (r *pageRepository) GetByPageID(ctx context.Context, comicID uuid.UUID, pageID string, dest *models.Page) error {
	if err := r.db.WithContext(ctx).Where("comic_id = ? AND page_id = ?", comicID, pageID).First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "page not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get page failed")
	}
	return nil
}
