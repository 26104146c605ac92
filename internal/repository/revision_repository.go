package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkpath/engine/internal/models"
	appErr "github.com/inkpath/engine/pkg/errors"
)

type RevisionRepository interface {
	BaseRepository[models.Revision]
	GetLatestByComic(ctx context.Context, comicID uuid.UUID, dest *models.Revision) error
	GetByVersion(ctx context.Context, comicID uuid.UUID, version int, dest *models.Revision) error
	ListByComic(ctx context.Context, comicID uuid.UUID) ([]models.Revision, error)
	ListByStatus(ctx context.Context, status string) ([]models.Revision, error)
}

type revisionRepository struct {
	BaseRepository[models.Revision]
	db *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{BaseRepository: NewBaseRepository[models.Revision](db), db: db}
}

func (r *revisionRepository) GetLatestByComic(ctx context.Context, comicID uuid.UUID, dest *models.Revision) error {
	if err := r.db.WithContext(ctx).Where("comic_id = ?", comicID).Order("version DESC").First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "no revisions for comic")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get latest revision failed")
	}
	return nil
}

func (r *revisionRepository) GetByVersion(ctx context.Context, comicID uuid.UUID, version int, dest *models.Revision) error {
	if err := r.db.WithContext(ctx).Where("comic_id = ? AND version = ?", comicID, version).First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "revision version not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get revision version failed")
	}
	return nil
}

func (r *revisionRepository) ListByComic(ctx context.Context, comicID uuid.UUID) ([]models.Revision, error) {
	var out []models.Revision
	if err := r.db.WithContext(ctx).Where("comic_id = ?", comicID).Order("version DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list revisions failed")
	}
	return out, nil
}

func (r *revisionRepository) ListByStatus(ctx context.Context, status string) ([]models.Revision, error) {
	var out []models.Revision
	if err := r.db.WithContext(ctx).Where("status = ?", status).Order("submitted_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list revisions by status failed")
	}
	return out, nil
}
