package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkpath/engine/internal/models"
	appErr "github.com/inkpath/engine/pkg/errors"
)

type ComicRepository interface {
	BaseRepository[models.Comic]
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Comic, error)
	ListPublished(ctx context.Context) ([]models.Comic, error)
}

type comicRepository struct {
	BaseRepository[models.Comic]
	db *gorm.DB
}

func NewComicRepository(db *gorm.DB) ComicRepository {
	return &comicRepository{BaseRepository: NewBaseRepository[models.Comic](db), db: db}
}

func (r *comicRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Comic, error) {
	var out []models.Comic
	if err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list comics failed")
	}
	return out, nil
}

func (r *comicRepository) ListPublished(ctx context.Context) ([]models.Comic, error) {
	var out []models.Comic
	if err := r.db.WithContext(ctx).Where("status = ?", models.ComicPublished).Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list published comics failed")
	}
	return out, nil
}
