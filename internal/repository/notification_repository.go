package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkpath/engine/internal/models"
	appErr "github.com/inkpath/engine/pkg/errors"
)

type NotificationRepository interface {
	BaseRepository[models.Notification]
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
}

type notificationRepository struct {
	BaseRepository[models.Notification]
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{BaseRepository: NewBaseRepository[models.Notification](db), db: db}
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	var out []models.Notification
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list notifications failed")
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", notificationID).Update("read_at", &now)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "mark notification read failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "notification not found")
	}
	return nil
}
