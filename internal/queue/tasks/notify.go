package tasks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/inkpath/engine/internal/models"
	"github.com/inkpath/engine/internal/repository"
	appErr "github.com/inkpath/engine/pkg/errors"
	"github.com/inkpath/engine/pkg/logger"
)

// TypeNotificationDeliver is the asynq task type for review-outcome
// notifications.
const TypeNotificationDeliver = "notification:deliver"

// NotifyPayload is the task payload for notification delivery.
type NotifyPayload struct {
	UserID     string `json:"user_id"`
	Kind       string `json:"kind"`
	ComicID    string `json:"comic_id"`
	RevisionID string `json:"revision_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// NewNotificationTask builds the asynq task for a payload.
func NewNotificationTask(p NotifyPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationDeliver, b), nil
}

// NotificationTaskHandler records review-outcome events as notification
// rows. Delivery is informational only; a failed task is retried by asynq
// but never reaches back into the review workflow.
type NotificationTaskHandler struct {
	notifRepo repository.NotificationRepository
}

func NewNotificationTaskHandler(notifRepo repository.NotificationRepository) *NotificationTaskHandler {
	return &NotificationTaskHandler{notifRepo: notifRepo}
}

func (h *NotificationTaskHandler) HandleDeliver(ctx context.Context, t *asynq.Task) error {
	var p NotifyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid notification task payload", zap.Error(err))
		return err
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		logger.L().Error("invalid user id in notification task", zap.Error(err))
		return err
	}

	body, err := json.Marshal(map[string]string{
		"comic_id":    p.ComicID,
		"revision_id": p.RevisionID,
		"reason":      p.Reason,
	})
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "marshal notification body failed")
	}

	n := &models.Notification{
		UserID:  userID,
		Kind:    p.Kind,
		Payload: datatypes.JSON(body),
	}
	if err := h.notifRepo.Create(ctx, n); err != nil {
		logger.L().Error("store notification failed", zap.Error(err), zap.String("kind", p.Kind))
		return err
	}

	logger.L().Info("notification delivered", zap.String("kind", p.Kind), zap.String("user_id", p.UserID))
	return nil
}
