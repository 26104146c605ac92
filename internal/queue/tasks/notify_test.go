package tasks

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkpath/engine/internal/models"
	"github.com/inkpath/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("info", "json"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type mockNotificationRepository struct {
	mock.Mock
}

func (m *mockNotificationRepository) Create(ctx context.Context, obj *models.Notification) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockNotificationRepository) GetByID(ctx context.Context, id any, dest *models.Notification) error {
	args := m.Called(ctx, id, dest)
	return args.Error(0)
}

func (m *mockNotificationRepository) Update(ctx context.Context, obj *models.Notification) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockNotificationRepository) Delete(ctx context.Context, id any) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]models.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func TestHandleDeliverStoresNotification(t *testing.T) {
	repo := new(mockNotificationRepository)
	h := NewNotificationTaskHandler(repo)

	userID := uuid.New()
	task, err := NewNotificationTask(NotifyPayload{
		UserID:     userID.String(),
		Kind:       models.NotifyRevisionRejected,
		ComicID:    uuid.NewString(),
		RevisionID: uuid.NewString(),
		Reason:     "panel 3 violates content policy",
	})
	require.NoError(t, err)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		if n.UserID != userID || n.Kind != models.NotifyRevisionRejected {
			return false
		}
		var body map[string]string
		require.NoError(t, json.Unmarshal(n.Payload, &body))
		return body["reason"] == "panel 3 violates content policy"
	})).Return(nil)

	require.NoError(t, h.HandleDeliver(context.Background(), task))
	repo.AssertExpectations(t)
}

func TestHandleDeliverRejectsBadPayload(t *testing.T) {
	repo := new(mockNotificationRepository)
	h := NewNotificationTaskHandler(repo)

	task := asynq.NewTask(TypeNotificationDeliver, []byte("{not json"))
	require.Error(t, h.HandleDeliver(context.Background(), task))

	task, err := NewNotificationTask(NotifyPayload{UserID: "not-a-uuid", Kind: models.NotifyRevisionApproved})
	require.NoError(t, err)
	require.Error(t, h.HandleDeliver(context.Background(), task))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
