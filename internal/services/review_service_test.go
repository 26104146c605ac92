package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/inkpath/engine/internal/models"
	"github.com/inkpath/engine/internal/repository"
	appErr "github.com/inkpath/engine/pkg/errors"
	"github.com/inkpath/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "console"); err != nil {
		panic(err)
	}
	m.Run()
}

// newTestDB starts a throwaway postgres container and migrates the schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("engine_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Comic{},
		&models.Revision{},
		&models.Page{},
		&models.Upload{},
		&models.Notification{},
	))
	return db
}

type testEnv struct {
	db     *gorm.DB
	comics ComicService
	review ReviewService

	author    models.User
	moderator models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	comicRepo := repository.NewComicRepository(db)
	revRepo := repository.NewRevisionRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	userRepo := repository.NewUserRepository(db)

	env := &testEnv{
		db:     db,
		comics: NewComicService(db, comicRepo, revRepo),
		review: NewReviewService(db, comicRepo, revRepo, uploadRepo, userRepo, nil),
	}

	env.author = models.User{Email: "author@example.com", Name: "Ana Author", PasswordHash: "x", Role: models.RoleCreator}
	require.NoError(t, db.Create(&env.author).Error)
	env.moderator = models.User{Email: "mod@example.com", Name: "Mo Moderator", PasswordHash: "x", Role: models.RoleModerator}
	require.NoError(t, db.Create(&env.moderator).Error)
	return env
}

func (e *testEnv) addUpload(t *testing.T, id string, owner uuid.UUID) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Upload{
		ID: id, OwnerID: owner, MIME: "image/png", URL: "https://cdn.example.com/" + id, Size: 1024,
	}).Error)
}

// storyPayload builds a three-scene branch-and-merge story where every
// scene has an image registered for the author.
func (e *testEnv) storyPayload(t *testing.T) json.RawMessage {
	t.Helper()
	for _, id := range []string{"img-start", "img-mid", "img-end"} {
		e.addUpload(t, id, e.author.ID)
	}
	return json.RawMessage(`{
		"comicMeta": {"title": "The Cave", "description": "Spooky", "startNodeId": "start", "genres": ["horror"]},
		"nodes": [
			{"id": "start", "title": "Entrance", "imageFileId": "img-start", "order": 0, "buttons": [
				{"id": "b1", "text": "Go deeper", "targetNodeId": "mid"}
			]},
			{"id": "mid", "title": "Tunnel", "imageFileId": "img-mid", "order": 1, "buttons": [
				{"id": "b2", "text": "Keep going", "targetNodeId": "end"}
			]},
			{"id": "end", "title": "Exit", "imageFileId": "img-end", "order": 2, "isEnding": true}
		]
	}`)
}

func (e *testEnv) createComic(t *testing.T) *models.Comic {
	t.Helper()
	c, err := e.comics.CreateComic(context.Background(), e.author.ID, &CreateComicInput{
		Title: "The Cave", Description: "Spooky",
	})
	require.NoError(t, err)
	return c
}

func TestSubmitInvalidGraphLeavesDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	// A non-ending scene with no buttons is a structural error.
	bad := json.RawMessage(`{
		"comicMeta": {"startNodeId": "start"},
		"nodes": [
			{"id": "start", "buttons": [{"id": "b1", "text": "go", "targetNodeId": "dead"}]},
			{"id": "dead"}
		]
	}`)
	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, bad)
	require.NoError(t, err)

	_, err = env.review.Submit(ctx, c.ID, env.author.ID)
	require.Error(t, err)

	var ae *appErr.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, appErr.CodeInvalid, ae.Code)
	errs, ok := ae.Meta["errors"].([]string)
	require.True(t, ok)
	assert.NotEmpty(t, errs)

	rev, err := env.comics.GetDraft(ctx, c.ID, env.author.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RevisionDraft, rev.Status)
	assert.Nil(t, rev.SubmittedAt)
}

func TestSubmitRequiresOwnedImageUploads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	// Image belongs to someone else.
	env.addUpload(t, "img-stolen", env.moderator.ID)
	payload := json.RawMessage(`{
		"comicMeta": {"startNodeId": "only"},
		"nodes": [{"id": "only", "imageFileId": "img-stolen", "isEnding": true}]
	}`)
	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, payload)
	require.NoError(t, err)

	_, err = env.review.Submit(ctx, c.ID, env.author.ID)
	require.Error(t, err)

	var ae *appErr.AppError
	require.ErrorAs(t, err, &ae)
	errs := ae.Meta["errors"].([]string)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "not owned by the submitting user")
}

func TestApprovePublishesPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	sub, err := env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RevisionPendingReview, sub.Status)
	require.NotNil(t, sub.SubmittedAt)

	approved, err := env.review.Approve(ctx, sub.ID, env.moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RevisionApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, env.moderator.ID, *approved.ReviewedBy)

	var got models.Comic
	require.NoError(t, env.db.First(&got, "id = ?", c.ID).Error)
	assert.Equal(t, models.ComicPublished, got.Status)
	assert.Equal(t, 3, got.TotalPages)
	assert.Equal(t, 1, got.TotalEndings)
	assert.Equal(t, "The Cave", got.Title)
	assert.Equal(t, "Ana Author", got.AuthorName)
	require.NotNil(t, got.PublishedRevisionID)
	assert.Equal(t, sub.ID, *got.PublishedRevisionID)

	var pages []models.Page
	require.NoError(t, env.db.Where("comic_id = ?", c.ID).Order("page_number").Find(&pages).Error)
	require.Len(t, pages, 3)
	assert.Equal(t, "start", pages[0].PageID)
	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Equal(t, "end", pages[2].PageID)
	assert.True(t, pages[2].IsEnding)

	var choices []models.PageChoice
	require.NoError(t, json.Unmarshal(pages[0].Choices, &choices))
	require.Len(t, choices, 1)
	assert.Equal(t, "mid", choices[0].TargetPageID)
}

func TestApproveReplacesPriorPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	sub, err := env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)
	_, err = env.review.Approve(ctx, sub.ID, env.moderator.ID)
	require.NoError(t, err)

	// Second edition shrinks the story to a single scene.
	env.addUpload(t, "img-solo", env.author.ID)
	solo := json.RawMessage(`{
		"comicMeta": {"title": "The Cave, Abridged", "startNodeId": "solo"},
		"nodes": [{"id": "solo", "title": "All of it", "imageFileId": "img-solo", "isEnding": true}]
	}`)
	rev2, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, solo)
	require.NoError(t, err)
	assert.Equal(t, 2, rev2.Version)

	sub2, err := env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)
	_, err = env.review.Approve(ctx, sub2.ID, env.moderator.ID)
	require.NoError(t, err)

	var pages []models.Page
	require.NoError(t, env.db.Where("comic_id = ?", c.ID).Find(&pages).Error)
	require.Len(t, pages, 1)
	assert.Equal(t, "solo", pages[0].PageID)
	assert.Equal(t, sub2.ID, pages[0].RevisionID)

	var got models.Comic
	require.NoError(t, env.db.First(&got, "id = ?", c.ID).Error)
	assert.Equal(t, 1, got.TotalPages)
	assert.Equal(t, "The Cave, Abridged", got.Title)
}

func TestEditAfterApprovalCreatesNewVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	sub, err := env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)
	_, err = env.review.Approve(ctx, sub.ID, env.moderator.ID)
	require.NoError(t, err)

	var pagesBefore int64
	require.NoError(t, env.db.Model(&models.Page{}).Where("comic_id = ?", c.ID).Count(&pagesBefore).Error)

	rev2, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	assert.Equal(t, 2, rev2.Version)
	assert.Equal(t, models.RevisionDraft, rev2.Status)

	// The approved revision and its pages are untouched.
	var approved models.Revision
	require.NoError(t, env.db.First(&approved, "id = ?", sub.ID).Error)
	assert.Equal(t, models.RevisionApproved, approved.Status)

	var pagesAfter int64
	require.NoError(t, env.db.Model(&models.Page{}).Where("comic_id = ?", c.ID).Count(&pagesAfter).Error)
	assert.Equal(t, pagesBefore, pagesAfter)
}

func TestRejectLeavesPayloadAndPagesUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	sub, err := env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)

	rejected, err := env.review.Reject(ctx, sub.ID, env.moderator.ID, "panel 3 violates content policy")
	require.NoError(t, err)
	assert.Equal(t, models.RevisionRejected, rejected.Status)
	assert.Equal(t, "panel 3 violates content policy", rejected.RejectionReason)
	assert.Equal(t, sub.PayloadSHA, rejected.PayloadSHA)

	var got models.Comic
	require.NoError(t, env.db.First(&got, "id = ?", c.ID).Error)
	assert.Equal(t, models.ComicDraft, got.Status)

	var pages int64
	require.NoError(t, env.db.Model(&models.Page{}).Where("comic_id = ?", c.ID).Count(&pages).Error)
	assert.Zero(t, pages)
}

func TestResubmitAfterRejectKeepsVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	sub, err := env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)
	_, err = env.review.Reject(ctx, sub.ID, env.moderator.ID, "needs work")
	require.NoError(t, err)

	// Rejected revisions are edited in place, not version-bumped.
	fixed, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	assert.Equal(t, sub.Version, fixed.Version)
	assert.Equal(t, sub.ID, fixed.ID)

	resub, err := env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RevisionPendingReview, resub.Status)
	assert.Empty(t, resub.RejectionReason)
	assert.Nil(t, resub.ReviewedAt)
}

func TestRejectRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	sub, err := env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)

	_, err = env.review.Reject(ctx, sub.ID, env.moderator.ID, "   ")
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	var got models.Revision
	require.NoError(t, env.db.First(&got, "id = ?", sub.ID).Error)
	assert.Equal(t, models.RevisionPendingReview, got.Status)
}

func TestApproveRequiresModerator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	sub, err := env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)

	_, err = env.review.Approve(ctx, sub.ID, env.author.ID)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}

func TestSubmitWhilePendingConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	_, err := env.comics.SaveDraft(ctx, c.ID, env.author.ID, env.storyPayload(t))
	require.NoError(t, err)
	_, err = env.review.Submit(ctx, c.ID, env.author.ID)
	require.NoError(t, err)

	_, err = env.review.Submit(ctx, c.ID, env.author.ID)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))
}

func TestSubmitRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createComic(t)

	_, err := env.review.Submit(ctx, c.ID, env.moderator.ID)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}

func TestListPendingOrderedBySubmission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var subs []uuid.UUID
	for i := 0; i < 3; i++ {
		c, err := env.comics.CreateComic(ctx, env.author.ID, &CreateComicInput{Title: fmt.Sprintf("Comic %d", i)})
		require.NoError(t, err)
		sub, err := env.review.Submit(ctx, c.ID, env.author.ID)
		require.NoError(t, err)
		subs = append(subs, sub.ID)
	}

	pending, err := env.review.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, rev := range pending {
		assert.Equal(t, subs[i], rev.ID)
	}
}
