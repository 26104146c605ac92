package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inkpath/engine/internal/graph"
	"github.com/inkpath/engine/internal/models"
	"github.com/inkpath/engine/internal/queue/tasks"
	"github.com/inkpath/engine/internal/repository"
	appErr "github.com/inkpath/engine/pkg/errors"
	"github.com/inkpath/engine/pkg/logger"
)

// ReviewService owns the moderation half of the revision lifecycle:
// submission gating, approve (with the publish transform in the same
// transaction) and reject. Outcome notifications are enqueued after the
// commit and never affect the transition.
type ReviewService interface {
	Submit(ctx context.Context, comicID, userID uuid.UUID) (*models.Revision, error)
	Approve(ctx context.Context, revisionID, moderatorID uuid.UUID) (*models.Revision, error)
	Reject(ctx context.Context, revisionID, moderatorID uuid.UUID, reason string) (*models.Revision, error)
	ListPending(ctx context.Context) ([]models.Revision, error)
}

type reviewService struct {
	db          *gorm.DB
	comicRepo   repository.ComicRepository
	revRepo     repository.RevisionRepository
	uploadRepo  repository.UploadRepository
	userRepo    repository.UserRepository
	asynqClient *asynq.Client
}

func NewReviewService(db *gorm.DB, comicRepo repository.ComicRepository, revRepo repository.RevisionRepository, uploadRepo repository.UploadRepository, userRepo repository.UserRepository, client *asynq.Client) ReviewService {
	return &reviewService{db: db, comicRepo: comicRepo, revRepo: revRepo, uploadRepo: uploadRepo, userRepo: userRepo, asynqClient: client}
}

var _ ReviewService = (*reviewService)(nil)

// Submit moves the comic's latest revision from draft or rejected into
// pending_review, provided strict validation passes. Validation failure
// returns the full error list as data and leaves the revision untouched.
func (s *reviewService) Submit(ctx context.Context, comicID, userID uuid.UUID) (*models.Revision, error) {
	logger.L().Info("submit revision", zap.String("comic_id", comicID.String()), zap.String("user_id", userID.String()))

	var c models.Comic
	if err := s.comicRepo.GetByID(ctx, comicID, &c); err != nil {
		return nil, err
	}
	if c.AuthorID != userID {
		return nil, appErr.New(appErr.CodeForbidden, "user does not own comic")
	}

	var rev models.Revision
	if err := s.revRepo.GetLatestByComic(ctx, comicID, &rev); err != nil {
		return nil, err
	}
	if !rev.Editable() {
		return nil, appErr.New(appErr.CodeConflict, fmt.Sprintf("revision is %s, only draft or rejected revisions can be submitted", rev.Status))
	}

	g := graph.Normalize([]byte(rev.Payload))
	res := graph.Validate(g, graph.Options{
		Strict:     true,
		CheckImage: s.imageChecker(ctx, userID),
	})
	if !res.Valid() {
		return nil, appErr.New(appErr.CodeInvalid, "graph validation failed").
			WithMeta("errors", res.Errors).
			WithMeta("warnings", res.Warnings)
	}

	now := time.Now()
	rev.Status = models.RevisionPendingReview
	rev.SubmittedAt = &now
	rev.ReviewedAt = nil
	rev.ReviewedBy = nil
	rev.RejectionReason = ""
	if err := s.revRepo.Update(ctx, &rev); err != nil {
		return nil, err
	}

	logger.L().Info("revision submitted", zap.String("revision_id", rev.ID.String()), zap.Int("version", rev.Version), zap.Int("warnings", len(res.Warnings)))
	return &rev, nil
}

// Approve publishes the revision. The summary recompute, comic status
// flip, page replacement and revision status change all happen in one
// transaction; if anything fails the revision stays pending_review and
// the previously published pages remain exactly as they were.
func (s *reviewService) Approve(ctx context.Context, revisionID, moderatorID uuid.UUID) (*models.Revision, error) {
	logger.L().Info("approve revision", zap.String("revision_id", revisionID.String()), zap.String("moderator_id", moderatorID.String()))

	if err := s.requireModerator(ctx, moderatorID); err != nil {
		return nil, err
	}

	var rev models.Revision
	if err := s.revRepo.GetByID(ctx, revisionID, &rev); err != nil {
		return nil, err
	}
	if rev.Status != models.RevisionPendingReview {
		return nil, appErr.New(appErr.CodeConflict, fmt.Sprintf("revision is %s, only pending_review revisions can be approved", rev.Status))
	}

	var c models.Comic
	if err := s.comicRepo.GetByID(ctx, rev.ComicID, &c); err != nil {
		return nil, err
	}
	var author models.User
	if err := s.userRepo.GetByID(ctx, c.AuthorID, &author); err != nil {
		return nil, err
	}

	firstPublish := c.PublishedRevisionID == nil
	g := graph.Normalize([]byte(rev.Payload))

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}
	if err := s.publish(tx, &c, &rev, g, &author, moderatorID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "commit publish failed")
	}

	s.notify(ctx, tasks.NotifyPayload{
		UserID:     c.AuthorID.String(),
		Kind:       models.NotifyRevisionApproved,
		ComicID:    c.ID.String(),
		RevisionID: rev.ID.String(),
	})
	if firstPublish {
		s.notify(ctx, tasks.NotifyPayload{
			UserID:  c.AuthorID.String(),
			Kind:    models.NotifyComicPublished,
			ComicID: c.ID.String(),
		})
	}

	logger.L().Info("revision approved and published",
		zap.String("revision_id", rev.ID.String()),
		zap.String("comic_id", c.ID.String()),
		zap.Int("pages", c.TotalPages))
	return &rev, nil
}

// publish is the atomic transform from an approved graph into reader
// pages. Step order matters for readers observing a consistent page set,
// not for the correctness of any single step.
func (s *reviewService) publish(tx *gorm.DB, c *models.Comic, rev *models.Revision, g *graph.Graph, author *models.User, moderatorID uuid.UUID) error {
	// 1. Summary fields from the payload, blank fields keep the comic's
	// existing values.
	if g.ComicMeta.Title != "" {
		c.Title = g.ComicMeta.Title
	}
	if g.ComicMeta.Description != "" {
		c.Description = g.ComicMeta.Description
	}
	if g.ComicMeta.CoverFileID != "" {
		c.CoverFileID = g.ComicMeta.CoverFileID
	}
	if g.ComicMeta.CoverImage != "" {
		c.CoverImage = g.ComicMeta.CoverImage
	}
	if len(g.ComicMeta.Genres) > 0 {
		b, _ := json.Marshal(g.ComicMeta.Genres)
		c.Genres = datatypes.JSON(b)
	}
	if len(g.ComicMeta.Tags) > 0 {
		b, _ := json.Marshal(g.ComicMeta.Tags)
		c.Tags = datatypes.JSON(b)
	}
	if g.ComicMeta.EstimatedMinutes > 0 {
		c.EstimatedMinutes = g.ComicMeta.EstimatedMinutes
	}
	c.StartNodeID = g.ComicMeta.StartNodeID
	c.TotalPages = len(g.Nodes)
	c.TotalEndings = g.EndingCount()
	c.AuthorName = author.Name

	// 2. Publication markers.
	c.Status = models.ComicPublished
	c.PublishedRevisionID = &rev.ID
	if err := tx.Save(c).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "update comic summary failed")
	}

	// 3. Drop the prior published set.
	if err := tx.Where("comic_id = ?", c.ID).Delete(&models.Page{}).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "delete previous pages failed")
	}

	// 4. One page per node, numbered by node order with array position
	// as the tie-break.
	nodes := make([]graph.SceneNode, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Order < nodes[j].Order })

	for i, n := range nodes {
		page, err := pageFromNode(c.ID, rev.ID, i+1, n)
		if err != nil {
			return err
		}
		if err := tx.Create(page).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create page failed")
		}
	}

	// 5. Revision leaves moderation.
	now := time.Now()
	rev.Status = models.RevisionApproved
	rev.ReviewedAt = &now
	rev.ReviewedBy = &moderatorID
	rev.RejectionReason = ""
	if err := tx.Save(rev).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "update revision status failed")
	}
	return nil
}

// pageFromNode derives one published page: a single full-frame image
// panel plus choices mirroring the node's buttons, with targetNodeId
// carried across as targetPageId.
func pageFromNode(comicID, revisionID uuid.UUID, number int, n graph.SceneNode) (*models.Page, error) {
	panels := []models.PagePanel{{
		Type:        "image",
		ImageFileID: n.ImageFileID,
		ImageURL:    n.ImageURL,
		X:           0,
		Y:           0,
		W:           100,
		H:           100,
	}}
	choices := make([]models.PageChoice, 0, len(n.Buttons))
	for _, b := range n.Buttons {
		choices = append(choices, models.PageChoice{
			ID:           b.ID,
			Text:         b.Text,
			TargetPageID: b.TargetNodeID,
			X:            b.X,
			Y:            b.Y,
			W:            b.W,
			H:            b.H,
			BgColor:      b.BgColor,
			TextColor:    b.TextColor,
			BorderColor:  b.BorderColor,
			BorderWidth:  b.BorderWidth,
			Opacity:      b.Opacity,
			Radius:       b.Radius,
			FontSize:     b.FontSize,
			FontWeight:   b.FontWeight,
			TextAlign:    b.TextAlign,
			Visible:      b.Visible,
		})
	}

	panelsB, err := json.Marshal(panels)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "marshal panels failed")
	}
	choicesB, err := json.Marshal(choices)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "marshal choices failed")
	}

	return &models.Page{
		ComicID:     comicID,
		PageID:      n.ID,
		RevisionID:  revisionID,
		PageNumber:  number,
		Title:       n.Title,
		ImageFileID: n.ImageFileID,
		ImageURL:    n.ImageURL,
		IsEnding:    n.IsEnding,
		Panels:      datatypes.JSON(panelsB),
		Choices:     datatypes.JSON(choicesB),
	}, nil
}

// Reject returns the revision to the author with a reason. The comic's
// previously published pages are not touched.
func (s *reviewService) Reject(ctx context.Context, revisionID, moderatorID uuid.UUID, reason string) (*models.Revision, error) {
	logger.L().Info("reject revision", zap.String("revision_id", revisionID.String()), zap.String("moderator_id", moderatorID.String()))

	if strings.TrimSpace(reason) == "" {
		return nil, appErr.New(appErr.CodeInvalid, "rejection reason is required")
	}
	if err := s.requireModerator(ctx, moderatorID); err != nil {
		return nil, err
	}

	var rev models.Revision
	if err := s.revRepo.GetByID(ctx, revisionID, &rev); err != nil {
		return nil, err
	}
	if rev.Status != models.RevisionPendingReview {
		return nil, appErr.New(appErr.CodeConflict, fmt.Sprintf("revision is %s, only pending_review revisions can be rejected", rev.Status))
	}

	var c models.Comic
	if err := s.comicRepo.GetByID(ctx, rev.ComicID, &c); err != nil {
		return nil, err
	}

	now := time.Now()
	rev.Status = models.RevisionRejected
	rev.ReviewedAt = &now
	rev.ReviewedBy = &moderatorID
	rev.RejectionReason = reason
	if err := s.revRepo.Update(ctx, &rev); err != nil {
		return nil, err
	}

	s.notify(ctx, tasks.NotifyPayload{
		UserID:     c.AuthorID.String(),
		Kind:       models.NotifyRevisionRejected,
		ComicID:    c.ID.String(),
		RevisionID: rev.ID.String(),
		Reason:     reason,
	})

	logger.L().Info("revision rejected", zap.String("revision_id", rev.ID.String()))
	return &rev, nil
}

func (s *reviewService) ListPending(ctx context.Context) ([]models.Revision, error) {
	return s.revRepo.ListByStatus(ctx, models.RevisionPendingReview)
}

func (s *reviewService) requireModerator(ctx context.Context, userID uuid.UUID) error {
	var u models.User
	if err := s.userRepo.GetByID(ctx, userID, &u); err != nil {
		return err
	}
	if !u.IsModerator() {
		return appErr.New(appErr.CodeForbidden, "moderator role required")
	}
	return nil
}

// imageChecker adapts the upload registry into the validator's external
// check hook: the file must exist, belong to the submitting user and be
// an image.
func (s *reviewService) imageChecker(ctx context.Context, ownerID uuid.UUID) func(fileID string) error {
	return func(fileID string) error {
		var up models.Upload
		if err := s.uploadRepo.GetByID(ctx, fileID, &up); err != nil {
			if appErr.IsCode(err, appErr.CodeNotFound) {
				return fmt.Errorf("file %q not found", fileID)
			}
			return err
		}
		if up.OwnerID != ownerID {
			return fmt.Errorf("file %q is not owned by the submitting user", fileID)
		}
		if !strings.HasPrefix(up.MIME, "image/") {
			return fmt.Errorf("file %q is not an image", fileID)
		}
		return nil
	}
}

// notify enqueues a fire-and-forget review-outcome event. Enqueue
// failures are logged and swallowed; delivery must never roll back a
// state transition.
func (s *reviewService) notify(ctx context.Context, p tasks.NotifyPayload) {
	if s.asynqClient == nil {
		logger.L().Warn("asynq client not configured, skipping notification", zap.String("kind", p.Kind))
		return
	}
	task, err := tasks.NewNotificationTask(p)
	if err != nil {
		logger.L().Error("build notification task failed", zap.Error(err), zap.String("kind", p.Kind))
		return
	}
	if _, err := s.asynqClient.EnqueueContext(ctx, task); err != nil {
		logger.L().Error("enqueue notification failed", zap.Error(err), zap.String("kind", p.Kind))
	}
}
