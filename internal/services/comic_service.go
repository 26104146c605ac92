package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inkpath/engine/internal/graph"
	"github.com/inkpath/engine/internal/models"
	"github.com/inkpath/engine/internal/repository"
	appErr "github.com/inkpath/engine/pkg/errors"
	"github.com/inkpath/engine/pkg/logger"
	"github.com/inkpath/engine/pkg/utils"
)

// ComicService owns the creator-facing draft lifecycle: comic CRUD, draft
// payload saves (including the version+1 rule when the latest revision is
// no longer editable) and lenient editor-feedback validation.
type ComicService interface {
	CreateComic(ctx context.Context, authorID uuid.UUID, input *CreateComicInput) (*models.Comic, error)
	GetComic(ctx context.Context, comicID, userID uuid.UUID) (*models.Comic, error)
	ListComics(ctx context.Context, authorID uuid.UUID) ([]models.Comic, error)
	DeleteComic(ctx context.Context, comicID, userID uuid.UUID) error

	SaveDraft(ctx context.Context, comicID, userID uuid.UUID, payload json.RawMessage) (*models.Revision, error)
	GetDraft(ctx context.Context, comicID, userID uuid.UUID) (*models.Revision, error)
	CheckDraft(ctx context.Context, comicID, userID uuid.UUID) (graph.Result, error)
	ListRevisions(ctx context.Context, comicID, userID uuid.UUID) ([]models.Revision, error)
}

type CreateComicInput struct {
	Title       string
	Description string
	Genres      []string
	Tags        []string
}

type comicService struct {
	db        *gorm.DB
	comicRepo repository.ComicRepository
	revRepo   repository.RevisionRepository
}

func NewComicService(db *gorm.DB, comicRepo repository.ComicRepository, revRepo repository.RevisionRepository) ComicService {
	return &comicService{db: db, comicRepo: comicRepo, revRepo: revRepo}
}

var _ ComicService = (*comicService)(nil)

// CreateComic creates the comic together with its implicit version 1
// draft revision.
func (s *comicService) CreateComic(ctx context.Context, authorID uuid.UUID, input *CreateComicInput) (*models.Comic, error) {
	logger.L().Info("create comic", zap.String("author_id", authorID.String()), zap.String("title", input.Title))

	seed := graph.Normalize(map[string]any{
		"comicMeta": map[string]any{
			"title":       input.Title,
			"description": input.Description,
			"genres":      input.Genres,
			"tags":        input.Tags,
		},
	})
	payload, err := json.Marshal(seed)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "marshal seed graph failed")
	}

	genres, _ := json.Marshal(seed.ComicMeta.Genres)
	tags, _ := json.Marshal(seed.ComicMeta.Tags)

	c := &models.Comic{
		AuthorID:    authorID,
		Title:       input.Title,
		Description: input.Description,
		Genres:      datatypes.JSON(genres),
		Tags:        datatypes.JSON(tags),
		StartNodeID: seed.ComicMeta.StartNodeID,
		Status:      models.ComicDraft,
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}
	if err := tx.Create(c).Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "create comic failed")
	}
	rev := &models.Revision{
		ComicID:    c.ID,
		Version:    1,
		Status:     models.RevisionDraft,
		Payload:    datatypes.JSON(payload),
		PayloadSHA: utils.PayloadChecksum(payload),
		CreatedBy:  authorID,
	}
	if err := tx.Create(rev).Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "create initial revision failed")
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}

	logger.L().Info("comic created", zap.String("comic_id", c.ID.String()))
	return c, nil
}

func (s *comicService) GetComic(ctx context.Context, comicID, userID uuid.UUID) (*models.Comic, error) {
	var c models.Comic
	if err := s.comicRepo.GetByID(ctx, comicID, &c); err != nil {
		return nil, err
	}
	if c.AuthorID != userID {
		return nil, appErr.New(appErr.CodeForbidden, "user does not own comic")
	}
	return &c, nil
}

func (s *comicService) ListComics(ctx context.Context, authorID uuid.UUID) ([]models.Comic, error) {
	return s.comicRepo.ListByAuthor(ctx, authorID)
}

// DeleteComic removes the comic and cascades its revisions and published
// pages in one transaction.
func (s *comicService) DeleteComic(ctx context.Context, comicID, userID uuid.UUID) error {
	logger.L().Info("delete comic", zap.String("comic_id", comicID.String()), zap.String("user_id", userID.String()))
	var c models.Comic
	if err := s.comicRepo.GetByID(ctx, comicID, &c); err != nil {
		return err
	}
	if c.AuthorID != userID {
		return appErr.New(appErr.CodeForbidden, "user does not own comic")
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}
	if err := tx.Where("comic_id = ?", comicID).Delete(&models.Page{}).Error; err != nil {
		tx.Rollback()
		return appErr.Wrap(err, appErr.CodeInternal, "delete pages failed")
	}
	if err := tx.Where("comic_id = ?", comicID).Delete(&models.Revision{}).Error; err != nil {
		tx.Rollback()
		return appErr.Wrap(err, appErr.CodeInternal, "delete revisions failed")
	}
	if err := tx.Delete(&models.Comic{}, "id = ?", comicID).Error; err != nil {
		tx.Rollback()
		return appErr.Wrap(err, appErr.CodeInternal, "delete comic failed")
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}
	return nil
}

// SaveDraft normalizes and stores an edited payload. While the latest
// revision is draft or rejected the payload is replaced in place; once it
// is pending_review or approved a new draft revision at version+1 is
// created instead, leaving the in-flight revision untouched. The version
// allocation reads MAX(version) inside the same transaction as the
// insert, with the (comic_id, version) unique index as the backstop
// against concurrent bumps.
func (s *comicService) SaveDraft(ctx context.Context, comicID, userID uuid.UUID, payload json.RawMessage) (*models.Revision, error) {
	logger.L().Info("save draft", zap.String("comic_id", comicID.String()), zap.String("user_id", userID.String()))

	var c models.Comic
	if err := s.comicRepo.GetByID(ctx, comicID, &c); err != nil {
		return nil, err
	}
	if c.AuthorID != userID {
		return nil, appErr.New(appErr.CodeForbidden, "user does not own comic")
	}

	g := graph.Normalize(payload)
	normalized, err := json.Marshal(g)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "marshal graph failed")
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}

	var latest models.Revision
	err = tx.Where("comic_id = ?", comicID).Order("version DESC").First(&latest).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get latest revision failed")
	}

	var rev *models.Revision
	if err == nil && latest.Editable() {
		latest.Payload = datatypes.JSON(normalized)
		latest.PayloadSHA = utils.PayloadChecksum(normalized)
		if err := tx.Save(&latest).Error; err != nil {
			tx.Rollback()
			return nil, appErr.Wrap(err, appErr.CodeInternal, "update draft payload failed")
		}
		rev = &latest
	} else {
		var maxVersion int
		if err := tx.Model(&models.Revision{}).Where("comic_id = ?", comicID).Select("COALESCE(MAX(version),0)").Scan(&maxVersion).Error; err != nil {
			tx.Rollback()
			return nil, appErr.Wrap(err, appErr.CodeInternal, "compute revision version failed")
		}
		rev = &models.Revision{
			ComicID:    comicID,
			Version:    maxVersion + 1,
			Status:     models.RevisionDraft,
			Payload:    datatypes.JSON(normalized),
			PayloadSHA: utils.PayloadChecksum(normalized),
			CreatedBy:  userID,
		}
		if err := tx.Create(rev).Error; err != nil {
			tx.Rollback()
			return nil, appErr.Wrap(err, appErr.CodeInternal, "create revision failed")
		}
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}

	logger.L().Info("draft saved", zap.String("comic_id", comicID.String()), zap.Int("version", rev.Version))
	return rev, nil
}

func (s *comicService) GetDraft(ctx context.Context, comicID, userID uuid.UUID) (*models.Revision, error) {
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
	return &rev, nil
}

// CheckDraft gives the editor live feedback on the latest revision.
// Unreachable scenes are warnings here, not errors; nothing external is
// consulted.
func (s *comicService) CheckDraft(ctx context.Context, comicID, userID uuid.UUID) (graph.Result, error) {
	rev, err := s.GetDraft(ctx, comicID, userID)
	if err != nil {
		return graph.Result{}, err
	}
	g := graph.Normalize([]byte(rev.Payload))
	return graph.Validate(g, graph.Options{Strict: false}), nil
}

func (s *comicService) ListRevisions(ctx context.Context, comicID, userID uuid.UUID) ([]models.Revision, error) {
	var c models.Comic
	if err := s.comicRepo.GetByID(ctx, comicID, &c); err != nil {
		return nil, err
	}
	if c.AuthorID != userID {
		return nil, appErr.New(appErr.CodeForbidden, "user does not own comic")
	}
	return s.revRepo.ListByComic(ctx, comicID)
}
