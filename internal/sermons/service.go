package sermons

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type repository interface {
	Create(ctx context.Context, sermon *models.Sermon) error
	FindActive(ctx context.Context, id uuid.UUID) (*models.Sermon, error)
	IncrementViews(ctx context.Context, id uuid.UUID) (*models.Sermon, error)
	Save(ctx context.Context, sermon *models.Sermon) error
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Sermon, int64, error)
	Categories(ctx context.Context) ([]string, error)
}

type Service struct {
	repo repository
	now  func() time.Time
}

func NewService(repo repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("sermons repository required")
	}
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, page pagination.Params) (pagination.Page[SermonDTO], error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[SermonDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sermons")
	}
	items := make([]SermonDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.Page[SermonDTO]{Items: items, Pagination: pagination.Build(page, total)}, nil
}

// View returns the sermon and counts one view.
func (s *Service) View(ctx context.Context, id uuid.UUID) (*models.Sermon, error) {
	sermon, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load sermon")
	}
	return sermon, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *Service) Create(ctx context.Context, adminID uuid.UUID, req CreateRequest) (*models.Sermon, error) {
	sermon := &models.Sermon{
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		Category:          strings.TrimSpace(req.Category),
		VideoURL:          strings.TrimSpace(req.VideoURL),
		ThumbnailURL:      req.ThumbnailURL,
		DurationSeconds:   req.DurationSeconds,
		FileSizeBytes:     req.FileSizeBytes,
		UploadedByAdminID: adminID,
		Downloadable:      req.Downloadable,
		Tags:              pq.StringArray(pkgdb.NormalizeTags(req.Tags)),
		Active:            true,
	}
	if err := s.repo.Create(ctx, sermon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sermon")
	}
	return sermon, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*models.Sermon, error) {
	sermon, err := s.repo.FindActive(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load sermon")
	}
	if req.Title != nil {
		sermon.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		sermon.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		sermon.Category = strings.TrimSpace(*req.Category)
	}
	if req.VideoURL != nil {
		sermon.VideoURL = strings.TrimSpace(*req.VideoURL)
	}
	if req.ThumbnailURL != nil {
		sermon.ThumbnailURL = req.ThumbnailURL
	}
	if req.DurationSeconds != nil {
		sermon.DurationSeconds = *req.DurationSeconds
	}
	if req.FileSizeBytes != nil {
		sermon.FileSizeBytes = *req.FileSizeBytes
	}
	if req.Downloadable != nil {
		sermon.Downloadable = *req.Downloadable
	}
	if req.Tags != nil {
		sermon.Tags = pq.StringArray(pkgdb.NormalizeTags(*req.Tags))
	}
	sermon.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, sermon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update sermon")
	}
	return sermon, nil
}

// Delete soft-deletes the sermon.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Deactivate(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete sermon")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sermon not found")
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if pkgdb.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sermon not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
