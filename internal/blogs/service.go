// Package blogs manages pastor posts. Members only ever see published posts.
package blogs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/principals"
	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type repository interface {
	Create(ctx context.Context, blog *models.Blog) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error)
	IncrementPublishedViews(ctx context.Context, id uuid.UUID) (*models.Blog, error)
	Save(ctx context.Context, blog *models.Blog) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Blog, int64, error)
}

type Service struct {
	repo repository
	now  func() time.Time
}

func NewService(repo repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("blogs repository required")
	}
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

// List forces the published filter for members.
func (s *Service) List(ctx context.Context, p principals.Principal, filter ListFilter, page pagination.Params) (pagination.Page[BlogDTO], error) {
	if !p.IsAdministrator() {
		published := enums.BlogStatusPublished
		filter.Status = &published
	}
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[BlogDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list blogs")
	}
	items := make([]BlogDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.Page[BlogDTO]{Items: items, Pagination: pagination.Build(page, total)}, nil
}

// View returns a post and counts a view when it is published. Drafts are 404 for members.
func (s *Service) View(ctx context.Context, p principals.Principal, id uuid.UUID) (*models.Blog, error) {
	blog, err := s.repo.IncrementPublishedViews(ctx, id)
	if err == nil {
		return blog, nil
	}
	if !pkgdb.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load blog")
	}
	if !p.IsAdministrator() {
		return nil, notFound()
	}
	return s.load(ctx, id)
}

func (s *Service) Create(ctx context.Context, authorID uuid.UUID, req CreateRequest) (*models.Blog, error) {
	status := enums.BlogStatusDraft
	if req.Status != "" {
		parsed, err := enums.ParseBlogStatus(req.Status)
		if err != nil {
			return nil, invalidStatus()
		}
		status = parsed
	}

	content := strings.TrimSpace(req.Content)
	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" {
		excerpt = DeriveExcerpt(content)
	}
	blog := &models.Blog{
		Title:            strings.TrimSpace(req.Title),
		Content:          content,
		Excerpt:          excerpt,
		AuthorAdminID:    authorID,
		Status:           status,
		Tags:             pq.StringArray(pkgdb.NormalizeTags(req.Tags)),
		FeaturedImageURL: req.FeaturedImageURL,
		ReadTimeMinutes:  ReadTimeMinutes(content),
	}
	if status == enums.BlogStatusPublished {
		now := s.now()
		blog.PublishedAt = &now
	}
	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create blog")
	}
	return blog, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*models.Blog, error) {
	blog, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if req.Title != nil {
		blog.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content != blog.Content {
			derived := blog.Excerpt == DeriveExcerpt(blog.Content)
			blog.Content = content
			blog.ReadTimeMinutes = ReadTimeMinutes(content)
			if derived && req.Excerpt == nil {
				blog.Excerpt = DeriveExcerpt(content)
			}
		}
	}
	if req.Excerpt != nil {
		blog.Excerpt = strings.TrimSpace(*req.Excerpt)
		if blog.Excerpt == "" {
			blog.Excerpt = DeriveExcerpt(blog.Content)
		}
	}
	if req.Tags != nil {
		blog.Tags = pq.StringArray(pkgdb.NormalizeTags(*req.Tags))
	}
	if req.FeaturedImageURL != nil {
		blog.FeaturedImageURL = req.FeaturedImageURL
	}
	if req.Status != nil {
		status, err := enums.ParseBlogStatus(*req.Status)
		if err != nil {
			return nil, invalidStatus()
		}
		blog.Status = status
		if status == enums.BlogStatusPublished && blog.PublishedAt == nil {
			blog.PublishedAt = &now
		}
	}
	blog.UpdatedAt = now

	if err := s.repo.Save(ctx, blog); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update blog")
	}
	return blog, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete blog")
	}
	if !ok {
		return notFound()
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load blog")
	}
	return blog, nil
}

func notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "blog not found")
}

func invalidStatus() error {
	return pkgerrors.Validation("invalid blog", pkgerrors.FieldError{Field: "status", Message: "must be one of [draft published]"})
}
