package blogs

import (
	"context"
	"strings"
	"testing"

	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

var (
	reader = principals.FromMember(&models.Member{
		ID:             uuid.New(),
		Branch:         enums.BranchOne,
		ApprovalStatus: enums.ApprovalStatusApproved,
		Active:         true,
	})
	editor = principals.FromAdministrator(&models.Administrator{
		ID:          uuid.New(),
		AdminLevel:  enums.AdminLevelStandard,
		Permissions: models.PermissionsFrom([]enums.AdminPermission{enums.PermissionManageContent}),
		Active:      true,
	})
)

func TestCreateDerivesFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	content := strings.TrimSpace(strings.Repeat("grace ", 450))
	blog, err := svc.Create(ctx, editor.ID(), CreateRequest{Title: "On Grace", Content: content, Tags: []string{"Grace", "grace"}})
	require.NoError(t, err)
	require.Equal(t, enums.BlogStatusDraft, blog.Status)
	require.Equal(t, 3, blog.ReadTimeMinutes)
	require.Equal(t, DeriveExcerpt(content), blog.Excerpt)
	require.Nil(t, blog.PublishedAt)
	require.Equal(t, []string{"grace"}, []string(blog.Tags))
}

func TestMembersSeePublishedOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	draft, err := svc.Create(ctx, editor.ID(), CreateRequest{Title: "Draft", Content: "not yet"})
	require.NoError(t, err)
	live, err := svc.Create(ctx, editor.ID(), CreateRequest{Title: "Live", Content: "hello church", Status: "published"})
	require.NoError(t, err)
	require.NotNil(t, live.PublishedAt)

	page, err := svc.List(ctx, reader, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Live", page.Items[0].Title)

	page, err = svc.List(ctx, editor, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	_, err = svc.View(ctx, reader, draft.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	preview, err := svc.View(ctx, editor, draft.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), preview.ViewCount)

	viewed, err := svc.View(ctx, reader, live.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), viewed.ViewCount)
}

func TestUpdatePublishesOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	blog, err := svc.Create(ctx, editor.ID(), CreateRequest{Title: "Post", Content: "one two three"})
	require.NoError(t, err)

	published := "published"
	first, err := svc.Update(ctx, blog.ID, UpdateRequest{Status: &published})
	require.NoError(t, err)
	require.NotNil(t, first.PublishedAt)
	firstPublished := *first.PublishedAt

	draft := "draft"
	_, err = svc.Update(ctx, blog.ID, UpdateRequest{Status: &draft})
	require.NoError(t, err)
	again, err := svc.Update(ctx, blog.ID, UpdateRequest{Status: &published})
	require.NoError(t, err)
	require.True(t, firstPublished.Equal(*again.PublishedAt))

	content := strings.TrimSpace(strings.Repeat("word ", 401))
	rewritten, err := svc.Update(ctx, blog.ID, UpdateRequest{Content: &content})
	require.NoError(t, err)
	require.Equal(t, 3, rewritten.ReadTimeMinutes)
	require.Equal(t, DeriveExcerpt(content), rewritten.Excerpt)

	bad := "hidden"
	_, err = svc.Update(ctx, blog.ID, UpdateRequest{Status: &bad})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	require.NoError(t, svc.Delete(ctx, blog.ID))
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.Delete(ctx, blog.ID)))
}
