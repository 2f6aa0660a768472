package sermons

import (
	"context"
	"testing"

	"github.com/angelmondragon/churchhub-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func TestViewIncrementsCount(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	sermon, err := svc.Create(ctx, uuid.New(), CreateRequest{
		Title:    "Walking in Faith",
		Category: "Faith",
		VideoURL: "https://storage.googleapis.com/bucket/sermons/faith.mp4",
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), sermon.ViewCount)

	first, err := svc.View(ctx, sermon.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.ViewCount)

	second, err := svc.View(ctx, sermon.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), second.ViewCount)
}

func TestListFilters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	admin := uuid.New()

	_, err := svc.Create(ctx, admin, CreateRequest{Title: "Hope", Category: "Faith", VideoURL: "https://x/1", Tags: []string{"Easter", "hope"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CreateRequest{Title: "Grace Abounds", Category: "Grace", VideoURL: "https://x/2"})
	require.NoError(t, err)
	gone, err := svc.Create(ctx, admin, CreateRequest{Title: "Old", Category: "Faith", VideoURL: "https://x/3"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, gone.ID))

	page, err := svc.List(ctx, ListFilter{Category: "faith"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Hope", page.Items[0].Title)

	page, err = svc.List(ctx, ListFilter{Search: "abounds"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = svc.List(ctx, ListFilter{Tag: "EASTER"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, []string{"easter", "hope"}, page.Items[0].Tags)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Faith", "Grace"}, categories)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	sermon, err := svc.Create(ctx, uuid.New(), CreateRequest{Title: "Draft", VideoURL: "https://x/1"})
	require.NoError(t, err)

	title := "Final"
	downloadable := true
	updated, err := svc.Update(ctx, sermon.ID, UpdateRequest{Title: &title, Downloadable: &downloadable})
	require.NoError(t, err)
	require.Equal(t, "Final", updated.Title)
	require.True(t, updated.Downloadable)

	require.NoError(t, svc.Delete(ctx, sermon.ID))
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.Delete(ctx, sermon.ID)))
	_, err = svc.View(ctx, sermon.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	_, err = svc.Update(ctx, sermon.ID, UpdateRequest{Title: &title})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
