package members

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCreateNormalizesAndStartsPending(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	member := &models.Member{Email: "  Ann@Example.ORG ", Name: "Ann", Active: true, ApprovalStatus: enums.ApprovalStatusApproved}
	require.NoError(t, repo.Create(ctx, member))

	loaded, err := repo.FindByEmail(ctx, "ann@example.org")
	require.NoError(t, err)
	require.Equal(t, member.ID, loaded.ID)
	require.Equal(t, "ann@example.org", loaded.Email)
	require.Equal(t, enums.ApprovalStatusPending, loaded.ApprovalStatus)
	require.Equal(t, enums.BranchUnset, loaded.Branch)
}

func TestRepositoryLinkSubjectOnlyOnce(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()

	member := &models.Member{Email: "bo@example.org", Name: "Bo", Active: true}
	require.NoError(t, repo.Create(ctx, member))

	linked, err := repo.LinkSubject(ctx, member.ID, "sub-1", now)
	require.NoError(t, err)
	require.True(t, linked)

	linked, err = repo.LinkSubject(ctx, member.ID, "sub-2", now)
	require.NoError(t, err)
	require.False(t, linked)

	loaded, err := repo.FindBySubject(ctx, "sub-1")
	require.NoError(t, err)
	require.Equal(t, member.ID, loaded.ID)
	require.NotNil(t, loaded.LastLoginAt)
}

func TestRepositoryUpdateProfileLeavesApprovalAlone(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	member := &models.Member{Email: "cy@example.org", Name: "Cy", Active: true}
	require.NoError(t, repo.Create(ctx, member))
	require.NoError(t, db.Model(&models.Member{}).Where("id = ?", member.ID).
		UpdateColumn("approval_status", enums.ApprovalStatusApproved).Error)

	// stale in-memory status must not be written back
	member.Name = "Cyrus"
	member.ApprovalStatus = enums.ApprovalStatusRejected
	require.NoError(t, repo.UpdateProfile(ctx, member))

	loaded, err := repo.FindByID(ctx, member.ID)
	require.NoError(t, err)
	require.Equal(t, "Cyrus", loaded.Name)
	require.Equal(t, enums.ApprovalStatusApproved, loaded.ApprovalStatus)
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, email := range []string{"a@x.org", "b@x.org", "c@x.org"} {
		require.NoError(t, repo.Create(ctx, &models.Member{Email: email, Name: email, Active: true, Branch: enums.BranchOne}))
	}
	require.NoError(t, repo.Create(ctx, &models.Member{Email: "other@y.org", Name: "Other", Active: true, Branch: enums.BranchTwo}))

	branch := enums.BranchOne
	rows, total, err := repo.List(ctx, ListFilter{Branch: &branch}, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, rows, 2)

	rows, total, err = repo.List(ctx, ListFilter{Search: "OTHER"}, pagination.Params{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "other@y.org", rows[0].Email)

	pending := enums.ApprovalStatusPending
	_, total, err = repo.List(ctx, ListFilter{Status: &pending}, pagination.Params{})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
}

func TestRepositoryDeleteRejectedBefore(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	old := &models.Member{Email: "old@x.org", Name: "Old", Active: true}
	recent := &models.Member{Email: "recent@x.org", Name: "Recent", Active: true}
	approved := &models.Member{Email: "ok@x.org", Name: "Ok", Active: true}
	for _, m := range []*models.Member{old, recent, approved} {
		require.NoError(t, repo.Create(ctx, m))
	}
	setState := func(m *models.Member, status enums.ApprovalStatus, at time.Time) {
		require.NoError(t, db.Model(&models.Member{}).Where("id = ?", m.ID).
			UpdateColumns(map[string]any{"approval_status": status, "approved_at": at}).Error)
	}
	setState(old, enums.ApprovalStatusRejected, now.Add(-100*24*time.Hour))
	setState(recent, enums.ApprovalStatusRejected, now.Add(-time.Hour))
	setState(approved, enums.ApprovalStatusApproved, now.Add(-200*24*time.Hour))

	ids, err := repo.DeleteRejectedBefore(ctx, now.Add(-90*24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, old.ID, ids[0])

	_, err = repo.FindByID(ctx, old.ID)
	require.Error(t, err)
	_, err = repo.FindByID(ctx, recent.ID)
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, approved.ID)
	require.NoError(t, err)
}
