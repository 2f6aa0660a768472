package prayers

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	svc, err := NewService(ServiceParams{DB: db})
	require.NoError(t, err)
	return svc, db
}

func member(name string, branch enums.Branch) principals.Principal {
	return principals.FromMember(&models.Member{
		ID:             uuid.New(),
		Name:           name,
		Branch:         branch,
		ApprovalStatus: enums.ApprovalStatusApproved,
		Active:         true,
	})
}

func admin() principals.Principal {
	return principals.FromAdministrator(&models.Administrator{
		ID:          uuid.New(),
		AdminLevel:  enums.AdminLevelStandard,
		Permissions: models.PermissionsFrom([]enums.AdminPermission{enums.PermissionManageContent}),
		Active:      true,
	})
}

func TestSubmitAnonymousIsRedacted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ruth := member("Ruth", enums.BranchTwo)

	prayer, err := svc.Submit(ctx, ruth, SubmitRequest{Title: "Healing", Description: "For my mother", IsAnonymous: true})
	require.NoError(t, err)
	require.Equal(t, "Anonymous", prayer.SubmitterDisplayName)
	require.NotNil(t, prayer.SubmittedByMemberID)
	require.Equal(t, enums.PrayerPriorityNormal, prayer.Priority)
	require.Equal(t, enums.BranchTwo, prayer.SubmitterBranch)

	other, err := svc.Get(ctx, member("Naomi", enums.BranchOne), prayer.ID)
	require.NoError(t, err)
	require.Nil(t, other.SubmittedByMemberID)
	require.False(t, other.IsOwn)

	own, err := svc.Get(ctx, ruth, prayer.ID)
	require.NoError(t, err)
	require.Nil(t, own.SubmittedByMemberID)
	require.True(t, own.IsOwn)

	_, err = svc.Submit(ctx, admin(), SubmitRequest{Title: "x", Description: "y"})
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestTogglePray(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	prayer, err := svc.Submit(ctx, member("Ruth", enums.BranchOne), SubmitRequest{Title: "Job", Description: "Interview"})
	require.NoError(t, err)

	naomi := member("Naomi", enums.BranchTwo)
	boaz := member("Boaz", enums.BranchOne)

	res, err := svc.TogglePray(ctx, naomi, prayer.ID)
	require.NoError(t, err)
	require.True(t, res.Prayed)
	require.Equal(t, 1, res.PrayerCount)

	res, err = svc.TogglePray(ctx, boaz, prayer.ID)
	require.NoError(t, err)
	require.Equal(t, 2, res.PrayerCount)

	res, err = svc.TogglePray(ctx, naomi, prayer.ID)
	require.NoError(t, err)
	require.False(t, res.Prayed)
	require.Equal(t, 1, res.PrayerCount)

	dto, err := svc.Get(ctx, boaz, prayer.ID)
	require.NoError(t, err)
	require.NotNil(t, dto.PrayedByMe)
	require.True(t, *dto.PrayedByMe)

	_, err = svc.TogglePray(ctx, admin(), prayer.ID)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = svc.TogglePray(ctx, naomi, uuid.New())
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestAnsweredAndArchived(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ruth := member("Ruth", enums.BranchOne)

	prayer, err := svc.Submit(ctx, ruth, SubmitRequest{Title: "Travel", Description: "Safe trip", Priority: "high"})
	require.NoError(t, err)

	_, err = svc.MarkAnswered(ctx, member("Stranger", enums.BranchOne), prayer.ID, "")
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	answered, err := svc.MarkAnswered(ctx, ruth, prayer.ID, "Arrived safely")
	require.NoError(t, err)
	require.Equal(t, enums.PrayerStatusAnswered, answered.Status)
	require.NotNil(t, answered.AnsweredAt)
	require.Equal(t, "Arrived safely", *answered.AnsweredDescription)

	_, err = svc.TogglePray(ctx, member("Naomi", enums.BranchOne), prayer.ID)
	require.ErrorIs(t, err, ErrPrayerNotActive)

	title := "Edited"
	_, err = svc.Update(ctx, ruth, prayer.ID, UpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrPrayerNotActive)

	archived, err := svc.Archive(ctx, prayer.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PrayerStatusArchived, archived.Status)
	_, err = svc.Archive(ctx, prayer.ID)
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	page, err := svc.List(ctx, ruth, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, page.Items)

	status := enums.PrayerStatusArchived
	page, err = svc.List(ctx, ruth, ListFilter{Status: &status}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ruth := member("Ruth", enums.BranchOne)

	prayer, err := svc.Submit(ctx, ruth, SubmitRequest{Title: "Exams", Description: "Finals week"})
	require.NoError(t, err)

	title, priority := "Final exams", "urgent"
	updated, err := svc.Update(ctx, ruth, prayer.ID, UpdateRequest{Title: &title, Priority: &priority})
	require.NoError(t, err)
	require.Equal(t, "Final exams", updated.Title)
	require.Equal(t, enums.PrayerPriorityUrgent, updated.Priority)

	_, err = svc.Update(ctx, member("Other", enums.BranchOne), prayer.ID, UpdateRequest{Title: &title})
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	bad := "critical"
	_, err = svc.Update(ctx, ruth, prayer.ID, UpdateRequest{Priority: &bad})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(svc.Delete(ctx, member("Other", enums.BranchOne), prayer.ID)))
	require.NoError(t, svc.Delete(ctx, admin(), prayer.ID))
	_, err = svc.Get(ctx, ruth, prayer.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, member("A", enums.BranchOne), SubmitRequest{Title: "a", Description: "a", Priority: "low"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, member("B", enums.BranchTwo), SubmitRequest{Title: "b", Description: "b", Priority: "urgent"})
	require.NoError(t, err)

	branch := enums.BranchTwo
	page, err := svc.List(ctx, admin(), ListFilter{Branch: &branch}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "b", page.Items[0].Title)

	priority := enums.PrayerPriorityLow
	page, err = svc.List(ctx, admin(), ListFilter{Priority: &priority}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "a", page.Items[0].Title)
}

func TestArchiveAnsweredBefore(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	ruth := member("Ruth", enums.BranchOne)

	old, err := svc.Submit(ctx, ruth, SubmitRequest{Title: "old", Description: "old"})
	require.NoError(t, err)
	recent, err := svc.Submit(ctx, ruth, SubmitRequest{Title: "recent", Description: "recent"})
	require.NoError(t, err)

	longAgo := time.Now().UTC().Add(-60 * 24 * time.Hour)
	require.NoError(t, db.Model(&models.PrayerRequest{}).Where("id = ?", old.ID).
		UpdateColumns(map[string]any{"status": enums.PrayerStatusAnswered, "answered_at": longAgo}).Error)
	_, err = svc.MarkAnswered(ctx, ruth, recent.ID, "")
	require.NoError(t, err)

	n, err := svc.ArchiveAnsweredBefore(ctx, time.Now().UTC().Add(-30*24*time.Hour), 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	reloaded, err := svc.repo.FindByID(ctx, old.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PrayerStatusArchived, reloaded.Status)
	reloaded, err = svc.repo.FindByID(ctx, recent.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PrayerStatusAnswered, reloaded.Status)
}

func TestMarkAnsweredStoresBlankDescription(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ruth := member("Ruth", enums.BranchOne)

	prayer, err := svc.Submit(ctx, ruth, SubmitRequest{Title: "Harvest", Description: "Rain for the fields"})
	require.NoError(t, err)

	answered, err := svc.MarkAnswered(ctx, ruth, prayer.ID, "   ")
	require.NoError(t, err)
	require.Equal(t, enums.PrayerStatusAnswered, answered.Status)
	require.NotNil(t, answered.AnsweredDescription)
	require.Empty(t, *answered.AnsweredDescription)
}
