package visibility

import (
	"math/rand"
	"testing"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func referencePredicate(member, item enums.Branch, crossApproved bool) bool {
	return item == member || item == enums.BranchBoth || (item != member && crossApproved)
}

func TestAllowsMatchesReferencePredicate(t *testing.T) {
	memberBranches := []enums.Branch{enums.BranchOne, enums.BranchTwo, enums.BranchUnset}
	itemBranches := []enums.Branch{enums.BranchOne, enums.BranchTwo, enums.BranchBoth}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		member := memberBranches[rng.Intn(len(memberBranches))]
		item := itemBranches[rng.Intn(len(itemBranches))]
		cross := rng.Intn(2) == 1

		got := ForMember(member).Allows(item, cross)
		want := referencePredicate(member, item, cross)
		if got != want {
			t.Fatalf("member=%s item=%s cross=%v got %v want %v", member, item, cross, got, want)
		}
	}
}

func TestUnrestrictedAllowsEverything(t *testing.T) {
	f := Unrestricted()
	if f.Restricted() {
		t.Fatalf("unrestricted filter reports restricted")
	}
	for _, item := range []enums.Branch{enums.BranchOne, enums.BranchTwo, enums.BranchBoth} {
		if !f.Allows(item, false) {
			t.Fatalf("administrator filter should allow %s", item)
		}
	}
}

func TestScopeAgreesWithAllows(t *testing.T) {
	db := dbtest.Open(t)
	start := time.Now().UTC().Add(24 * time.Hour)

	type row struct {
		branch enums.Branch
		cross  bool
	}
	rows := []row{
		{enums.BranchOne, false},
		{enums.BranchTwo, false},
		{enums.BranchTwo, true},
		{enums.BranchBoth, false},
	}
	for _, r := range rows {
		require.NoError(t, db.Create(&models.Event{
			Title:                "event",
			StartsAt:             start,
			EndsAt:               start.Add(time.Hour),
			Branch:               r.branch,
			CreatedByPrincipalID: uuid.New(),
			CreatorKind:          enums.PrincipalKindAdministrator,
			CrossBranchApproved:  r.cross,
			Active:               true,
		}).Error)
	}

	for _, filter := range []BranchFilter{ForMember(enums.BranchOne), ForMember(enums.BranchTwo), Unrestricted()} {
		var events []models.Event
		require.NoError(t, db.Scopes(filter.Scope("events")).Find(&events).Error)

		expected := 0
		for _, r := range rows {
			if filter.Allows(r.branch, r.cross) {
				expected++
			}
		}
		require.Len(t, events, expected, "filter %+v", filter)
		for _, e := range events {
			require.True(t, filter.Allows(e.Branch, e.CrossBranchApproved))
		}
	}
}
