// Package visibility decides which branch-scoped content a principal may see.
package visibility

import (
	"fmt"

	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"gorm.io/gorm"
)

// BranchFilter restricts branch-scoped content. The zero value is unrestricted.
type BranchFilter struct {
	restricted bool
	branch     enums.Branch
}

// Unrestricted is the filter used for administrators.
func Unrestricted() BranchFilter {
	return BranchFilter{}
}

// ForMember restricts content to the member's home branch, shared content and
// cross-branch exceptions.
func ForMember(branch enums.Branch) BranchFilter {
	return BranchFilter{restricted: true, branch: branch}
}

func (f BranchFilter) Restricted() bool {
	return f.restricted
}

func (f BranchFilter) Branch() enums.Branch {
	return f.branch
}

// Allows is the in-memory form of the predicate applied by Scope.
func (f BranchFilter) Allows(itemBranch enums.Branch, crossBranchApproved bool) bool {
	if !f.restricted {
		return true
	}
	return itemBranch == f.branch || itemBranch == enums.BranchBoth || crossBranchApproved
}

// Scope applies the predicate at the query layer so list totals and direct
// lookups never see rows outside the member's partition. table qualifies the
// columns when the query joins other tables.
func (f BranchFilter) Scope(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !f.restricted {
			return db
		}
		prefix := ""
		if table != "" {
			prefix = table + "."
		}
		clause := fmt.Sprintf("(%sbranch = ? OR %sbranch = ? OR %scross_branch_approved = ?)", prefix, prefix, prefix)
		return db.Where(clause, string(f.branch), string(enums.BranchBoth), true)
	}
}
