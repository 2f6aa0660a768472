package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
)

type note struct {
	ID    uint `gorm:"primaryKey"`
	Title string
	Kept  bool
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&note{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}
	//nolint:staticcheck // nil context selects the raw connection
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)
	boom := errors.New("boom")

	err := base.Transaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&note{Title: "draft"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&note{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestFindPage(t *testing.T) {
	db := newTestDB(t)
	for i, title := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, db.Create(&note{Title: title, Kept: i != 2}).Error)
	}

	query := db.Model(&note{}).Where("kept = ?", true)
	items, total, err := FindPage[note](query, pagination.Params{Page: 2, Limit: 2}, "id DESC")
	require.NoError(t, err)
	require.EqualValues(t, 4, total)
	require.Len(t, items, 2)
	require.Equal(t, "b", items[0].Title)
	require.Equal(t, "a", items[1].Title)

	items, total, err = FindPage[note](db.Model(&note{}).Where("title = ?", "zzz"), pagination.Params{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.NotNil(t, items)
	require.Empty(t, items)
}
