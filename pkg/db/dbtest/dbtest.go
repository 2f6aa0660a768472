// Package dbtest opens isolated sqlite databases carrying the application schema.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/churchhub-backend/pkg/migrate"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a fresh in-memory database private to the calling test. Foreign
// keys are not enforced, so tests may seed rows without their parents.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, false)
}

// OpenWithForeignKeys is Open with foreign key enforcement, cascades included.
func OpenWithForeignKeys(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, true)
}

func open(t testing.TB, foreignKeys bool) *gorm.DB {
	t.Helper()

	fk := "off"
	if foreignKeys {
		fk = "on"
	}
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=%s", name, fk)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.ApplySQLite(conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return conn
}
