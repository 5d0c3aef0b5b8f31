// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"Playshare/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a migrated sqlite database living in t's temp dir.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "playshare.db")
	gdb, err := db.Open(sqlite.Open(path + "?_busy_timeout=5000"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	gdb.Logger = gdb.Logger.LogMode(gormlogger.Silent)

	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.CloseGormDB(gdb) })
	return gdb
}
