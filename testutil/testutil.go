// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"omni3d_back/database"
	"omni3d_back/storage"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB opens a private in-memory sqlite database with the given models migrated.
func DB(tb testing.TB, models ...any) *gorm.DB {
	tb.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db, models...); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	// One connection keeps the memory database alive and serializes writers the
	// way a sqlite file does, instead of failing with SQLITE_LOCKED.
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// FileStore returns a file store rooted in a fresh temp directory.
func FileStore(tb testing.TB, maxBytes int64) *storage.FileStore {
	tb.Helper()
	store, err := storage.NewFileStore(filepath.Join(tb.TempDir(), "uploads"), maxBytes)
	if err != nil {
		tb.Fatalf("file store: %v", err)
	}
	return store
}
