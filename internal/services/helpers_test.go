package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-community-store/internal/repo"
)

// newTestDB returns a file-backed SQLite database with the store schema
// installed and foreign keys enforced.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.InitSchema(context.Background(), db); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	return db
}

// failOn makes every statement of the given kind fail with err.
func failOn(t *testing.T, db *gorm.DB, kind string, err error) {
	t.Helper()
	name := "test:fail_" + kind
	fn := func(tx *gorm.DB) { _ = tx.AddError(err) }
	var regErr error
	switch kind {
	case "create":
		regErr = db.Callback().Create().Before("gorm:create").Register(name, fn)
	case "query":
		regErr = db.Callback().Query().Before("gorm:query").Register(name, fn)
	case "update":
		regErr = db.Callback().Update().Before("gorm:update").Register(name, fn)
	case "delete":
		regErr = db.Callback().Delete().Before("gorm:delete").Register(name, fn)
	default:
		t.Fatalf("unknown callback kind %q", kind)
	}
	if regErr != nil {
		t.Fatalf("register callback: %v", regErr)
	}
}
