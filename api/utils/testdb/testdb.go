// Package testdb opens throwaway sqlite databases for tests.
package testdb

import (
	"fmt"
	"sync/atomic"
	"testing"

	"microblog/api/models"
	"microblog/api/security"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var counter atomic.Int64

// Open returns a migrated in-memory database private to t. Every connection
// in the pool sees the same data, so transactions work as in production.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	security.Cost = bcrypt.MinCost

	dsn := fmt.Sprintf("file:microblog_test_%d?mode=memory&cache=shared&_foreign_keys=on", counter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate in-memory database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to reach sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser registers username with a throwaway password.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com"}
	if err := user.SetPassword("password123"); err != nil {
		t.Fatalf("set password for %s: %v", username, err)
	}
	if _, err := user.SaveUser(db); err != nil {
		t.Fatalf("save user %s: %v", username, err)
	}
	return user
}
