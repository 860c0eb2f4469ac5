package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/citypulse/incident-api/internal/models"
)

// setupTestDB opens an in-memory SQLite database and migrates the
// full schema. The pool is pinned to one connection so every query
// sees the same memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.Comment{},
		&models.ReportUpvote{},
		&models.CommentUpvote{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

func seedReport(t *testing.T, db *gorm.DB, userID int, lng, lat float64) models.Report {
	t.Helper()
	report := models.Report{
		UserID:      userID,
		Type:        "pothole",
		Description: "seeded report",
		OccurredAt:  time.Now().UTC().Add(-time.Hour),
		Longitude:   lng,
		Latitude:    lat,
		Status:      models.ReportStatusOpen,
	}
	if err := db.Create(&report).Error; err != nil {
		t.Fatalf("failed to seed report: %v", err)
	}
	return report
}

func seedComment(t *testing.T, db *gorm.DB, reportID, userID int, body string) models.Comment {
	t.Helper()
	comment := models.Comment{ReportID: reportID, UserID: userID, Body: body}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("failed to seed comment: %v", err)
	}
	return comment
}
