// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"thoughtforum/internal/database"
	"thoughtforum/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a file-backed SQLite database with the full schema. A file
// is used instead of :memory: so every pooled connection sees the same data.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "forum.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with a unique email derived from name.
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Gender:   "other",
		Password: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCategory inserts a category.
func CreateCategory(t testing.TB, db *gorm.DB, title string) *models.Category {
	t.Helper()
	category := &models.Category{Title: title}
	require.NoError(t, db.Create(category).Error)
	return category
}

// CreateQuestion inserts a question owned by userID.
func CreateQuestion(t testing.TB, db *gorm.DB, userID, categoryID uint, title string) *models.Question {
	t.Helper()
	question := &models.Question{Title: title, Body: title + " body", UserID: userID, CategoryID: categoryID}
	require.NoError(t, db.Create(question).Error)
	return question
}

// CreateAnswer inserts an answer owned by userID.
func CreateAnswer(t testing.TB, db *gorm.DB, userID, questionID uint, text string) *models.Answer {
	t.Helper()
	answer := &models.Answer{Text: text, UserID: userID, QuestionID: questionID}
	require.NoError(t, db.Create(answer).Error)
	return answer
}
