package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"thoughtforum/internal/config"
	"thoughtforum/internal/models"
	"thoughtforum/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "boot.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPrepare_AutoSchemaAndCategories(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{Env: "test", DBSchemaMode: "auto"}

	require.NoError(t, Prepare(context.Background(), db, cfg, Options{SeedCategories: true}))
	// Running twice is harmless.
	require.NoError(t, Prepare(context.Background(), db, cfg, Options{SeedCategories: true}))

	var n int64
	require.NoError(t, db.Model(&models.Category{}).Count(&n).Error)
	assert.Equal(t, int64(len(seed.BuiltInCategories)), n)
}

func TestPrepare_RejectsUnknownSchemaMode(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{Env: "test", DBSchemaMode: "yolo"}

	assert.Error(t, Prepare(context.Background(), db, cfg, Options{}))
}
