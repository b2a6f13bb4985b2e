package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"thoughtforum/internal/config"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, configurePool(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestPing(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
	assert.NoError(t, Ping(context.Background(), openSQLite(t)))
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{
		"users", "refresh_tokens", "categories", "questions",
		"answers", "follows", "question_likes", "answer_likes",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		env      string
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{name: "default hybrid in dev", mode: "", env: "development", wantSQL: true, wantAuto: true},
		{name: "hybrid in production", mode: "hybrid", env: "production", wantSQL: true},
		{name: "sql only", mode: "SQL", env: "development", wantSQL: true},
		{name: "auto in test", mode: "auto", env: "test", wantAuto: true},
		{name: "auto refused in staging", mode: "auto", env: "staging", wantErr: true},
		{name: "unknown mode", mode: "yolo", env: "development", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&config.Config{DBSchemaMode: tt.mode, Env: tt.env})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestApplySchemaRunsGooseThenAutoMigrate(t *testing.T) {
	origUp := gooseUp
	t.Cleanup(func() { gooseUp = origUp })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	db := openSQLite(t)
	err := ApplySchema(context.Background(), db, &config.Config{DBSchemaMode: "hybrid", Env: "development"})
	require.NoError(t, err)
	assert.Equal(t, migrationsDir, gotDir)
	assert.True(t, db.Migrator().HasTable("questions"))
}

func TestApplySchemaPropagatesMigrationError(t *testing.T) {
	origUp := gooseUp
	t.Cleanup(func() { gooseUp = origUp })
	gooseUp = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err := ApplySchema(context.Background(), openSQLite(t), &config.Config{DBSchemaMode: "sql", Env: "production"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run sql migrations")
}

func TestGetSchemaStatus(t *testing.T) {
	origVersion := gooseVersion
	t.Cleanup(func() { gooseVersion = origVersion })
	gooseVersion = func(context.Context, *sql.DB) (int64, error) { return 1, nil }

	status, err := GetSchemaStatus(context.Background(), openSQLite(t), &config.Config{Env: "production"})
	require.NoError(t, err)
	assert.Equal(t, SchemaModeHybrid, status.Mode)
	assert.True(t, status.WillRunSQL)
	assert.False(t, status.WillRunAutoMigrate)
	assert.Equal(t, int64(1), status.Version)
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	goose.SetBaseFS(migrationFS)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, int64(1), migrations[0].Version)
}
