package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gurudev-engicon/gallery-backend/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestImagesMigrationContainsSchema(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_images.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS images",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_images_public_id",
		"DROP TABLE IF EXISTS images",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestValidateDirAcceptsRepositoryMigrations(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create_images.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Image Captions!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_image_captions.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestRunAppliesMigrationsOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrate.db")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, migrate.Run(ctx, sqlDB, "sqlite", "migrations", "up"))
	assert.True(t, conn.Migrator().HasTable("images"))

	require.NoError(t, migrate.Run(ctx, sqlDB, "sqlite", "migrations", "down"))
	assert.False(t, conn.Migrator().HasTable("images"))
}

func TestGooseDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", migrate.GooseDialect("sqlite"))
	assert.Equal(t, "postgres", migrate.GooseDialect("postgres"))
}
