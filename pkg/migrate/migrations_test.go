package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopfront-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	require.NoError(t, migrate.ValidateEmbedded())

	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	embedded, err := fs.Glob(migrate.Embedded(), "migrations/*.sql")
	require.NoError(t, err)
	require.Len(t, embedded, len(onDisk))
}

func TestValidateRejectsMissingDownMarker(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nCREATE TABLE t (id int);\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_t.sql"), []byte(body), 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "-- +goose Down")
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (count_in_stock >= 0)",
		"filters jsonb NOT NULL",
		"images text[] NOT NULL",
	} {
		require.Contains(t, content, want)
	}
}

func TestWishlistMigrationIsUniquePerUserProduct(t *testing.T) {
	content := readMigration(t, "*_create_reviews_and_wishlist.sql")
	require.Contains(t, content, "UNIQUE (user_id, product_id)")
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Coupons!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_coupons.sql"))
	require.NoError(t, migrate.ValidateDir(dir))
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no migration matches %s", pattern)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}
