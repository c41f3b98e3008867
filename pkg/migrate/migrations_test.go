package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/freshbox/freshbox-backend/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestMigrationsCreateStorefrontSchema(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var all strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		all.Write(data)
	}
	content := all.String()

	for _, table := range []string{
		"categories", "products", "addons", "product_images", "discounts",
		"orders", "order_items", "order_item_addons", "order_deliveries",
		"holidays", "available_delivery_dates", "admin_users",
		"outbox_events", "outbox_dlq",
	} {
		assert.Contains(t, content, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
	for _, idx := range []string{
		"idx_orders_order_number", "idx_discounts_code", "idx_products_slug",
		"idx_available_delivery_dates_date", "idx_holidays_date",
		"ux_outbox_events_event_aggregate",
	} {
		assert.Contains(t, content, idx)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, migrate.ValidateDir(dir))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Delivery Notes")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_delivery_notes.sql"))
	require.NoError(t, migrate.ValidateDir(dir))
}
