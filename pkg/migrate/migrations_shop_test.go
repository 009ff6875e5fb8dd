package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neiist-dev/shop-backend/pkg/migrate"
)

func TestCatalogMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_catalog_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS product_variants",
		"stock_quantity INTEGER",
		"option_schema JSONB",
		"CREATE INDEX IF NOT EXISTS idx_products_visible_category",
		"CREATE INDEX IF NOT EXISTS idx_products_visible_featured",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"order_id TEXT PRIMARY KEY",
		"CREATE TABLE IF NOT EXISTS order_items",
		"status TEXT NOT NULL DEFAULT 'pending'",
		"CREATE INDEX IF NOT EXISTS idx_orders_status",
		"CREATE INDEX IF NOT EXISTS idx_orders_ist_id",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration validation failed: %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
