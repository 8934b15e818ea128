package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wovenlane/wovenlane-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestProductsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS product_variants",
		"CREATE TABLE IF NOT EXISTS product_images",
		"CREATE UNIQUE INDEX IF NOT EXISTS products_slug_key",
		"CREATE UNIQUE INDEX IF NOT EXISTS product_variants_sku_key",
		"CHECK (price_paise >= 0)",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_inventory_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"variant_id UUID PRIMARY KEY",
		"FOREIGN KEY (variant_id) REFERENCES product_variants(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS inventory_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}

	// The decrement floor is enforced in SQL at write time, not by a
	// table constraint, so backorders can drive the balance negative.
	if strings.Contains(content, "CHECK (available_qty >= 0)") {
		t.Error("available_qty must not carry a non-negative CHECK constraint")
	}
}

func TestOrdersMigrationContainsPaymentColumns(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_line_items",
		"CREATE UNIQUE INDEX IF NOT EXISTS orders_order_number_key",
		"gateway_order_id",
		"gateway_payment_id",
		"gateway_signature",
		"subtotal_paise BIGINT",
		"total_paise BIGINT",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationContainsDedupeIndex(t *testing.T) {
	content := readMigration(t, "*_create_outbox.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"CREATE TABLE IF NOT EXISTS outbox_dlqs",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_events_event_aggregate",
		"attempt_count INTEGER NOT NULL DEFAULT 0",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}
