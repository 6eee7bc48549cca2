package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peykantravel/peykan-storefront/pkg/migrate"
)

func TestCartMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_cart_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no cart migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_records",
		"CREATE TABLE IF NOT EXISTS cart_items",
		"FOREIGN KEY (cart_id) REFERENCES cart_records(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"CHECK (kind IN ('tour', 'event', 'transfer'))",
		"DROP TABLE IF EXISTS cart_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
