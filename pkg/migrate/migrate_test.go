package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBundledMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestOrdersMigrationEnforcesDeliveryInvariants(t *testing.T) {
	content := readMigration(t, "create_orders")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"'not_assigned', 'assigned', 'picked', 'in_transit', 'delivered'",
		"CHECK ((delivery_status = 'not_assigned') = (transporter_id IS NULL))",
		"CHECK ((delivery_status = 'delivered') = (order_status = 'completed'))",
		"CHECK (transporter_rating BETWEEN 1 AND 5)",
		"DROP TABLE IF EXISTS orders",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReviewsMigrationHasUniquePair(t *testing.T) {
	content := readMigration(t, "create_reviews")
	require.Contains(t, content, "CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_order_buyer ON reviews (order_id, buyer_id)")
	require.Contains(t, content, "CHECK (rating BETWEEN 1 AND 5)")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Order Index!", now)
	require.NoError(t, err)
	require.Equal(t, "20260402083000_add_order_index.sql", filepath.Base(path))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "add order index", now)
	require.Error(t, err, "same version and name must not be overwritten")

	_, err = CreateSQLMigration(dir, "!!!", now)
	require.Error(t, err)
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))

	dir = t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_unbalanced.sql"), []byte(body), 0o644))
	require.Error(t, ValidateDir(dir))
}
