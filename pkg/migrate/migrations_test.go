package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := ValidateFS(Embedded(), embeddedDir); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestMigrationsContainPartialUniqueIndexes(t *testing.T) {
	var content strings.Builder
	err := fs.WalkDir(Embedded(), embeddedDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(Embedded(), path)
		if err != nil {
			return err
		}
		content.Write(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walk migrations: %v", err)
	}

	checks := []string{
		"ON shifts (venue_id, date, interval_id) WHERE status = 'active'",
		"ON shift_intervals (venue_id, title) WHERE status = 'active'",
		"ON adjustment_disputes (adjustment_id) WHERE status = 'OPEN'",
		"ON venue_invites (venue_id, invited_tg_username) WHERE status = 'active'",
		"ux_daily_reports_venue_date ON daily_reports (venue_id, date)",
		"venue_position_id uuid REFERENCES venue_positions(id) ON DELETE SET NULL",
		"DROP TABLE IF EXISTS adjustment_dispute_comments",
	}
	for _, sub := range checks {
		if !strings.Contains(content.String(), sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"bad-name.sql":                 "-- +goose Up\n-- +goose Down\n",
		"20250101000000_one.sql":       "-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n",
		"20250101000000_dup.sql":       "-- +goose Up\n-- +goose Down\n",
		"20250102000000_backwards.sql": "-- +goose Down\n-- +goose Up\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"bad-name.sql", "already used by", "StatementBegin vs", "Down section precedes Up"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestEmbeddedVersionsAreSorted(t *testing.T) {
	versions, err := Versions(Embedded(), embeddedDir)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) < 3 || versions[0] != "20250301090000" {
		t.Fatalf("unexpected versions %v", versions)
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Venue Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_venue_notes.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestCreateSQLMigrationBumpsPastNewestVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := os.WriteFile(filepath.Join(dir, "20250301090000_existing.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	path, err := createAt(dir, "create_venue_notes", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20250301090001_create_venue_notes.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS venue_notes (",
		"venue_id uuid NOT NULL REFERENCES venues(id)",
		"DROP TABLE IF EXISTS venue_notes;",
	} {
		if !strings.Contains(string(data), sub) {
			t.Errorf("template missing %q", sub)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Add Venue Notes!":  "add_venue_notes",
		"  shifts--index  ": "shifts_index",
		"!!!":               "",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTargetVersionMustExist(t *testing.T) {
	src := sourceFor("")
	if got, err := src.checkTarget("20250301090000"); err != nil || got != 20250301090000 {
		t.Fatalf("known version: got %d err=%v", got, err)
	}
	if got, err := src.checkTarget("0"); err != nil || got != 0 {
		t.Fatalf("version 0 rolls everything back: got %d err=%v", got, err)
	}
	for _, bad := range []string{"", "latest", "20991231235959"} {
		if _, err := src.checkTarget(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
