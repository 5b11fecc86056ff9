package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"

	"github.com/pressly/goose/v3"
)

const (
	DefaultDir  = "pkg/migrate/migrations"
	embeddedDir = "migrations"
)

//go:embed migrations/*.sql
var embedded embed.FS

func Embedded() fs.FS {
	return embedded
}

// source resolves dir to the filesystem goose reads from. An empty dir means
// the compiled-in set.
type source struct {
	fsys     fs.FS
	root     string
	path     string
	embedded bool
}

func sourceFor(dir string) source {
	if dir == "" {
		return source{fsys: embedded, root: embeddedDir, path: embeddedDir, embedded: true}
	}
	return source{fsys: os.DirFS(dir), root: ".", path: dir}
}

// use points goose at the source. goose keeps this in package state, so
// callers must not run migrations concurrently.
func (s source) use() (string, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return "", fmt.Errorf("goose dialect: %w", err)
	}
	if s.embedded {
		goose.SetBaseFS(embedded)
	} else {
		goose.SetBaseFS(nil)
	}
	return s.path, nil
}

// Run executes a goose command such as up, down, redo, reset or status.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if db == nil {
		return errors.New("migrate: db is required")
	}
	path, err := sourceFor(dir).use()
	if err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, path, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down to target, which must be 0 or
// one of the known migration versions.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, target string) error {
	src := sourceFor(dir)
	want, err := src.checkTarget(target)
	if err != nil {
		return err
	}
	path, err := src.use()
	if err != nil {
		return err
	}
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("current version: %w", err)
	}

	switch {
	case current < want:
		err = goose.UpToContext(ctx, db, path, want)
	case current > want:
		err = goose.DownToContext(ctx, db, path, want)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, want, err)
	}
	return nil
}

// Pending lists the migration versions newer than the database's current one.
func Pending(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	src := sourceFor(dir)
	versions, err := Versions(src.fsys, src.root)
	if err != nil {
		return nil, err
	}
	if _, err := src.use(); err != nil {
		return nil, err
	}
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("current version: %w", err)
	}
	var out []string
	for _, v := range versions {
		if n, _ := strconv.ParseInt(v, 10, 64); n > current {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s source) checkTarget(target string) (int64, error) {
	if target == "" {
		return 0, errors.New("migrate: target version is required")
	}
	want, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("version %q is not YYYYMMDDHHMMSS: %w", target, err)
	}
	if want == 0 {
		return 0, nil
	}
	versions, err := Versions(s.fsys, s.root)
	if err != nil {
		return 0, err
	}
	if !slices.Contains(versions, target) {
		return 0, fmt.Errorf("version %s has no migration file", target)
	}
	return want, nil
}
