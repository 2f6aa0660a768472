package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where the repository keeps its goose SQL files.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded returns the migrations compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return sub
}

// Runner applies one migration source to a postgres database.
type Runner struct {
	provider *goose.Provider
	out      io.Writer
}

func NewRunner(db *sql.DB, source fs.FS, out io.Writer) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if out == nil {
		out = io.Discard
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, source)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider, out: out}, nil
}

func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	r.report(results...)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(r.out, "no pending migrations")
	}
	return nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) error {
	result, err := r.provider.Down(ctx)
	if result != nil {
		r.report(result)
	}
	if err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

func (r *Runner) Status(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	for _, st := range statuses {
		applied := "-"
		if !st.AppliedAt.IsZero() {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(r.out, "%-8s %-25s %s\n", st.State, applied, path.Base(st.Source.Path))
	}
	return nil
}

// To moves the schema up or down until version is the latest applied migration.
func (r *Runner) To(ctx context.Context, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		results, err = r.provider.UpTo(ctx, target)
	default:
		results, err = r.provider.DownTo(ctx, target)
	}
	r.report(results...)
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}

// Exec dispatches one of up, down or status.
func (r *Runner) Exec(ctx context.Context, command string) error {
	switch command {
	case "up":
		return r.Up(ctx)
	case "down":
		return r.Down(ctx)
	case "status":
		return r.Status(ctx)
	default:
		return fmt.Errorf("unsupported migrate command %q", command)
	}
}

func (r *Runner) report(results ...*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		fmt.Fprintf(r.out, "%-4s %s (%s)\n", res.Direction, path.Base(res.Source.Path), res.Duration.Round(time.Millisecond))
	}
}

// Run executes command using the SQL files found in dir.
func Run(ctx context.Context, db *sql.DB, dir, command string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	runner, err := NewRunner(db, os.DirFS(dir), os.Stdout)
	if err != nil {
		return err
	}
	return runner.Exec(ctx, command)
}

// RunEmbedded executes command against the compiled-in migrations.
func RunEmbedded(ctx context.Context, db *sql.DB, command string) error {
	runner, err := NewRunner(db, Embedded(), os.Stdout)
	if err != nil {
		return err
	}
	return runner.Exec(ctx, command)
}

// MigrateToVersion moves the database in dir's history to version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir, version string) error {
	runner, err := NewRunner(db, os.DirFS(dir), os.Stdout)
	if err != nil {
		return err
	}
	return runner.To(ctx, version)
}
