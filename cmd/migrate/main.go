package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

const usage = `usage: migrate -cmd=<command> [flags]

commands:
  up        apply pending migrations from -dir
  down      roll back the latest migration
  status    list applied and pending migrations
  version   move to -version (YYYYMMDDHHMMSS), up or down
  embedded  apply the migrations compiled into this binary
  create    write an empty migration named -name into -dir
  validate  check filenames and goose markers in -dir
`

func main() {
	cmd := flag.String("cmd", "up", "migration command")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name for create")
	version := flag.String("version", "", "target version for -cmd=version")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	// create and validate only touch the filesystem
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("validate: %v", err)
		}
		fmt.Println("migrations ok")
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fail("config: %v", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"driver": cfg.DB.Driver,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := execute(ctx, client, *cmd, *dir, *version); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		client.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "migrate.complete")
}

func execute(ctx context.Context, client *db.Client, cmd, dir, version string) error {
	// goose migrations are postgres dialect; sqlite databases get the mirrored schema
	if client.IsSQLite() {
		if cmd != "up" && cmd != "embedded" {
			return fmt.Errorf("-cmd=%s is not supported for sqlite databases", cmd)
		}
		return migrate.ApplySQLite(client.DB())
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	switch cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, dir, cmd)
	case "embedded":
		return migrate.RunEmbedded(ctx, sqlDB, "up")
	case "version":
		if version == "" {
			return fmt.Errorf("missing -version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dir, version)
	default:
		return fmt.Errorf("unknown -cmd %q", cmd)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
