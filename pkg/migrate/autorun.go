package migrate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date at startup, but only in the dev
// environment with CHURCHHUB_AUTO_MIGRATE set. Postgres gets the embedded goose
// migrations; sqlite gets the mirrored schema.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})
	started := time.Now()

	if err := upToDate(ctx, client); err != nil {
		return fmt.Errorf("dev auto-migrate: %w", err)
	}

	logg.Info(logg.WithField(ctx, "elapsed_ms", time.Since(started).Milliseconds()), "migrate.autorun.complete")
	return nil
}

func upToDate(ctx context.Context, client *db.Client) error {
	if client.IsSQLite() {
		return ApplySQLite(client.DB())
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	runner, err := NewRunner(sqlDB, Embedded(), io.Discard)
	if err != nil {
		return err
	}
	return runner.Up(ctx)
}
