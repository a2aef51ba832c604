// Command cleanup runs a single retention pass and exits, for use from cron.
package main

import (
	"context"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"docarchive/internal/config"
	"docarchive/internal/database"
	"docarchive/internal/database/migration"
	"docarchive/internal/logging"
	"docarchive/internal/repository/postgres"
	"docarchive/internal/retention"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Location()).With("cleanup")
	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "db_connect_failed", err, nil)
		os.Exit(1)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Error(ctx, "migration_failed", err, nil)
		os.Exit(1)
	}

	job, err := retention.NewJob(postgres.NewAuditPostgres(db), postgres.NewDocumentPostgres(db), cfg.Retention.AuditRetention, log, nil)
	if err != nil {
		log.Error(ctx, "retention_init_failed", err, nil)
		os.Exit(1)
	}

	if _, err := job.RunOnce(ctx); err != nil {
		// RunOnce already logged the failing step.
		os.Exit(1)
	}
}
