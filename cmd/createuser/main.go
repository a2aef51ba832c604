// Command createuser provisions an account, optionally with superuser rights.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"docarchive/internal/config"
	"docarchive/internal/database"
	"docarchive/internal/database/migration"
	"docarchive/internal/logging"
	"docarchive/internal/repository/postgres"
	"docarchive/internal/service"
)

func main() {
	username := flag.String("username", "", "login name of the new account")
	password := flag.String("password", os.Getenv("DOCARCHIVE_PASSWORD"), "password, defaults to $DOCARCHIVE_PASSWORD")
	superuser := flag.Bool("superuser", false, "grant superuser rights")
	flag.Parse()

	cfg := config.Load()
	log := logging.New(os.Stderr, cfg.Location()).With("createuser")
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

	// CreateUser touches neither object storage nor session tokens.
	accounts := service.NewAccountService(
		postgres.NewUserPostgres(db),
		postgres.NewProfilePostgres(db),
		postgres.NewDocumentPostgres(db),
		nil, nil, log, 0,
	)

	u, err := accounts.CreateUser(ctx, *username, *password, *superuser)
	if err != nil {
		log.Error(ctx, "create_user_failed", err, map[string]any{"username": *username})
		os.Exit(1)
	}
	fmt.Println(u.ID)
}
