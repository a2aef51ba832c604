package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docarchive/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last table step; its presence means the schema is in place.
const sentinelTable = "public.share_links"

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  username      TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  is_superuser  BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_profiles",
		SQL: `CREATE TABLE IF NOT EXISTS profiles (
  user_id    UUID        PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
  avatar_key TEXT        NOT NULL DEFAULT '',
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_categories",
		SQL: `CREATE TABLE IF NOT EXISTS categories (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name           TEXT        NOT NULL UNIQUE CHECK (char_length(name) BETWEEN 1 AND 100),
  retention_days INTEGER     NOT NULL DEFAULT 0 CHECK (retention_days >= 0),
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title          TEXT        NOT NULL CHECK (char_length(title) BETWEEN 1 AND 200),
  description    TEXT        NOT NULL DEFAULT '',
  file_name      TEXT        NOT NULL,
  storage_path   TEXT        NOT NULL UNIQUE,
  size           BIGINT      NOT NULL CHECK (size >= 0),
  content_type   TEXT        NOT NULL,
  category_id    UUID        REFERENCES categories (id) ON DELETE SET NULL,
  security_level TEXT        NOT NULL DEFAULT 'public' CHECK (security_level IN ('public', 'internal', 'secret')),
  owner_id       UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  archived       BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_audit_log",
		SQL: `CREATE TABLE IF NOT EXISTS audit_log (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  actor_id       UUID        REFERENCES users (id) ON DELETE SET NULL,
  actor_name     TEXT        NOT NULL DEFAULT '',
  action         TEXT        NOT NULL CHECK (action IN ('upload', 'edit', 'delete')),
  document_title TEXT        NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_share_links",
		SQL: `CREATE TABLE IF NOT EXISTS share_links (
  token       TEXT        PRIMARY KEY,
  document_id UUID        NOT NULL UNIQUE REFERENCES documents (id) ON DELETE CASCADE,
  created_by  UUID        REFERENCES users (id) ON DELETE SET NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_security_level",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_security_level ON documents (security_level);`,
	},
	{
		Name: "create_index_documents_category_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_category_id ON documents (category_id);`,
	},
	{
		Name: "create_index_documents_owner_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents (owner_id);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_index_audit_log_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log (created_at);`,
	},
}

// EnsureMigrated checks if the sentinel table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logging.Logger, dbHost string) error {
	if log == nil {
		log = logging.Default()
	}
	log = log.With("database")
	start := time.Now()

	log.Info(ctx, "db_migration_check", map[string]any{"status": "starting", "db_host": dbHost})

	var exists bool
	query := "SELECT to_regclass($1) IS NOT NULL"
	if err := db.QueryRowContext(ctx, query, sentinelTable).Scan(&exists); err != nil {
		err = fmt.Errorf("failed to check sentinel table: %w", err)
		log.Error(ctx, "db_migration_failed", err, map[string]any{
			"status":      "error",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return err
	}

	if exists {
		log.Info(ctx, "db_migration_skip", map[string]any{
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	log.Info(ctx, "db_migration_start", map[string]any{"status": "in_progress", "db_host": dbHost})

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error(ctx, "db_migration_failed", err, map[string]any{
				"status":           "error",
				"migration_step":   step.Name,
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info(ctx, "db_migration_step", map[string]any{
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	log.Info(ctx, "db_migration_success", map[string]any{
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}
