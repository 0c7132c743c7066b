package database

import (
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
)

// migrations are applied in version order and tracked in schema_migrations.
// Statements must stay idempotent-safe for fresh databases; once shipped a
// version is never edited, only appended to.
var migrations = map[string]string{
	"0001_create_factors": `
		CREATE TABLE IF NOT EXISTS factors (
			category TEXT PRIMARY KEY,
			factor   DOUBLE PRECISION NOT NULL CHECK (factor >= 0),
			position SERIAL
		)`,
	"0002_create_entries": `
		CREATE TABLE IF NOT EXISTS entries (
			id            BIGSERIAL PRIMARY KEY,
			timestamp     TIMESTAMPTZ NOT NULL DEFAULT now(),
			activity_date DATE NOT NULL,
			student       TEXT NOT NULL,
			class_name    TEXT NOT NULL,
			category      TEXT NOT NULL,
			quantity      DOUBLE PRECISION NOT NULL CHECK (quantity >= 0),
			unit          TEXT NOT NULL DEFAULT 'units',
			photo         BYTEA,
			notes         TEXT,
			verified      BOOLEAN NOT NULL DEFAULT FALSE,
			points        INTEGER NOT NULL DEFAULT 0,
			co2           DOUBLE PRECISION NOT NULL CHECK (co2 >= 0)
		)`,
	"0003_entries_timestamp_idx": `
		CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries (timestamp DESC)`,
	"0004_create_report_jobs": `
		CREATE TABLE IF NOT EXISTS report_jobs (
			id            UUID PRIMARY KEY,
			format        TEXT NOT NULL,
			status        TEXT NOT NULL,
			file_path     TEXT,
			requested_by  TEXT NOT NULL,
			error_message TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			finished_at   TIMESTAMPTZ
		)`,
}

// Migrate applies pending schema migrations.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	if err := db.Select(&applied, "SELECT version FROM schema_migrations"); err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}
	done := make(map[string]struct{}, len(applied))
	for _, version := range applied {
		done[version] = struct{}{}
	}

	versions := make([]string, 0, len(migrations))
	for version := range migrations {
		versions = append(versions, version)
	}
	sort.Strings(versions)

	for _, version := range versions {
		if _, ok := done[version]; ok {
			continue
		}
		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", version, err)
		}
		if _, err := tx.Exec(migrations[version]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", version, err)
		}
	}

	return nil
}
