package storage

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		for _, stmt := range schemaV1 {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}
		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	switch {
	case version == currentSchemaVersion:
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	case version > currentSchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	case version == 0:
		// Created but never initialised, e.g. an interrupted first open.
		return db.initializeSchema()
	}
	db.logger.Info("Running database migrations", "fromVersion", version, "toVersion", currentSchemaVersion)
	return nil
}

func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

var schemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		ontology_version TEXT NOT NULL,
		relations TEXT NOT NULL,
		tie_break TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	`CREATE TABLE IF NOT EXISTS descendant_counts (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		term_id TEXT NOT NULL,
		dcnt INTEGER NOT NULL,
		PRIMARY KEY (run_id, term_id)
	)`,
	`CREATE TABLE IF NOT EXISTS branch_letters (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		term_id TEXT NOT NULL,
		namespace TEXT NOT NULL,
		letter TEXT NOT NULL,
		dcnt INTEGER NOT NULL,
		PRIMARY KEY (run_id, term_id)
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		member_id TEXT NOT NULL,
		header_id TEXT NOT NULL,
		self_header INTEGER NOT NULL,
		section TEXT NOT NULL,
		PRIMARY KEY (run_id, member_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_header ON assignments(run_id, header_id)`,
}
