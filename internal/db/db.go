package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sql.DB
}

func New(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.setup(path); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("setting up database: %w", err)
	}

	return db, nil
}

func (db *DB) setup(path string) error {
	if err := db.conn.Ping(); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	// each :memory: connection is its own database
	if path == ":memory:" {
		db.conn.SetMaxOpenConns(1)
	} else {
		db.conn.SetMaxOpenConns(10)
		db.conn.SetMaxIdleConns(10)
	}
	db.conn.SetConnMaxLifetime(5 * time.Minute)

	if err := db.migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	return nil
}

func (db *DB) migrate() error {
	if err := validateMigrations(); err != nil {
		return err
	}

	if _, err := db.conn.Exec(schemaMigrationsTable); err != nil {
		return fmt.Errorf("creating schema migrations table: %w", err)
	}

	applied, err := db.appliedMigrations()
	if err != nil {
		return fmt.Errorf("fetching applied migrations: %w", err)
	}

	count := 0
	for _, migration := range migrations {
		if applied[migration.version] {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %d_%s: %w", migration.version, migration.name, err)
		}

		if _, err := tx.Exec(migration.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %d_%s: %w", migration.version, migration.name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.version,
			migration.name,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %d_%s: %w", migration.version, migration.name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d_%s: %w", migration.version, migration.name, err)
		}
		count++
	}

	if count > 0 {
		slog.Info("database migrations applied", "count", count)
	}
	return nil
}

func (db *DB) appliedMigrations() (map[int]bool, error) {
	rows, err := db.conn.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return applied, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
