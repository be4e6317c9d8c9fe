package db

import "fmt"

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{version: 1, name: "lookup_cache", sql: lookupCacheTable},
}

func validateMigrations() error {
	if len(migrations) == 0 {
		return fmt.Errorf("no migrations defined")
	}

	seenVersions := make(map[int]bool)
	seenNames := make(map[string]bool)
	prevVersion := 0
	for _, migration := range migrations {
		if migration.version <= 0 {
			return fmt.Errorf("invalid migration version %d", migration.version)
		}
		if seenVersions[migration.version] {
			return fmt.Errorf("duplicate migration version %d", migration.version)
		}
		if seenNames[migration.name] {
			return fmt.Errorf("duplicate migration name %s", migration.name)
		}
		if migration.version <= prevVersion {
			return fmt.Errorf("migration version %d out of order", migration.version)
		}
		seenVersions[migration.version] = true
		seenNames[migration.name] = true
		prevVersion = migration.version
	}

	return nil
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Times are unix milliseconds so expiry can be compared against a caller
// supplied clock.
const lookupCacheTable = `
CREATE TABLE IF NOT EXISTS lookup_cache (
	cache_key TEXT PRIMARY KEY,
	payload_json TEXT NOT NULL,
	fetched_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lookup_cache_expires_at ON lookup_cache(expires_at);
`
