package database

import (
	"embed"
	"fmt"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	postgresSchemaFile = "migrations/001_postgres_schema.sql"
	sqliteSchemaFile   = "migrations/001_sqlite_schema.sql"
)

// PostgresSchema returns the PostgreSQL DDL
func PostgresSchema() (string, error) {
	return readMigration(postgresSchemaFile)
}

// SQLiteSchema returns the SQLite DDL
func SQLiteSchema() (string, error) {
	return readMigration(sqliteSchemaFile)
}

func readMigration(name string) (string, error) {
	b, err := migrationFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("unable to read migration file %s: %w", name, err)
	}
	return string(b), nil
}
