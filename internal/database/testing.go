// internal/database/testing.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
)

// OpenTest connects to the Postgres described by the PG* environment
// variables. The test is skipped when no database is reachable.
func OpenTest(t testing.TB, statements ...string) *sql.DB {
	t.Helper()

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getenv("PGHOST", "localhost"),
		getenv("PGPORT", "5432"),
		getenv("PGUSER", "user"),
		getenv("PGPASSWORD", "password"),
		getenv("PGDATABASE", "testdb"),
	)

	db, err := Open(context.Background(), connStr)
	if err != nil {
		t.Skipf("skipping: could not connect to postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(context.Background(), db, statements...); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
