package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// Open connects to driver ("sqlite" or "postgres") and returns a bun handle
// with the matching dialect. The caller owns the returned DB.
func Open(driver, dsn string) (*bun.DB, error) {
	var (
		driverName string
		dialect    schema.Dialect
	)
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		driverName, dialect = "sqlite3", sqlitedialect.New()
	case "postgres", "postgresql", "pg":
		driverName, dialect = "postgres", pgdialect.New()
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("store: dsn is required for %s", driver)
	}

	sqldb, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driverName, err)
	}
	if driverName == "sqlite3" {
		// sqlite serialises writers.
		sqldb.SetMaxOpenConns(1)
	}
	return bun.NewDB(sqldb, dialect), nil
}
