// Command catalog-migrate creates the catalog tables and indexes on a sqlite
// or postgres database. It is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/goliatone/go-catalog/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("catalog-migrate: load .env: %v", err)
	}
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("catalog-migrate: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fset := flag.NewFlagSet("catalog-migrate", flag.ContinueOnError)
	driver := fset.String("db-driver", envOr("CATALOG_DB_DRIVER", "sqlite"), "Storage driver: sqlite or postgres")
	dsn := fset.String("db-dsn", os.Getenv("CATALOG_DB_DSN"), "Storage DSN")
	timeout := fset.Duration("timeout", 30*time.Second, "Schema creation timeout")
	if err := fset.Parse(args); err != nil {
		return err
	}

	db, err := store.Open(*driver, *dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", *driver, err)
	}
	if err := store.CreateSchema(ctx, db); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "catalog schema ready (%s)\n", db.Dialect().Name())
	return nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
