// Package storetest provides store fixtures for service tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/pkg/testsupport"
)

// NewSQLiteDB opens a private in-memory sqlite database with the catalog
// schema applied. It is closed when the test ends.
func NewSQLiteDB(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := testsupport.NewSQLiteMemoryDB(t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.CreateSchema(ctx, db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

// Each runs fn once against a memory store and once against a sqlite
// backed bun store.
func Each(t *testing.T, fn func(t *testing.T, st store.Store)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		fn(t, store.NewMemoryStore())
	})
	t.Run("bun", func(t *testing.T) {
		fn(t, store.NewBunStore(NewSQLiteDB(t)))
	})
}
