package testsupport

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteMemoryDB opens a shared-cache in-memory sqlite database private
// to name, typically t.Name(). Foreign keys are enabled.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	clean := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(name)
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", clean))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
