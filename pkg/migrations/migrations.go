package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens (creating if needed) a local sqlite database.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}

	return db, nil
}

// OpenLibsql connects to a remote libsql (turso) database.
func OpenLibsql(dbUrl, authToken string) (*sql.DB, error) {
	u, err := url.Parse(dbUrl)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	if authToken != "" {
		query := u.Query()
		query.Set("authToken", authToken)
		u.RawQuery = query.Encode()
	}

	db, err := sql.Open("libsql", u.String())
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	return db, nil
}

// Column is a column that may be missing from databases created by an
// older schema.
type Column struct {
	Table      string
	Name       string
	Definition string
}

func wrapMigrate(err error) error {
	return fmt.Errorf("migrate db: %w", err)
}

// Migrate applies schema, which must be idempotent (CREATE ... IF NOT EXISTS),
// then adds every column that does not exist yet.
func Migrate(ctx context.Context, db *sql.DB, schema string, columns ...Column) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return wrapMigrate(err)
	}

	for _, col := range columns {
		exists, err := hasColumn(ctx, db, col.Table, col.Name)
		if err != nil {
			return wrapMigrate(err)
		}
		if exists {
			continue
		}

		slog.InfoContext(ctx, "adding missing column", "table", col.Table, "column", col.Name)
		_, err = db.ExecContext(ctx, fmt.Sprintf(
			"ALTER TABLE %s ADD COLUMN %s %s",
			col.Table, col.Name, col.Definition,
		))
		if err != nil {
			return wrapMigrate(err)
		}
	}
	return nil
}

func hasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		err := rows.Scan(&name)
		if err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// OpenAndMigrateDB opens a local database and brings it up to date.
func OpenAndMigrateDB(ctx context.Context, path, schema string, columns ...Column) (*sql.DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	err = Migrate(ctx, db, schema, columns...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
