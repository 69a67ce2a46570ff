package configlibsql

import (
	"context"
	"database/sql"
	"fmt"

	"zendocs-backend/pkg/migrations"
)

// Struct is the `database` section of a config file. A Url selects a remote
// libsql database, otherwise File is opened as a local sqlite database.
type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Struct) Remote() bool {
	return config.Url != ""
}

func (config Struct) OpenDB() (*sql.DB, error) {
	if config.Remote() {
		return migrations.OpenLibsql(config.Url, config.AuthToken)
	}
	if config.File == "" {
		return nil, fmt.Errorf("a database path was not specified")
	}
	return migrations.OpenDB(config.File)
}

// OpenAndMigrate opens the database and applies schema and columns to it.
func (config Struct) OpenAndMigrate(ctx context.Context, schema string, columns ...migrations.Column) (*sql.DB, error) {
	db, err := config.OpenDB()
	if err != nil {
		return nil, err
	}
	err = migrations.Migrate(ctx, db, schema, columns...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
