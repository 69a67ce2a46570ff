package testutil

import (
	"context"
	"database/sql"
	"testing"

	"zendocs-backend/internal/components/telemetry"
	"zendocs-backend/pkg/migrations"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema  string
	DbColumns []migrations.Column
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB  *sql.DB
	Tel *telemetry.Recorder
}

// SetupService opens a migrated database for a service under test, it is
// closed when the test ends.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	t.Helper()

	result := ServiceResult{Tel: &telemetry.Recorder{}}
	if params.DbSchema == "" {
		return result
	}

	dbpath := ":memory:"
	if params.DbPath != "" {
		dbpath = params.DbPath
	}
	db, err := migrations.OpenAndMigrateDB(
		context.Background(),
		dbpath,
		params.DbSchema,
		params.DbColumns...,
	)
	if err != nil {
		t.Fatalf("setup %s: %v", params.Name, err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	result.DB = db
	return result
}
