package db

import (
	_ "embed"
	"time"

	"zendocs-backend/pkg/migrations"
)

//go:embed schema.sql
var Schema string

// Columns lists the columns added after the first release, databases created
// before them are migrated in place.
var Columns = []migrations.Column{
	{Table: "articles", Name: "cron_schedule", Definition: "TEXT"},
	{Table: "articles", Name: "last_cron_update", Definition: "TEXT"},
}

const (
	StatusPending = "Pending"
	StatusSyncing = "Syncing"
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// TimeLayout is how every timestamp column is stored, in local time.
const TimeLayout = "2006-01-02 15:04:05"

func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

func ParseTime(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, value, loc)
}
