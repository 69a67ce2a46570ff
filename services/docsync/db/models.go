package db

import (
	"database/sql"
)

type Article struct {
	ID             int64
	ArticleID      string
	SourceUrl      string
	Title          string
	Status         sql.NullString
	LastSynced     sql.NullString
	CronSchedule   sql.NullString
	LastCronUpdate sql.NullString
}
