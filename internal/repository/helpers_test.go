package repository

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

// q quotes a literal SQL fragment for the regexp matcher.
func q(s string) string { return regexp.QuoteMeta(s) }

var videoCols = []string{"id", "owner_id", "title", "description", "video_file", "thumbnail",
	"duration", "views", "is_published", "created_at", "updated_at",
	"uid", "username", "full_name", "avatar"}

func videoRow(rows *sqlmock.Rows, id, owner uint64, title string) *sqlmock.Rows {
	return rows.AddRow(id, owner, title, "desc", "https://cdn/v.mp4", "https://cdn/t.jpg",
		12.5, 3, true, ts, ts, owner, "bob", "Bob B", "https://cdn/a.jpg")
}
