package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/krishi-gateway/internal/apierror"
	"github.com/godilite/krishi-gateway/internal/repository/models"
)

func TestFeedbackRepository_FindAll_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("query error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM feedback")).
			WillReturnError(errors.New("disk I/O error"))

		_, err = NewFeedbackRepository(db).FindAll(ctx)
		assert.ErrorContains(t, err, "query FindAll feedback")
		assert.ErrorContains(t, err, "disk I/O error")
		assert.Equal(t, apierror.KindUnclassified, apierror.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unparseable timestamp", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows([]string{"id", "name", "email", "rating", "category", "message", "created_at"}).
			AddRow("fb-1", "Sita", "sita@example.com", 5, "app", "ok", "yesterday")
		mock.ExpectQuery(regexp.QuoteMeta("FROM feedback")).WillReturnRows(rows)

		_, err = NewFeedbackRepository(db).FindAll(ctx)
		assert.ErrorContains(t, err, "parse created_at of feedback fb-1")
	})

	t.Run("row iteration error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows([]string{"id", "name", "email", "rating", "category", "message", "created_at"}).
			AddRow("fb-1", "Sita", "sita@example.com", 5, "app", "ok", formatTime(time.Now())).
			RowError(0, errors.New("connection reset"))
		mock.ExpectQuery(regexp.QuoteMeta("FROM feedback")).WillReturnRows(rows)

		_, err = NewFeedbackRepository(db).FindAll(ctx)
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestFarmerRepository_Insert_ClassifiesConstraintErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unique violation", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO farmers")).
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

		err = NewFarmerRepository(db).Insert(ctx, models.Farmer{ID: "f-1", Email: "a@example.com"})
		assert.Equal(t, apierror.KindPersistence, apierror.KindOf(err))
	})

	t.Run("other driver error stays unclassified", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO farmers")).
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})

		err = NewFarmerRepository(db).Insert(ctx, models.Farmer{ID: "f-1"})
		require.Error(t, err)
		assert.Equal(t, apierror.KindUnclassified, apierror.KindOf(err))
		assert.ErrorContains(t, err, "insert farmer")
	})
}

func TestFarmerRepository_Count_Failure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM farmers")).
		WillReturnError(errors.New("no such table: farmers"))

	_, err = NewFarmerRepository(db).Count(context.Background())
	assert.ErrorContains(t, err, "no such table")
}

func TestParseTime(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 500, time.UTC)

	got, err := parseTime(formatTime(ts))
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))

	got, err = parseTime("2025-06-01T12:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
}
