package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/eventbot/internal/diary"
)

var sampleList = diary.List{
	{Date: "23 January 2024", Text: "finished first draft"},
	{Date: "24 January 2024", Text: "ran 5k"},
}

const sampleJSON = `[{"date":"23 January 2024","text":"finished first draft"},{"date":"24 January 2024","text":"ran 5k"}]`

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(sqlx.NewDb(db, "postgres")), mock
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	list, err := m.Get(ctx, "1")
	require.NoError(t, err)
	require.Empty(t, list)
	require.NotNil(t, list)

	require.NoError(t, m.Put(ctx, "1", sampleList))
	got, err := m.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, sampleList, got)

	got[0].Text = "mutated"
	again, err := m.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, sampleList, again)
}

func TestMemoryCreateKeepsExisting(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, "1", sampleList))
	require.NoError(t, m.Create(ctx, "1"))
	require.NoError(t, m.Create(ctx, "2"))

	got, err := m.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, sampleList, got)

	ids, err := m.UserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ids)
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Get(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryCorruptRecord(t *testing.T) {
	m := NewMemory()
	m.records["1"] = []byte("{not json")
	_, err := m.Get(context.Background(), "1")
	require.Error(t, err)
}

func TestPostgresGet(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryGet)).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"entries"}).AddRow([]byte(sampleJSON)))

	got, err := p.Get(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, sampleList, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissingUser(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryGet)).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"entries"}))

	got, err := p.Get(context.Background(), "42")
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetFailures(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryGet)).
		WithArgs("42").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectQuery(regexp.QuoteMeta(queryGet)).
		WithArgs("43").
		WillReturnRows(sqlmock.NewRows([]string{"entries"}).AddRow([]byte("{broken")))

	_, err := p.Get(context.Background(), "42")
	require.ErrorIs(t, err, sql.ErrConnDone)

	_, err = p.Get(context.Background(), "43")
	require.ErrorContains(t, err, "decode entries")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPut(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(queryPut)).
		WithArgs("42", sampleJSON).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(queryPut)).
		WithArgs("43", "[]").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.Put(context.Background(), "42", sampleList))
	require.NoError(t, p.Put(context.Background(), "43", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPutFailure(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(queryPut)).
		WithArgs("42", sampleJSON).
		WillReturnError(errors.New("disk full"))

	require.ErrorContains(t, p.Put(context.Background(), "42", sampleList), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(queryCreate)).
		WithArgs("42").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, p.Create(context.Background(), "42"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserIDs(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(queryUserIDs)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("1").AddRow("2"))

	ids, err := p.UserIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
