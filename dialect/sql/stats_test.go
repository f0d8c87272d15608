package sql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDriver(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return OpenDB(db), mock
}

func TestStatsDriverRecordsQueriesAndExecs(t *testing.T) {
	drv, mock := newMockDriver(t)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectExec("UPDATE t").WillReturnResult(sqlmock.NewResult(0, 1))

	sd := NewStatsDriver(drv)
	var n int64
	require.NoError(t, sd.Query(context.Background(), "SELECT 1", []any{}, &n))
	var res Result
	require.NoError(t, sd.Exec(context.Background(), "UPDATE t", []any{}, &res))

	snap := sd.QueryStats().Stats()
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.TotalExecs)
	assert.Equal(t, int64(0), snap.Errors)
}

func TestStatsDriverCountsErrors(t *testing.T) {
	drv, mock := newMockDriver(t)
	mock.ExpectQuery("SELECT 1").WillReturnError(assert.AnError)

	sd := NewStatsDriver(drv)
	var n int64
	err := sd.Query(context.Background(), "SELECT 1", []any{}, &n)
	require.Error(t, err)
	assert.Equal(t, int64(1), sd.QueryStats().Stats().Errors)
}

func TestStatsDriverFlagsSlowQueriesAndFiresHook(t *testing.T) {
	drv, mock := newMockDriver(t)
	mock.ExpectQuery("SELECT 1").WillDelayFor(5 * time.Millisecond).WillReturnRows(
		sqlmock.NewRows([]string{"n"}).AddRow(1))

	var hookCalled bool
	sd := NewStatsDriver(drv,
		WithSlowThreshold(time.Millisecond),
		WithSlowQueryHook(func(_ context.Context, query string, args []any, duration time.Duration) {
			hookCalled = true
		}),
	)

	var n int64
	require.NoError(t, sd.Query(context.Background(), "SELECT 1", []any{}, &n))
	assert.Equal(t, int64(1), sd.QueryStats().Stats().SlowQueries)
	assert.True(t, hookCalled)
}

func TestStatsDriverSetSlowThreshold(t *testing.T) {
	drv, _ := newMockDriver(t)
	sd := NewStatsDriver(drv)
	assert.Equal(t, 100*time.Millisecond, sd.SlowThreshold())
	sd.SetSlowThreshold(5 * time.Second)
	assert.Equal(t, 5*time.Second, sd.SlowThreshold())
}

func TestQueryStatsReset(t *testing.T) {
	drv, mock := newMockDriver(t)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	sd := NewStatsDriver(drv)
	var n int64
	require.NoError(t, sd.Query(context.Background(), "SELECT 1", []any{}, &n))
	require.Equal(t, int64(1), sd.QueryStats().Stats().TotalQueries)

	sd.QueryStats().Reset()
	assert.Equal(t, int64(0), sd.QueryStats().Stats().TotalQueries)
}

func TestStatsSnapshotAvgQueryDuration(t *testing.T) {
	var s QueryStats
	assert.Equal(t, time.Duration(0), s.Stats().AvgQueryDuration())

	s.TotalQueries.Store(2)
	s.TotalDuration.Store(int64(10 * time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, s.Stats().AvgQueryDuration())
}

func TestStatsDriverTxRecordsStatistics(t *testing.T) {
	drv, mock := newMockDriver(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sd := NewStatsDriver(drv)
	tx, err := sd.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO t", []any{}, nil))
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(1), sd.QueryStats().Stats().TotalExecs)
}

func TestDebugDriverLogsQueriesAndExecs(t *testing.T) {
	drv, mock := newMockDriver(t)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectExec("UPDATE t").WillReturnResult(sqlmock.NewResult(0, 1))

	var lines []string
	dd := NewDebugDriver(drv, DebugWithLog(func(_ context.Context, v ...any) {
		lines = append(lines, v[0].(string))
	}))

	var n int64
	require.NoError(t, dd.Query(context.Background(), "SELECT 1", []any{}, &n))
	var res Result
	require.NoError(t, dd.Exec(context.Background(), "UPDATE t", []any{}, &res))

	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "SELECT 1")
	assert.Contains(t, lines[1], "UPDATE t")
}

func TestDebugDriverTxLogsLifecycle(t *testing.T) {
	drv, mock := newMockDriver(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var lines []string
	dd := NewDebugDriver(drv, DebugWithLog(func(_ context.Context, v ...any) {
		lines = append(lines, v[0].(string))
	}))

	tx, err := dd.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO t", []any{}, nil))
	require.NoError(t, tx.Commit())

	require.Len(t, lines, 3)
	assert.Equal(t, "begin transaction", lines[0])
	assert.Contains(t, lines[1], "tx exec")
	assert.Equal(t, "commit transaction", lines[2])
}
