package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"disc3d-batch/feature/pipeline"
	"disc3d-batch/feature/scan"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func outcome(name string, status pipeline.Stage, finished time.Time) pipeline.Outcome {
	o := pipeline.Outcome{
		Job:         scan.Job{Name: name, Dataset: name},
		Status:      status,
		LastStage:   pipeline.Done,
		ResumedFrom: pipeline.Created,
		StartedAt:   finished.Add(-time.Minute),
		Duration:    time.Minute,
	}
	if status == pipeline.Failed {
		o.LastStage = pipeline.Aligned
		o.FailedStage = pipeline.QCSnapshotted
		o.ErrorKind = pipeline.KindStageFailure
		o.Err = errors.New("boom")
	}
	return o
}

func TestLedger_RecordAndHistory(t *testing.T) {
	db := setupTestDB(t)
	l := New(db, "run-1", 1, "seeded", zap.NewNop())
	require.NoError(t, l.Migrate())
	ctx := context.Background()
	at := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.ScanFinished(ctx, outcome("a__DISC3D", pipeline.Failed, at)))
	require.NoError(t, l.ScanFinished(ctx, outcome("a__DISC3D", pipeline.Done, at.Add(time.Hour))))
	require.NoError(t, l.ScanFinished(ctx, outcome("b__DISC3D", pipeline.Done, at)))

	runs, err := History(ctx, db, "a__DISC3D", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Done", runs[0].Status)
	assert.Equal(t, "Failed", runs[1].Status)
	assert.Equal(t, "QCSnapshotted", runs[1].FailedStage)
	assert.Equal(t, "boom", runs[1].Error)
	assert.Equal(t, "run-1", runs[1].RunID)
	assert.Equal(t, 1, runs[1].Device)
	assert.Equal(t, int64(60000), runs[1].DurationMs)
	assert.Empty(t, runs[0].ResumedFrom)
	assert.Len(t, runs[0].ID, 36)

	runs, err = History(ctx, db, "a__DISC3D", 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestLedger_InsertMySQL(t *testing.T) {
	db, mock := setupMockDB(t)
	l := New(db, "run-2", 0, "seeded", zap.NewNop())
	l.newID = func() string { return "00000000-0000-0000-0000-000000000001" }

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `disc3d_scan_runs`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := l.ScanFinished(context.Background(), outcome("a__DISC3D", pipeline.Done, time.Now()))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_InsertFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	l := New(db, "run-3", 0, "seeded", zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `disc3d_scan_runs`").WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	err := l.ScanFinished(context.Background(), outcome("a__DISC3D", pipeline.Done, time.Now()))

	assert.ErrorContains(t, err, "a__DISC3D")
	assert.NoError(t, mock.ExpectationsWereMet())
}
