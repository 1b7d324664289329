package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/server/cache"
	"github.com/dmaltsev/tasklist/internal/server/repositories/repomanager"
	"github.com/dmaltsev/tasklist/internal/server/verification"
	"github.com/stretchr/testify/require"
)

// These tests run against the real repository manager and a mocked
// database to pin down the transaction boundaries of the multi-write flows.

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func ownedTodoRows(todoID string, userNo int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"todo_id", "user_no", "title", "content", "color", "sequence",
		"due_at", "completed_at", "created_at", "updated_at",
	}).AddRow(todoID, userNo, "laundry", "", "", 1, nil, nil, time.Now(), nil)
}

const (
	findTodoQuery       = `(?s)^\s*SELECT\s+todo_id,.*\s+FROM\s+todos\s+WHERE\s+todo_id\s*=\s*\$1\s*$`
	updateSequenceQuery = `(?s)^\s*UPDATE\s+todos\s+SET\s+sequence\s*=\s*\$1,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+todo_id\s*=\s*\$2\s*$`
	setCompletedQuery   = `(?s)^\s*UPDATE\s+todos\s+SET\s+completed_at\s*=\s*\$1,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+todo_id\s*=\s*\$2\s*$`
	findByEmailQuery    = `(?s)^\s*SELECT\s+user_no,\s*email,\s*password,\s*user_name,\s*role,\s*created_at,\s*last_login_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+AND\s+deleted_at\s+IS\s+NULL\s*$`
	insertUserQuery     = `(?s)^\s*INSERT\s+INTO\s+users\s*\(email,\s*password,\s*user_name,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+user_no,\s*created_at\s*$`
)

func TestPatch_TransactionCommit(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTodoService(db, repomanager.NewPostgresRepositoryManager(), discardLogger())
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	mock.ExpectQuery(findTodoQuery).WithArgs("td-1").WillReturnRows(ownedTodoRows("td-1", 7))
	mock.ExpectBegin()
	mock.ExpectExec(updateSequenceQuery).WithArgs(3, "td-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setCompletedQuery).WithArgs(fixed, "td-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	seq := 3
	done := true
	err := svc.Patch(context.Background(), 7, "td-1", &PatchTodoInput{Sequence: &seq, Completed: &done})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatch_TransactionRollback(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTodoService(db, repomanager.NewPostgresRepositoryManager(), discardLogger())

	mock.ExpectQuery(findTodoQuery).WithArgs("td-1").WillReturnRows(ownedTodoRows("td-1", 7))
	mock.ExpectBegin()
	mock.ExpectExec(updateSequenceQuery).WithArgs(3, "td-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setCompletedQuery).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	seq := 3
	done := true
	err := svc.Patch(context.Background(), 7, "td-1", &PatchTodoInput{Sequence: &seq, Completed: &done})
	require.ErrorIs(t, err, common.ErrInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newTxAuthService(t *testing.T, db *sql.DB) *AuthService {
	t.Helper()
	cfg := testConfig()
	mem := cache.NewMemoryCache()
	codes := verification.NewStore(mem, cfg.SignupCodeTTL, cfg.ResetPasswordCodeTTL)
	require.NoError(t, codes.Save(context.Background(), verification.PurposeSignup, "new@example.com", "123456"))
	return NewAuthService(db, repomanager.NewPostgresRepositoryManager(), codes, &fakeMailer{}, discardLogger(), cfg)
}

func TestSignup_TransactionCommit(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newTxAuthService(t, db)

	mock.ExpectBegin()
	mock.ExpectQuery(findByEmailQuery).WithArgs("new@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertUserQuery).
		WithArgs("new@example.com", sqlmock.AnyArg(), "bob", "USER").
		WillReturnRows(sqlmock.NewRows([]string{"user_no", "created_at"}).AddRow(int64(1), time.Now()))
	mock.ExpectCommit()

	err := svc.Signup(context.Background(), "new@example.com", "Passw0rd!", "bob", "123456")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignup_TransactionRollback(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newTxAuthService(t, db)

	mock.ExpectBegin()
	mock.ExpectQuery(findByEmailQuery).WithArgs("new@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertUserQuery).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := svc.Signup(context.Background(), "new@example.com", "Passw0rd!", "bob", "123456")
	require.ErrorIs(t, err, common.ErrInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}
