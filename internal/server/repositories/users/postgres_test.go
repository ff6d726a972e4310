package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passguard/passguard/internal/common"
	"github.com/passguard/passguard/internal/server/models"
)

var pgUniqueErr = pgconn.PgError{Code: uniqueViolation}

func testUser(username string) *models.User {
	return &models.User{
		Username:      username,
		Salt:          []byte("salt"),
		Verifier:      []byte("verifier"),
		RecoveryEmail: "a@example.com",
	}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

var userColumns = []string{"id", "username", "salt", "master_key_verifier",
	"recovery_email", "totp_secret", "totp_enabled", "created_at", "last_login_at"}

func TestCreate_OK(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := NewPostgresRepository(db)

	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", []byte("salt"), []byte("verifier"), "a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", created))

	user, err := repo.Create(context.Background(), testUser("alice"))
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateUsername(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgUniqueErr)

	_, err := repo.Create(context.Background(), testUser("alice"))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGetByUsername_OK(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := NewPostgresRepository(db)

	last := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "alice", []byte("salt"), []byte("verifier"),
				"", "SECRET", true, time.Now(), last))

	user, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.True(t, user.TOTPEnabled)
	require.NotNil(t, user.LastLoginAt)
	assert.Equal(t, last, *user.LastLoginAt)
}

func TestGetByUsername_NotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID_NullLastLogin(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "alice", []byte("salt"), []byte("verifier"),
				"", "", false, time.Now(), nil))

	user, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, user.LastLoginAt)
}

func TestUpdateTOTP(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET totp_secret")).
		WithArgs("u-1", "SECRET", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateTOTP(context.Background(), "u-1", "SECRET", true))
}

func TestUpdateTOTP_UnknownUser(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET totp_secret")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateTOTP(context.Background(), "ghost", "", false)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStampLastLogin(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := NewPostgresRepository(db)

	at := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_login_at")).
		WithArgs("u-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.StampLastLogin(context.Background(), "u-1", at))
}

func TestCreate_DBError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), testUser("alice"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
}
