package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

const selectUser = `SELECT id, name, email, password_hash, created_at FROM users`

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (id, name, email, password_hash)`)).
		WithArgs(sqlmock.AnyArg(), "Ann", "ann@x.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	user, err := repo.Create(context.Background(), "Ann", "ann@x.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, createdAt, user.CreatedAt)
}

func TestUserRepo_Create_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := repo.Create(context.Background(), "Ann", "ann@x.com", "hash")
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)
}

func TestUserRepo_Create_OtherError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), "Ann", "ann@x.com", "hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrDuplicateEmail)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)
	createdAt := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectUser + ` WHERE email = $1`)).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow("3f2a0c55-7c3e-4bb2-8f4e-2d0f4b0a3a11", "Ann", "ann@x.com", "hash", createdAt))
	mock.ExpectQuery(regexp.QuoteMeta(selectUser + ` WHERE email = $1`)).
		WithArgs("bob@x.com").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.GetByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "hash", user.PasswordHash)

	_, err = repo.GetByEmail(context.Background(), "bob@x.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepo_GetByID_InvalidUUIDSkipsQuery(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)

	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTokenRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(zap.NewNop(), db)
	now := time.Now()
	token := &model.Token{Hash: "h", UserID: "u", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tokens`)).
		WithArgs("h", "u", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tokens`)).
		WillReturnError(&pq.Error{Code: "23503"})

	require.NoError(t, repo.Create(context.Background(), token))
	assert.ErrorIs(t, repo.Create(context.Background(), token), model.ErrNotFound)
}

func TestTokenRepo_GetByHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(zap.NewNop(), db)
	now := time.Now().UTC()
	columns := []string{"hash", "user_guid", "issued_at", "expires_at", "revoked_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT hash, user_guid`)).WithArgs("live").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("live", "u", now, now.Add(time.Hour), nil))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT hash, user_guid`)).WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("revoked", "u", now, now.Add(time.Hour), now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT hash, user_guid`)).WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	token, err := repo.GetByHash(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, "u", token.UserID)
	assert.False(t, token.Revoked())

	token, err = repo.GetByHash(context.Background(), "revoked")
	require.NoError(t, err)
	assert.True(t, token.Revoked())

	_, err = repo.GetByHash(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTokenRepo_Revoke(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(zap.NewNop(), db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tokens SET revoked_at = $2 WHERE hash = $1 AND revoked_at IS NULL`)).
		WithArgs("h", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tokens SET revoked_at`)).
		WithArgs("h", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Revoke(context.Background(), "h", time.Now()))
	assert.ErrorIs(t, repo.Revoke(context.Background(), "h", time.Now()), model.ErrNotFound)
}

func TestTokenRepo_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTokenRepository(zap.NewNop(), db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tokens WHERE expires_at <= $1 AND revoked_at IS NULL`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := repo.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
}
