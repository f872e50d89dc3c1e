package auth

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			age INTEGER NOT NULL,
			can_be_contacted BOOLEAN NOT NULL DEFAULT 0,
			can_data_be_shared BOOLEAN NOT NULL DEFAULT 0,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token_hash TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL
		);
	`
	_, err = db.Exec(schema)
	require.NoError(t, err)

	return NewStore(db)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &User{Username: "alice", Age: 30, CanBeContacted: true}
	require.NoError(t, store.CreateUser(ctx, user))
	require.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	t.Run("duplicate username", func(t *testing.T) {
		err := store.CreateUser(ctx, &User{Username: "alice", Age: 25})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("missing username", func(t *testing.T) {
		err := store.CreateUser(ctx, &User{Age: 25})
		assert.ErrorIs(t, err, ErrUsernameRequired)
	})

	t.Run("underage", func(t *testing.T) {
		err := store.CreateUser(ctx, &User{Username: "kid", Age: 14})
		assert.ErrorIs(t, err, ErrUnderage)
	})

	t.Run("minimum age is accepted", func(t *testing.T) {
		err := store.CreateUser(ctx, &User{Username: "teen", Age: MinimumAge})
		assert.NoError(t, err)
	})
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &User{Username: "alice", Age: 30, IsAdmin: true}
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.IsAdmin)

	got, err = store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = store.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = store.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &User{Username: "alice", Age: 30}
	require.NoError(t, store.CreateUser(ctx, user))

	user.Email = "alice@example.com"
	user.Age = 31
	user.CanDataBeShared = true
	require.NoError(t, store.UpdateUser(ctx, user))

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, 31, got.Age)
	assert.True(t, got.CanDataBeShared)

	// The account rules hold on update too.
	user.Age = 10
	assert.ErrorIs(t, store.UpdateUser(ctx, user), ErrUnderage)

	user.Age = 31
	user.ID = 9999
	assert.ErrorIs(t, store.UpdateUser(ctx, user), ErrUserNotFound)
}

func TestDeleteUserCascadesSessions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &User{Username: "alice", Age: 30}
	require.NoError(t, store.CreateUser(ctx, user))

	_, tokenHash, err := GenerateToken()
	require.NoError(t, err)
	session := &Session{UserID: user.ID, TokenHash: tokenHash, ExpiresAt: futureExpiry()}
	require.NoError(t, store.CreateSession(ctx, session))

	require.NoError(t, store.DeleteUser(ctx, user.ID))
	assert.ErrorIs(t, store.DeleteUser(ctx, user.ID), ErrUserNotFound)

	_, _, err = store.GetSessionWithUser(ctx, tokenHash)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &User{Username: "alice", Age: 30}
	require.NoError(t, store.CreateUser(ctx, user))

	_, tokenHash, err := GenerateToken()
	require.NoError(t, err)
	session := &Session{UserID: user.ID, TokenHash: tokenHash, ExpiresAt: futureExpiry()}
	require.NoError(t, store.CreateSession(ctx, session))
	require.NotZero(t, session.ID)

	gotSession, gotUser, err := store.GetSessionWithUser(ctx, tokenHash)
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotSession.UserID)
	assert.Equal(t, "alice", gotUser.Username)

	require.NoError(t, store.DeleteSession(ctx, tokenHash))
	assert.ErrorIs(t, store.DeleteSession(ctx, tokenHash), ErrSessionNotFound)
}

func TestDeleteExpiredSessions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at < CURRENT_TIMESTAMP")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	swept, err := store.DeleteExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), swept)
	assert.NoError(t, mock.ExpectationsWereMet())
}
