package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func futureExpiry() time.Time {
	return time.Now().Add(time.Hour)
}

func TestGenerateToken(t *testing.T) {
	token, tokenHash, err := GenerateToken()
	require.NoError(t, err)

	assert.True(t, len(token) > len(TokenPrefix))
	assert.NoError(t, ValidateTokenFormat(token))
	assert.Equal(t, HashToken(token), tokenHash)

	// Hashing is deterministic, generation is not.
	other, _, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestValidateTokenFormat(t *testing.T) {
	tests := []struct {
		name  string
		token string
		valid bool
	}{
		{"well formed", "td_3q2-7w3q2-7w3q2-7w3q2-7w3q2-7w3q2-7w3q2-7w", true},
		{"missing prefix", "3q2-7w3q2-7w3q2-7w3q2-7w", false},
		{"wrong prefix", "tk_3q2-7w3q2-7w3q2-7w3q2-7w", false},
		{"prefix only", "td_", false},
		{"bad encoding", "td_%%%%", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTokenFormat(tt.token)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func registerUser(t *testing.T, store *Store, username, password string) *User {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)
	user := &User{Username: username, Age: 30, PasswordHash: hash}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestTokenManagerLogin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tm := NewTokenManager(store, time.Hour)
	registerUser(t, store, "alice", "s3cret")

	t.Run("success", func(t *testing.T) {
		token, user, err := tm.Login(ctx, "alice", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.NoError(t, ValidateTokenFormat(token))

		got, err := tm.Validate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := tm.Login(ctx, "alice", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		// The same error as a wrong password, so login does not reveal which
		// usernames exist.
		_, _, err := tm.Login(ctx, "mallory", "s3cret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestTokenManagerValidate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tm := NewTokenManager(store, time.Hour)
	registerUser(t, store, "alice", "s3cret")

	token, _, err := tm.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	t.Run("malformed token", func(t *testing.T) {
		_, err := tm.Validate(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		fresh, _, err := GenerateToken()
		require.NoError(t, err)
		_, err = tm.Validate(ctx, fresh)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("revoked token fails even when cached", func(t *testing.T) {
		// Validate once to warm the cache, then revoke.
		_, err := tm.Validate(ctx, token)
		require.NoError(t, err)

		require.NoError(t, tm.Revoke(ctx, token))
		_, err = tm.Validate(ctx, token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("revoking twice", func(t *testing.T) {
		assert.ErrorIs(t, tm.Revoke(ctx, token), ErrSessionNotFound)
	})
}

func TestTokenManagerPurgeUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tm := NewTokenManager(store, time.Hour)
	alice := registerUser(t, store, "alice", "s3cret")
	registerUser(t, store, "bob", "s3cret")

	aliceToken, _, err := tm.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	bobToken, _, err := tm.Login(ctx, "bob", "s3cret")
	require.NoError(t, err)

	// Warm the cache for both, then delete alice's account. The cascade
	// removes her session rows but not the cache entry.
	_, err = tm.Validate(ctx, aliceToken)
	require.NoError(t, err)
	_, err = tm.Validate(ctx, bobToken)
	require.NoError(t, err)
	require.NoError(t, store.DeleteUser(ctx, alice.ID))

	tm.PurgeUser(alice.ID)

	_, err = tm.Validate(ctx, aliceToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Other users' cached validations survive the purge.
	got, err := tm.Validate(ctx, bobToken)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
}

func TestTokenManagerExpiredSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	registerUser(t, store, "alice", "s3cret")

	// A negative TTL produces sessions that are already expired.
	tm := NewTokenManager(store, -time.Minute)
	token, _, err := tm.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	_, err = tm.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
