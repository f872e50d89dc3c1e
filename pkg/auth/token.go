package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// TokenPrefix identifies TaskDesk session tokens
	TokenPrefix = "td_"
	// TokenLength is the number of random bytes in a token (256 bits)
	TokenLength = 32

	// validationCacheSize bounds the LRU of recently validated sessions
	validationCacheSize = 4096
	// validationCacheTTL keeps cached validations short-lived so revocation
	// on another instance converges quickly
	validationCacheTTL = time.Minute
)

// GenerateToken creates a new session token and its storage hash.
// Format: td_<base64url(32 random bytes)>.
func GenerateToken() (token, tokenHash string, err error) {
	randomBytes := make([]byte, TokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	token = TokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes)
	return token, HashToken(token), nil
}

// HashToken computes the SHA-256 hash of a token for storage and lookup
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateTokenFormat checks that a token is shaped like one of ours before
// any database work happens
func ValidateTokenFormat(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return fmt.Errorf("token must start with %q", TokenPrefix)
	}

	encodedPart := strings.TrimPrefix(token, TokenPrefix)
	if len(encodedPart) == 0 {
		return fmt.Errorf("token is too short")
	}
	if _, err := base64.RawURLEncoding.DecodeString(encodedPart); err != nil {
		return fmt.Errorf("invalid token encoding: %w", err)
	}

	return nil
}

type cachedSession struct {
	user    *User
	session *Session
}

// TokenManager issues and validates session tokens
type TokenManager struct {
	store      *Store
	sessionTTL time.Duration
	cache      *expirable.LRU[string, cachedSession]
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(store *Store, sessionTTL time.Duration) *TokenManager {
	return &TokenManager{
		store:      store,
		sessionTTL: sessionTTL,
		cache:      expirable.NewLRU[string, cachedSession](validationCacheSize, nil, validationCacheTTL),
	}
}

// Login checks credentials and opens a session, returning the bearer token.
// The token is only ever returned here; afterwards it exists as a hash.
func (tm *TokenManager) Login(ctx context.Context, username, password string) (string, *User, error) {
	user, err := tm.store.GetUserByUsername(ctx, username)
	if err == ErrUserNotFound {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, tokenHash, err := GenerateToken()
	if err != nil {
		return "", nil, err
	}

	session := &Session{
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(tm.sessionTTL),
	}
	if err := tm.store.CreateSession(ctx, session); err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Validate resolves a bearer token to its user. Results are cached briefly;
// expiry is still re-checked on every hit.
func (tm *TokenManager) Validate(ctx context.Context, token string) (*User, error) {
	if err := ValidateTokenFormat(token); err != nil {
		return nil, ErrSessionNotFound
	}

	tokenHash := HashToken(token)
	if entry, ok := tm.cache.Get(tokenHash); ok {
		if entry.session.Expired() {
			tm.cache.Remove(tokenHash)
			return nil, ErrSessionExpired
		}
		return entry.user, nil
	}

	session, user, err := tm.store.GetSessionWithUser(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if session.Expired() {
		return nil, ErrSessionExpired
	}

	tm.cache.Add(tokenHash, cachedSession{user: user, session: session})
	return user, nil
}

// Revoke ends the session behind a token
func (tm *TokenManager) Revoke(ctx context.Context, token string) error {
	tokenHash := HashToken(token)
	tm.cache.Remove(tokenHash)
	return tm.store.DeleteSession(ctx, tokenHash)
}

// PurgeUser drops every cached validation belonging to a user. Account
// deletion removes the user's sessions without going through Revoke; without
// the purge a warm token would keep authenticating the deleted account until
// the cache TTL lapses.
func (tm *TokenManager) PurgeUser(userID int64) {
	for _, tokenHash := range tm.cache.Keys() {
		if entry, ok := tm.cache.Peek(tokenHash); ok && entry.user.ID == userID {
			tm.cache.Remove(tokenHash)
		}
	}
}

// SweepExpired deletes expired sessions; wired to a periodic job by the
// server entrypoint
func (tm *TokenManager) SweepExpired(ctx context.Context) (int64, error) {
	return tm.store.DeleteExpiredSessions(ctx)
}
