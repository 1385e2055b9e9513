package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bloodlink/internal/cache"
	errs "bloodlink/internal/errors"
)

const (
	sessionTokenKey       = "session_token"
	refreshTokenKeyPrefix = "refresh_token:"
	accessTokenKeyPrefix  = "blacklist:access_token:"
)

// TokenStoreInterface defines the interface for token storage operations.
// Save/Get/Delete/Exists manage the device's opaque session token; the
// refresh and blacklist operations back the JWT session flow.
type TokenStoreInterface interface {
	Save(ctx context.Context, token string) error
	Get(ctx context.Context) (string, error)
	Delete(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)

	StoreRefreshToken(ctx context.Context, tokenID, userID, email string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID, email string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore handles storage and retrieval of tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// Save stores the opaque session token.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	return s.cache.Set(ctx, sessionTokenKey, []byte(token), RefreshTokenExpiry)
}

// Get returns the stored session token or ErrTokenNotFound.
func (s *TokenStore) Get(ctx context.Context) (string, error) {
	data, err := s.cache.Get(ctx, sessionTokenKey)
	if err != nil || data == nil {
		return "", errs.ErrTokenNotFound
	}
	return string(data), nil
}

// Delete removes the stored session token.
func (s *TokenStore) Delete(ctx context.Context) error {
	return s.cache.Delete(ctx, sessionTokenKey)
}

// Exists reports whether a session token is stored.
func (s *TokenStore) Exists(ctx context.Context) (bool, error) {
	data, err := s.cache.Get(ctx, sessionTokenKey)
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID, userID, email string, ttl time.Duration) error {
	data := map[string]interface{}{
		"user_id": userID,
		"email":   email,
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}

	key := refreshTokenKeyPrefix + tokenID
	return s.cache.Set(ctx, key, payload, ttl)
}

// GetRefreshToken retrieves refresh token data from Redis.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (userID, email string, err error) {
	key := refreshTokenKeyPrefix + tokenID
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return "", "", fmt.Errorf("refresh token not found")
	}

	var tokenData map[string]interface{}
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return "", "", fmt.Errorf("unmarshal token data: %w", err)
	}

	userID, ok := tokenData["user_id"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid user_id in token data")
	}

	email, ok = tokenData["email"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid email in token data")
	}

	return userID, email, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	key := refreshTokenKeyPrefix + tokenID
	return s.cache.Delete(ctx, key)
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	key := accessTokenKeyPrefix + tokenID
	// Store a simple marker
	return s.cache.Set(ctx, key, []byte("1"), ttl)
}

// IsAccessTokenBlacklisted checks if an access token is blacklisted.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	key := accessTokenKeyPrefix + tokenID
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return false, nil // Not blacklisted if error (fail safe)
	}
	return data != nil, nil
}
