package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/credential-auth/internal/domain"
)

const tokenKeyPrefix = "auth:token:"

// ErrTokenNotFound reports a token that was never issued, has expired, or
// has been revoked. Callers cannot distinguish the three cases.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore maps opaque bearer tokens to account ids plus issuance
// metadata. Issue returns the raw bearer exactly once; Resolve and Revoke
// take the value the client presents.
type TokenStore interface {
	Issue(ctx context.Context, accountID int64) (string, *domain.AuthToken, error)
	Resolve(ctx context.Context, raw string) (int64, error)
	Revoke(ctx context.Context, raw string) error
}

type tokenRecord struct {
	AccountID int64     `json:"account_id"`
	Digest    string    `json:"digest"`
	IssuedAt  time.Time `json:"issued_at"`
}

// RedisTokenStore keeps token records in Redis with the TTL enforced by the
// store itself. When sliding is enabled every successful Resolve renews the
// TTL.
type RedisTokenStore struct {
	client  *redis.Client
	ttl     time.Duration
	sliding bool
}

// NewRedisTokenStore builds a store over an existing client.
func NewRedisTokenStore(client *redis.Client, ttl time.Duration, sliding bool) *RedisTokenStore {
	return &RedisTokenStore{client: client, ttl: ttl, sliding: sliding}
}

// Issue mints a bearer for the account and persists its record.
func (s *RedisTokenStore) Issue(ctx context.Context, accountID int64) (string, *domain.AuthToken, error) {
	id, raw, digest, err := MintToken()
	if err != nil {
		return "", nil, err
	}

	record := tokenRecord{
		AccountID: accountID,
		Digest:    digest,
		IssuedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", nil, fmt.Errorf("encode token record: %w", err)
	}

	if err := s.client.Set(ctx, tokenKeyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", nil, fmt.Errorf("persist token: %w", err)
	}

	return raw, &domain.AuthToken{ID: id, AccountID: accountID, IssuedAt: record.IssuedAt}, nil
}

// Resolve maps a presented bearer back to its account id.
func (s *RedisTokenStore) Resolve(ctx context.Context, raw string) (int64, error) {
	id, secret, err := SplitToken(raw)
	if err != nil {
		return 0, ErrTokenNotFound
	}

	payload, err := s.client.Get(ctx, tokenKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return 0, ErrTokenNotFound
	} else if err != nil {
		return 0, fmt.Errorf("lookup token: %w", err)
	}

	var record tokenRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return 0, fmt.Errorf("decode token record: %w", err)
	}
	if !DigestEqual(record.Digest, secret) {
		return 0, ErrTokenNotFound
	}

	if s.sliding {
		if err := s.client.Expire(ctx, tokenKeyPrefix+id, s.ttl).Err(); err != nil {
			return 0, fmt.Errorf("refresh token ttl: %w", err)
		}
	}
	return record.AccountID, nil
}

// Revoke deletes the token record. Deleting an unknown token is not an
// error; revocation is idempotent at the service boundary.
func (s *RedisTokenStore) Revoke(ctx context.Context, raw string) error {
	id, _, err := SplitToken(raw)
	if err != nil {
		return nil
	}
	if err := s.client.Del(ctx, tokenKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
