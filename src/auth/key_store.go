package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gw_"

var ErrUnknownKey = errors.New("unknown or revoked api key")

type KeyStore struct {
	client *redis.Client
}

func NewKeyStore(client *redis.Client) *KeyStore {
	return &KeyStore{
		client: client,
	}
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func recordKey(hash string) string {
	return fmt.Sprintf("gateway_key:%s", hash)
}

func tenantKeysKey(tenant string) string {
	return fmt.Sprintf("tenant_keys:%s", tenant)
}

// Issue creates a new key for tenant. The plaintext key is returned once.
func (s *KeyStore) Issue(ctx context.Context, tenant, name string) (string, *APIKey, error) {
	if tenant == "" {
		return "", nil, fmt.Errorf("tenant is required")
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("failed to generate key: %w", err)
	}
	key := keyPrefix + hex.EncodeToString(raw)

	record := &APIKey{
		Tenant:    tenant,
		Name:      name,
		Prefix:    key[:len(keyPrefix)+6],
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	hash := hashKey(key)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, recordKey(hash), data, 0)
	pipe.SAdd(ctx, tenantKeysKey(tenant), hash)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", nil, fmt.Errorf("failed to save key: %w", err)
	}

	return key, record, nil
}

func (s *KeyStore) Resolve(ctx context.Context, key string) (*APIKey, error) {
	data, err := s.client.Get(ctx, recordKey(hashKey(key))).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUnknownKey
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var record APIKey
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key: %w", err)
	}

	return &record, nil
}

func (s *KeyStore) Revoke(ctx context.Context, key string) error {
	record, err := s.Resolve(ctx, key)
	if err != nil {
		return err
	}

	hash := hashKey(key)
	pipe := s.client.Pipeline()
	pipe.Del(ctx, recordKey(hash))
	pipe.SRem(ctx, tenantKeysKey(record.Tenant), hash)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}
	return nil
}
