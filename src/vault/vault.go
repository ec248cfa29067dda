package vault

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raulisai/Gateway-IA/src/config"
)

// Vault keeps one sealed credential per (tenant, provider) in a Redis hash
// named vault:{tenant}. Plaintext never leaves this package except through
// Decrypt.
type Vault struct {
	client *redis.Client
	cipher *Cipher
}

func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

func New(client *redis.Client, cipher *Cipher) *Vault {
	return &Vault{
		client: client,
		cipher: cipher,
	}
}

func tenantKey(tenant string) string {
	return fmt.Sprintf("vault:%s", tenant)
}

func (v *Vault) Put(ctx context.Context, tenant, provider, credential string) error {
	if tenant == "" || provider == "" || credential == "" {
		return fmt.Errorf("tenant, provider and credential are required")
	}
	sealed, err := v.cipher.Seal(credential)
	if err != nil {
		return err
	}
	if err := v.client.HSet(ctx, tenantKey(tenant), provider, sealed).Err(); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Decrypt returns the tenant's credential for provider. A missing entry is
// reported through the bool, not as an error.
func (v *Vault) Decrypt(ctx context.Context, tenant, provider string) (string, bool, error) {
	sealed, err := v.client.HGet(ctx, tenantKey(tenant), provider).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get credential: %w", err)
	}

	plain, err := v.cipher.Open(sealed)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

// Providers lists, sorted, the providers the tenant has credentials for.
func (v *Vault) Providers(ctx context.Context, tenant string) ([]string, error) {
	providers, err := v.client.HKeys(ctx, tenantKey(tenant)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	sort.Strings(providers)
	return providers, nil
}

func (v *Vault) Delete(ctx context.Context, tenant, provider string) error {
	return v.client.HDel(ctx, tenantKey(tenant), provider).Err()
}
