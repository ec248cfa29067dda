package models

import (
	"context"
)

// ModelCatalog is the read side of the model registry.
type ModelCatalog interface {
	Get(id string) (ModelDefinition, bool)
	List(provider string) []ModelDefinition
}

// CredentialVault resolves decrypted provider credentials for a tenant.
type CredentialVault interface {
	Decrypt(ctx context.Context, tenant, provider string) (string, bool, error)
	Providers(ctx context.Context, tenant string) ([]string, error)
}

// Provider is implemented by every upstream adapter
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *GenerationRequest, credential string) (*GenerationResponse, error)
}

// CacheStore defines the interface for response cache operations
type CacheStore interface {
	Get(tenant string, messages []Message, params map[string]any) (*GenerationResponse, bool)
	Put(tenant string, messages []Message, params map[string]any, response *GenerationResponse)
	// Coalesce runs fn once per key among concurrent callers when
	// de-duplication is enabled, otherwise it simply calls fn.
	Coalesce(key string, fn func() (*GenerationResponse, error)) (*GenerationResponse, error)
	Metrics() CacheMetrics
}

// Executor runs a request against the model named by req.ModelID.
type Executor interface {
	Execute(ctx context.Context, tenant string, req *GenerationRequest) (*GenerationResponse, error)
}

// UsageStore persists usage records.
type UsageStore interface {
	Insert(ctx context.Context, record *UsageRecord) error
	Summary(ctx context.Context, tenant string) (*UsageSummary, error)
}
