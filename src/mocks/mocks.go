package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/raulisai/Gateway-IA/src/models"
)

// MockVault implements models.CredentialVault
type MockVault struct {
	mock.Mock
}

func (m *MockVault) Decrypt(ctx context.Context, tenant, provider string) (string, bool, error) {
	args := m.Called(ctx, tenant, provider)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockVault) Providers(ctx context.Context, tenant string) ([]string, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockProvider implements models.Provider
type MockProvider struct {
	mock.Mock
	ProviderName string
}

func (m *MockProvider) Name() string {
	return m.ProviderName
}

func (m *MockProvider) Generate(ctx context.Context, req *models.GenerationRequest, credential string) (*models.GenerationResponse, error) {
	args := m.Called(ctx, req, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationResponse), args.Error(1)
}

// MockExecutor implements models.Executor
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, tenant string, req *models.GenerationRequest) (*models.GenerationResponse, error) {
	args := m.Called(ctx, tenant, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationResponse), args.Error(1)
}

// MockUsageStore implements models.UsageStore
type MockUsageStore struct {
	mock.Mock
}

func (m *MockUsageStore) Insert(ctx context.Context, record *models.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUsageStore) Summary(ctx context.Context, tenant string) (*models.UsageSummary, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageSummary), args.Error(1)
}
