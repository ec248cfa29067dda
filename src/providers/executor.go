package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/config"
	"github.com/raulisai/Gateway-IA/src/models"
)

type ExecutorOptions struct {
	CallTimeout   time.Duration
	MaxConcurrent int
	Retry         RetryPolicy
	Breaker       *config.BreakerConfig // nil disables breakers
}

// Executor runs one generation against the provider serving a model, with
// the tenant's credential, retries and per-provider protection.
type Executor struct {
	catalog  models.ModelCatalog
	vault    models.CredentialVault
	adapters map[string]models.Provider
	limiters map[string]chan struct{}
	breakers map[string]*gobreaker.CircuitBreaker
	opts     ExecutorOptions
	logger   *zap.Logger

	// OnAttempt, when set, observes every upstream call.
	OnAttempt func(provider string, err error, latency time.Duration)
}

func NewExecutor(catalog models.ModelCatalog, vault models.CredentialVault, adapters []models.Provider, opts ExecutorOptions, logger *zap.Logger) *Executor {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 60 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}

	e := &Executor{
		catalog:  catalog,
		vault:    vault,
		adapters: make(map[string]models.Provider, len(adapters)),
		limiters: make(map[string]chan struct{}, len(adapters)),
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(adapters)),
		opts:     opts,
		logger:   logger,
	}
	for _, a := range adapters {
		name := a.Name()
		e.adapters[name] = a
		if opts.MaxConcurrent > 0 {
			e.limiters[name] = make(chan struct{}, opts.MaxConcurrent)
		}
		if opts.Breaker != nil && opts.Breaker.Enabled {
			e.breakers[name] = newBreaker(name, opts.Breaker, logger)
		}
	}
	return e
}

func newBreaker(name string, cfg *config.BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Only transient upstream failures count against a provider.
		IsSuccessful: func(err error) bool {
			return err == nil || !models.IsKind(err, models.KindUpstreamTransient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// Resolve returns the provider and upstream model id for a model id.
func (e *Executor) Resolve(modelID string) (string, string, error) {
	if def, ok := e.catalog.Get(modelID); ok {
		upstream := def.UpstreamModelID
		if upstream == "" {
			upstream = def.ID
		}
		return def.Provider, upstream, nil
	}
	if provider, ok := ProviderForModel(modelID); ok {
		return provider, modelID, nil
	}
	return "", "", models.NewValidationError("cannot determine provider for model %q", modelID)
}

// Execute runs req against the model named by req.ModelID.
func (e *Executor) Execute(ctx context.Context, tenant string, req *models.GenerationRequest) (*models.GenerationResponse, error) {
	provider, upstream, err := e.Resolve(req.ModelID)
	if err != nil {
		return nil, err
	}
	adapter, ok := e.adapters[provider]
	if !ok {
		return nil, models.NewValidationError("provider %q is not supported", provider)
	}

	credential, ok, err := e.vault.Decrypt(ctx, tenant, provider)
	if err != nil {
		return nil, models.NewInternalError("failed to read credential", err)
	}
	if !ok {
		return nil, models.NewNoCredentialError(provider)
	}

	upReq := req.WithModel(upstream)
	var resp *models.GenerationResponse
	attempts, err := e.opts.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		r, err := e.call(ctx, provider, adapter, upReq, credential)
		if err != nil {
			e.logger.Warn("upstream attempt failed",
				zap.String("provider", provider),
				zap.String("model", req.ModelID),
				zap.Int("attempt", attempt),
				zap.String("kind", string(models.KindOf(err))),
				zap.Error(err))
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("upstream call succeeded",
		zap.String("provider", provider),
		zap.String("model", req.ModelID),
		zap.Int("attempts", attempts))

	resp.Model = req.ModelID
	resp.Provider = provider
	if resp.UpstreamModel == "" {
		resp.UpstreamModel = upstream
	}
	return resp, nil
}

func (e *Executor) acquire(ctx context.Context, provider string) (func(), error) {
	sem, ok := e.limiters[provider]
	if !ok {
		return func() {}, nil
	}
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Executor) call(ctx context.Context, provider string, adapter models.Provider, req *models.GenerationRequest, credential string) (*models.GenerationResponse, error) {
	release, err := e.acquire(ctx, provider)
	if err != nil {
		return nil, err
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	invoke := func() (*models.GenerationResponse, error) {
		resp, err := adapter.Generate(callCtx, req, credential)
		if err != nil {
			return nil, Classify(provider, err)
		}
		return resp, nil
	}

	var resp *models.GenerationResponse
	cb, ok := e.breakers[provider]
	if !ok {
		resp, err = invoke()
	} else {
		var v interface{}
		v, err = cb.Execute(func() (interface{}, error) {
			return invoke()
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = models.NewTransientError(provider, fmt.Sprintf("circuit breaker %s", cb.State()), err)
		}
		if err == nil {
			resp = v.(*models.GenerationResponse)
		}
	}

	if e.OnAttempt != nil {
		e.OnAttempt(provider, err, time.Since(start))
	}
	return resp, err
}
