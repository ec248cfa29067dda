package gateway

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/cache"
	"github.com/raulisai/Gateway-IA/src/classifier"
	"github.com/raulisai/Gateway-IA/src/models"
	"github.com/raulisai/Gateway-IA/src/router"
	"github.com/raulisai/Gateway-IA/src/usage"
)

const ChatEndpoint = "/api/v1/chat/completions"

type Dependencies struct {
	Classifier   *classifier.Classifier
	Router       *router.Engine
	Cache        models.CacheStore
	Executor     models.Executor
	Vault        models.CredentialVault
	Recorder     *usage.Recorder
	Metrics      *Metrics
	MaxFallbacks int // negative means every ranked fallback

	// DefaultStrategy applies when a request names none.
	DefaultStrategy string
}

// Gateway is the single entry point of the pipeline: classify, look up the
// cache, route, execute with fallbacks, cache and record usage.
type Gateway struct {
	Dependencies
	logger *zap.Logger
}

func New(deps Dependencies, logger *zap.Logger) *Gateway {
	return &Gateway{
		Dependencies: deps,
		logger:       logger,
	}
}

// RoutePreview is what the gateway would do with a request, without doing it.
type RoutePreview struct {
	Classification *models.ClassificationResult `json:"classification"`
	Routing        *models.RoutingResult        `json:"routing"`
	Strategy       models.Strategy              `json:"strategy"`
}

func (g *Gateway) Generate(ctx context.Context, tenant string, req *models.GenerationRequest, strategy string) (*models.GenerationResponse, error) {
	start := time.Now()
	if strategy == "" {
		strategy = g.DefaultStrategy
	}

	if err := ValidateRequest(req); err != nil {
		g.Metrics.Requests.WithLabelValues(strategy, outcome(err)).Inc()
		return nil, err
	}
	st, err := router.ParseStrategy(strategy)
	if err != nil {
		g.Metrics.Requests.WithLabelValues(strategy, outcome(err)).Inc()
		return nil, err
	}

	classification := g.Classifier.AnalyzeMessages(req.Messages, req.ModelID)
	params := cache.RequestParams(req, st)

	if cached, ok := g.Cache.Get(tenant, req.Messages, params); ok {
		g.Metrics.CacheLookups.WithLabelValues("hit").Inc()
		return g.serveCached(ctx, tenant, cached, classification, st, start), nil
	}
	g.Metrics.CacheLookups.WithLabelValues("miss").Inc()

	leader := false
	resp, err := g.Cache.Coalesce(cache.Fingerprint(tenant, req.Messages, params), func() (*models.GenerationResponse, error) {
		leader = true
		return g.execute(ctx, tenant, req, st, classification, params, start)
	})
	if err != nil {
		g.Metrics.Requests.WithLabelValues(string(st), outcome(err)).Inc()
		return nil, err
	}
	if !leader {
		// Answered by a concurrent identical request.
		return g.serveCached(ctx, tenant, resp, classification, st, start), nil
	}

	g.Metrics.Requests.WithLabelValues(string(st), "ok").Inc()
	g.Metrics.RequestDuration.WithLabelValues(string(st), "miss").Observe(time.Since(start).Seconds())
	return resp, nil
}

func (g *Gateway) serveCached(ctx context.Context, tenant string, resp *models.GenerationResponse, classification *models.ClassificationResult, st models.Strategy, start time.Time) *models.GenerationResponse {
	info := &models.RoutingInfo{Strategy: st}
	if resp.RoutingInfo != nil {
		info = resp.RoutingInfo
	}
	info.Classification = classification
	info.CacheHit = true
	info.Attempts = 0
	info.Latency = time.Since(start)
	resp.RoutingInfo = info

	g.Recorder.Record(ctx, usage.UsageContext{
		Tenant:         tenant,
		Endpoint:       ChatEndpoint,
		Provider:       resp.Provider,
		Model:          resp.Model,
		Classification: classification,
		Routing:        info,
		Usage:          resp.Usage,
		Latency:        info.Latency,
		CacheHit:       true,
	})

	g.Metrics.Requests.WithLabelValues(string(st), "ok").Inc()
	g.Metrics.RequestDuration.WithLabelValues(string(st), "hit").Observe(info.Latency.Seconds())
	return resp
}

func (g *Gateway) execute(ctx context.Context, tenant string, req *models.GenerationRequest, st models.Strategy, classification *models.ClassificationResult, params map[string]any, start time.Time) (*models.GenerationResponse, error) {
	info := &models.RoutingInfo{Strategy: st, Classification: classification}

	candidates, err := g.plan(ctx, tenant, req, st, classification, info)
	if err != nil {
		g.recordFailure(ctx, tenant, req.ModelID, classification, info, start, err)
		return nil, err
	}

	var lastErr error
	model := candidates[0]
	for i, candidate := range candidates {
		model = candidate
		info.Attempts++

		resp, err := g.Executor.Execute(ctx, tenant, req.WithModel(candidate))
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if err == nil {
			info.Latency = time.Since(start)
			resp.RoutingInfo = info
			g.Cache.Put(tenant, req.Messages, params, resp)

			record := g.Recorder.Record(ctx, usage.UsageContext{
				Tenant:         tenant,
				Endpoint:       ChatEndpoint,
				Provider:       resp.Provider,
				Model:          resp.Model,
				Classification: classification,
				Routing:        info,
				Usage:          resp.Usage,
				Latency:        info.Latency,
			})
			g.Metrics.CostUSD.WithLabelValues(resp.Model).Add(record.Cost)
			return resp, nil
		}

		lastErr = err
		if !models.IsKind(err, models.KindUpstreamTransient) || i == len(candidates)-1 {
			break
		}
		g.Metrics.Fallbacks.Inc()
		g.logger.Warn("falling back after transient failure",
			zap.String("tenant", tenant),
			zap.String("failed_model", candidate),
			zap.String("next_model", candidates[i+1]),
			zap.Error(err))
	}

	g.recordFailure(ctx, tenant, model, classification, info, start, lastErr)
	return nil, lastErr
}

// plan returns the models to try in order. A pinned model bypasses routing.
func (g *Gateway) plan(ctx context.Context, tenant string, req *models.GenerationRequest, st models.Strategy, classification *models.ClassificationResult, info *models.RoutingInfo) ([]string, error) {
	if req.ModelID != "" {
		if err := g.Router.Admit(req.ModelID, requirements(req, classification)); err != nil {
			return nil, err
		}
		info.SelectedModel = req.ModelID
		info.Rationale = "model pinned by request"
		return []string{req.ModelID}, nil
	}

	result, err := g.route(ctx, tenant, req, st, classification)
	if err != nil {
		return nil, err
	}

	fallbacks := result.FallbackModels
	if g.MaxFallbacks >= 0 && len(fallbacks) > g.MaxFallbacks {
		fallbacks = fallbacks[:g.MaxFallbacks]
	}
	info.SelectedModel = result.SelectedModel
	info.FallbackModels = fallbacks
	info.Rationale = result.Rationale

	return append([]string{result.SelectedModel}, fallbacks...), nil
}

func (g *Gateway) route(ctx context.Context, tenant string, req *models.GenerationRequest, st models.Strategy, classification *models.ClassificationResult) (*models.RoutingResult, error) {
	available, err := g.Vault.Providers(ctx, tenant)
	if err != nil {
		return nil, models.NewInternalError("failed to list tenant providers", err)
	}
	if available == nil {
		available = []string{}
	}

	return g.Router.Select(requirements(req, classification), st, available)
}

func requirements(req *models.GenerationRequest, classification *models.ClassificationResult) models.RoutingRequirements {
	return models.RoutingRequirements{
		InputTokens:        classification.Tokens,
		MaxOutputTokens:    req.MaxTokens,
		RequiredFeatures:   classification.Features,
		ProviderPreference: req.ProviderPreference,
		MaxCost:            req.MaxCost,
	}
}

func (g *Gateway) recordFailure(ctx context.Context, tenant, model string, classification *models.ClassificationResult, info *models.RoutingInfo, start time.Time, err error) {
	var provider string
	var gwErr *models.Error
	if errors.As(err, &gwErr) {
		provider = gwErr.Provider
	}

	g.logger.Warn("generation failed",
		zap.String("tenant", tenant),
		zap.String("model", model),
		zap.String("kind", string(models.KindOf(err))),
		zap.Error(err))

	info.Latency = time.Since(start)
	g.Recorder.Record(ctx, usage.UsageContext{
		Tenant:         tenant,
		Endpoint:       ChatEndpoint,
		Provider:       provider,
		Model:          model,
		Classification: classification,
		Routing:        info,
		Latency:        info.Latency,
		Err:            err,
	})
}

// PreviewRoute classifies and routes req without calling any provider.
func (g *Gateway) PreviewRoute(ctx context.Context, tenant string, req *models.GenerationRequest, strategy string) (*RoutePreview, error) {
	if strategy == "" {
		strategy = g.DefaultStrategy
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	st, err := router.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}

	classification := g.Classifier.AnalyzeMessages(req.Messages, req.ModelID)
	preview := &RoutePreview{Classification: classification, Strategy: st}

	if req.ModelID != "" {
		if err := g.Router.Admit(req.ModelID, requirements(req, classification)); err != nil {
			return nil, err
		}
		preview.Routing = &models.RoutingResult{
			SelectedModel:  req.ModelID,
			FallbackModels: []string{},
			Rationale:      "model pinned by request",
			Strategy:       st,
		}
		return preview, nil
	}

	preview.Routing, err = g.route(ctx, tenant, req, st, classification)
	if err != nil {
		return nil, err
	}
	return preview, nil
}

func (g *Gateway) CacheMetrics() models.CacheMetrics {
	return g.Cache.Metrics()
}
