package router

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/config"
	"github.com/raulisai/Gateway-IA/src/models"
)

const (
	defaultMaxOutputTokens = 1024
	maxProposed            = 5
)

// Engine filters registry candidates against request requirements and
// ranks them with a routing strategy. Select is a pure computation over the
// current registry snapshot.
type Engine struct {
	catalog          models.ModelCatalog
	defaultMaxOutput int
	logger           *zap.Logger
}

func NewEngine(catalog models.ModelCatalog, cfg *config.RouterConfig, logger *zap.Logger) *Engine {
	maxOut := cfg.DefaultMaxOutputTokens
	if maxOut <= 0 {
		maxOut = defaultMaxOutputTokens
	}
	return &Engine{
		catalog:          catalog,
		defaultMaxOutput: maxOut,
		logger:           logger,
	}
}

type scored struct {
	def   models.ModelDefinition
	sub   SubScores
	score float64
}

// Select picks a model for req. A nil available slice disables the
// credential filter; an empty one means the tenant has no providers.
func (e *Engine) Select(req models.RoutingRequirements, strategy models.Strategy, available []string) (*models.RoutingResult, error) {
	st, err := StrategyFor(strategy)
	if err != nil {
		return nil, err
	}

	maxOutput := e.maxOutput(req)

	candidates := e.catalog.List("")
	candidates = filterActive(candidates)
	if available != nil {
		candidates = filterProviders(candidates, available)
	}
	candidates = filterContextWindow(candidates, req.InputTokens+maxOutput)
	candidates = filterFeatures(candidates, req.RequiredFeatures)
	if req.MaxCost != nil {
		candidates = filterMaxCost(candidates, req.InputTokens, maxOutput, *req.MaxCost)
	}

	if len(candidates) == 0 {
		return nil, models.NewNoViableModelError(fmt.Sprintf(
			"no active model fits %d input + %d output tokens for the available providers",
			req.InputTokens, maxOutput))
	}

	relaxed := false
	if req.ProviderPreference != "" {
		preferred := filterProviders(candidates, []string{req.ProviderPreference})
		if len(preferred) == 0 {
			relaxed = true
			e.logger.Info("provider preference relaxed, no eligible models",
				zap.String("provider", req.ProviderPreference),
				zap.Int("candidates", len(candidates)))
		} else {
			candidates = preferred
		}
	}

	ranked := make([]scored, len(candidates))
	for i, def := range candidates {
		sub := subScores(def)
		ranked[i] = scored{def: def, sub: sub, score: st.Score(sub)}
	}
	// Equal scores fall back to the raw price, so models past CostCeiling
	// still rank cheapest first.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].def.CostPer1K() < ranked[j].def.CostPer1K()
	})

	result := &models.RoutingResult{
		SelectedModel:  ranked[0].def.ID,
		FallbackModels: make([]string, 0, len(ranked)-1),
		Strategy:       st.Name(),
	}
	for _, c := range ranked[1:] {
		result.FallbackModels = append(result.FallbackModels, c.def.ID)
	}
	for _, c := range ranked[:min(maxProposed, len(ranked))] {
		result.ProposedModels = append(result.ProposedModels, models.ScoredModel{
			ModelID:      c.def.ID,
			Provider:     c.def.Provider,
			Score:        c.score,
			CostScore:    c.sub.Cost,
			SpeedScore:   c.sub.Speed,
			QualityScore: c.sub.Quality,
		})
	}

	result.Rationale = fmt.Sprintf("Selected %s with score %.2f out of %d candidates. Strategy: %s",
		ranked[0].def.ID, ranked[0].score, len(ranked), st.Name())
	if relaxed {
		result.Rationale += fmt.Sprintf(". Preference for %s relaxed", req.ProviderPreference)
	}

	return result, nil
}

// Admit checks a pinned model against the active, context-window and
// max-cost filters. Ids the catalog does not know are admitted; the executor
// resolves those by name.
func (e *Engine) Admit(modelID string, req models.RoutingRequirements) error {
	def, ok := e.catalog.Get(modelID)
	if !ok {
		return nil
	}

	maxOutput := e.maxOutput(req)
	one := []models.ModelDefinition{def}
	switch {
	case len(filterActive(one)) == 0:
		return models.NewNoViableModelError(fmt.Sprintf("model %s is not active", modelID))
	case len(filterContextWindow(one, req.InputTokens+maxOutput)) == 0:
		return models.NewNoViableModelError(fmt.Sprintf(
			"model %s has a %d token context window, request needs %d input + %d output",
			modelID, def.ContextWindow, req.InputTokens, maxOutput))
	case req.MaxCost != nil && len(filterMaxCost(one, req.InputTokens, maxOutput, *req.MaxCost)) == 0:
		return models.NewNoViableModelError(fmt.Sprintf(
			"model %s exceeds max_cost %.6f for %d input + %d output tokens",
			modelID, *req.MaxCost, req.InputTokens, maxOutput))
	}
	return nil
}

func (e *Engine) maxOutput(req models.RoutingRequirements) int {
	if req.MaxOutputTokens > 0 {
		return req.MaxOutputTokens
	}
	return e.defaultMaxOutput
}

func filterActive(in []models.ModelDefinition) []models.ModelDefinition {
	out := in[:0:0]
	for _, m := range in {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

func filterProviders(in []models.ModelDefinition, providers []string) []models.ModelDefinition {
	allowed := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		allowed[p] = struct{}{}
	}
	out := in[:0:0]
	for _, m := range in {
		if _, ok := allowed[m.Provider]; ok {
			out = append(out, m)
		}
	}
	return out
}

func filterContextWindow(in []models.ModelDefinition, required int) []models.ModelDefinition {
	out := in[:0:0]
	for _, m := range in {
		if m.ContextWindow >= required {
			out = append(out, m)
		}
	}
	return out
}

// filterFeatures is an extension point: capability metadata is not modeled
// yet, so every candidate passes.
func filterFeatures(in []models.ModelDefinition, _ []string) []models.ModelDefinition {
	return in
}

func filterMaxCost(in []models.ModelDefinition, inputTokens, outputTokens int, maxCost float64) []models.ModelDefinition {
	out := in[:0:0]
	for _, m := range in {
		estimate := float64(inputTokens)/1000*m.CostPer1KInput + float64(outputTokens)/1000*m.CostPer1KOutput
		if estimate <= maxCost {
			out = append(out, m)
		}
	}
	return out
}
