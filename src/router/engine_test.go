package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/config"
	"github.com/raulisai/Gateway-IA/src/models"
	"github.com/raulisai/Gateway-IA/src/registry"
)

func testCatalog() []models.ModelDefinition {
	return []models.ModelDefinition{
		{ID: "gpt-4o", Provider: "openai", CostPer1KInput: 0.0025, CostPer1KOutput: 0.01, ContextWindow: 128000, Active: true},
		{ID: "gpt-4o-mini", Provider: "openai", CostPer1KInput: 0.00015, CostPer1KOutput: 0.0006, ContextWindow: 128000, Active: true},
		{ID: "claude-3-5-sonnet", Provider: "anthropic", CostPer1KInput: 0.003, CostPer1KOutput: 0.015, ContextWindow: 200000, Active: true},
		{ID: "gemini-1.5-flash", Provider: "google", CostPer1KInput: 0.000075, CostPer1KOutput: 0.0003, ContextWindow: 1000000, Active: true},
		{ID: "llama-3.1-8b-instant", Provider: "groq", CostPer1KInput: 0.00005, CostPer1KOutput: 0.00008, ContextWindow: 8192, Active: true},
		{ID: "claude-3-opus", Provider: "anthropic", CostPer1KInput: 0.015, CostPer1KOutput: 0.075, ContextWindow: 200000, Active: false},
	}
}

func newTestEngine(defs []models.ModelDefinition) *Engine {
	return NewEngine(registry.NewStatic(defs, zap.NewNop()), &config.RouterConfig{}, zap.NewNop())
}

func TestEngine_CostStrategyPicksCheapest(t *testing.T) {
	engine := newTestEngine(testCatalog())

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 100}, models.StrategyCost, nil)
	require.NoError(t, err)

	assert.Equal(t, "llama-3.1-8b-instant", result.SelectedModel)
	assert.Equal(t, models.StrategyCost, result.Strategy)
}

func TestEngine_CostStrategyMinimumAmongFits(t *testing.T) {
	engine := newTestEngine(testCatalog())

	// 10k input rules out the 8k groq model.
	result, err := engine.Select(models.RoutingRequirements{InputTokens: 10000}, models.StrategyCost, nil)
	require.NoError(t, err)

	selected, ok := registry.NewStatic(testCatalog(), zap.NewNop()).Get(result.SelectedModel)
	require.True(t, ok)
	for _, def := range testCatalog() {
		if !def.Active || def.ContextWindow < 10000+defaultMaxOutputTokens {
			continue
		}
		assert.LessOrEqual(t, selected.CostPer1K(), def.CostPer1K(), "cheaper candidate %s was not selected", def.ID)
	}
	assert.Equal(t, "gemini-1.5-flash", result.SelectedModel)
}

func TestEngine_QualityStrategyPicksFrontier(t *testing.T) {
	engine := newTestEngine(testCatalog())

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 100}, models.StrategyQuality, nil)
	require.NoError(t, err)

	assert.Contains(t, []string{"gpt-4o", "claude-3-5-sonnet"}, result.SelectedModel)
	assert.GreaterOrEqual(t, result.ProposedModels[0].QualityScore, 95.0)
}

func TestEngine_SpeedStrategyPicksFastest(t *testing.T) {
	engine := newTestEngine(testCatalog())

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 100}, models.StrategySpeed, nil)
	require.NoError(t, err)

	assert.Equal(t, "llama-3.1-8b-instant", result.SelectedModel)
}

func TestEngine_FallbacksSortedAndExcludeSelected(t *testing.T) {
	engine := newTestEngine(testCatalog())

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 100}, models.StrategyBalanced, nil)
	require.NoError(t, err)

	assert.NotContains(t, result.FallbackModels, result.SelectedModel)
	assert.Len(t, result.FallbackModels, 4, "inactive model must not appear")
	assert.NotContains(t, result.FallbackModels, "claude-3-opus")

	require.Len(t, result.ProposedModels, 5)
	for i := 1; i < len(result.ProposedModels); i++ {
		assert.GreaterOrEqual(t, result.ProposedModels[i-1].Score, result.ProposedModels[i].Score)
	}
	for i, id := range result.FallbackModels {
		assert.Equal(t, result.ProposedModels[i+1].ModelID, id)
	}
}

func TestEngine_LargeContextScenario(t *testing.T) {
	defs := append(testCatalog(), models.ModelDefinition{
		ID: "gemini-1.5-pro", Provider: "google", CostPer1KInput: 0.00125, CostPer1KOutput: 0.005, ContextWindow: 1000000, Active: true,
	})
	// Only keep the large-context model eligible.
	for i := range defs {
		if defs[i].ContextWindow < 1000000 {
			defs[i].ContextWindow = 128000
		}
	}
	only := []models.ModelDefinition{defs[len(defs)-1]}
	for _, d := range defs[:len(defs)-1] {
		if d.ID != "gemini-1.5-flash" {
			only = append(only, d)
		}
	}
	engine := newTestEngine(only)

	for _, strategy := range []models.Strategy{models.StrategyCost, models.StrategySpeed, models.StrategyQuality, models.StrategyBalanced} {
		result, err := engine.Select(models.RoutingRequirements{InputTokens: 500000}, strategy, nil)
		require.NoError(t, err)
		assert.Equal(t, "gemini-1.5-pro", result.SelectedModel, "strategy %s", strategy)
		assert.Empty(t, result.FallbackModels)
	}
}

func TestEngine_NoViableModel(t *testing.T) {
	engine := newTestEngine(testCatalog())

	_, err := engine.Select(models.RoutingRequirements{InputTokens: 2000000}, models.StrategyBalanced, nil)

	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNoViableModel))
}

func TestEngine_AvailableProviders(t *testing.T) {
	engine := newTestEngine(testCatalog())

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 100}, models.StrategyCost, []string{"anthropic"})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet", result.SelectedModel)
	assert.Empty(t, result.FallbackModels)

	_, err = engine.Select(models.RoutingRequirements{InputTokens: 100}, models.StrategyCost, []string{})
	assert.True(t, models.IsKind(err, models.KindNoViableModel), "empty credential set leaves no candidates")
}

func TestEngine_ProviderPreference(t *testing.T) {
	engine := newTestEngine(testCatalog())

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 100, ProviderPreference: "openai"}, models.StrategyCost, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", result.SelectedModel)
	assert.Equal(t, []string{"gpt-4o"}, result.FallbackModels)
}

func TestEngine_ProviderPreferenceRelaxed(t *testing.T) {
	engine := newTestEngine(testCatalog())

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 100, ProviderPreference: "mistral"}, models.StrategyCost, nil)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-8b-instant", result.SelectedModel)
	assert.Len(t, result.FallbackModels, 4)
	assert.Contains(t, result.Rationale, "relaxed")
}

func TestEngine_MaxCost(t *testing.T) {
	engine := newTestEngine(testCatalog())
	budget := 0.001

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 1000, MaxCost: &budget}, models.StrategyQuality, nil)
	require.NoError(t, err)

	for _, id := range append([]string{result.SelectedModel}, result.FallbackModels...) {
		assert.NotContains(t, []string{"gpt-4o", "claude-3-5-sonnet"}, id)
	}
}

func TestEngine_StableTies(t *testing.T) {
	defs := []models.ModelDefinition{
		{ID: "alpha", Provider: "openai", CostPer1KInput: 0.001, CostPer1KOutput: 0.001, ContextWindow: 4096, Active: true},
		{ID: "beta", Provider: "openai", CostPer1KInput: 0.001, CostPer1KOutput: 0.001, ContextWindow: 4096, Active: true},
		{ID: "gamma", Provider: "openai", CostPer1KInput: 0.001, CostPer1KOutput: 0.001, ContextWindow: 4096, Active: true},
	}
	engine := newTestEngine(defs)

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 10}, models.StrategyBalanced, nil)
	require.NoError(t, err)

	assert.Equal(t, "alpha", result.SelectedModel)
	assert.Equal(t, []string{"beta", "gamma"}, result.FallbackModels)
}

func TestEngine_CostStrategyAboveCeiling(t *testing.T) {
	defs := []models.ModelDefinition{
		{ID: "claude-3-opus", Provider: "anthropic", CostPer1KInput: 0.015, CostPer1KOutput: 0.075, ContextWindow: 200000, Active: true},
		{ID: "gpt-4", Provider: "openai", CostPer1KInput: 0.03, CostPer1KOutput: 0.03, ContextWindow: 8192, Active: true},
		{ID: "gpt-4-32k", Provider: "openai", CostPer1KInput: 0.03, CostPer1KOutput: 0.06, ContextWindow: 32768, Active: true},
	}
	engine := newTestEngine(defs)

	result, err := engine.Select(models.RoutingRequirements{InputTokens: 100}, models.StrategyCost, nil)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", result.SelectedModel)
	assert.Equal(t, []string{"claude-3-opus", "gpt-4-32k"}, result.FallbackModels)
	for _, p := range result.ProposedModels {
		assert.Zero(t, p.CostScore, p.ModelID)
	}
}

func TestEngine_AdmitPinned(t *testing.T) {
	engine := newTestEngine(testCatalog())
	budget := 0.001

	tests := []struct {
		name  string
		model string
		req   models.RoutingRequirements
		ok    bool
	}{
		{"active and fits", "gpt-4o", models.RoutingRequirements{InputTokens: 100}, true},
		{"unknown id passes through", "gpt-5-preview", models.RoutingRequirements{InputTokens: 100}, true},
		{"inactive", "claude-3-opus", models.RoutingRequirements{InputTokens: 100}, false},
		{"context window", "llama-3.1-8b-instant", models.RoutingRequirements{InputTokens: 7500}, false},
		{"explicit output counts", "llama-3.1-8b-instant", models.RoutingRequirements{InputTokens: 7000, MaxOutputTokens: 2000}, false},
		{"max cost", "claude-3-5-sonnet", models.RoutingRequirements{InputTokens: 1000, MaxCost: &budget}, false},
		{"max cost met", "gemini-1.5-flash", models.RoutingRequirements{InputTokens: 1000, MaxCost: &budget}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Admit(tt.model, tt.req)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, models.IsKind(err, models.KindNoViableModel), "got %v", err)
			assert.Contains(t, err.Error(), tt.model)
		})
	}
}

func TestEngine_UnknownStrategy(t *testing.T) {
	engine := newTestEngine(testCatalog())

	_, err := engine.Select(models.RoutingRequirements{InputTokens: 10}, models.Strategy("fastest"), nil)
	assert.True(t, models.IsKind(err, models.KindValidation))
}

func BenchmarkEngine_Select(b *testing.B) {
	engine := newTestEngine(testCatalog())
	req := models.RoutingRequirements{InputTokens: 800}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Select(req, models.StrategyBalanced, nil)
	}
}
