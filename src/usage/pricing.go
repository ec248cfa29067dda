package usage

import (
	"math"
	"strings"

	"github.com/raulisai/Gateway-IA/src/models"
)

// Rate is a USD price per 1k tokens.
type Rate struct {
	Input  float64
	Output float64
}

type PriceEntry struct {
	Pattern string
	Rate    Rate
}

// PricingTable is matched by substring in order, so narrower names come
// before the families that contain them.
var PricingTable = []PriceEntry{
	{"gpt-4o-mini", Rate{0.00015, 0.0006}},
	{"gpt-4o", Rate{0.0025, 0.01}},
	{"gpt-4", Rate{0.03, 0.06}},
	{"gpt-3.5-turbo", Rate{0.0015, 0.002}},
	{"claude-3-opus", Rate{0.015, 0.075}},
	{"claude-3-5-sonnet", Rate{0.003, 0.015}},
	{"claude-3-sonnet", Rate{0.003, 0.015}},
	{"claude-3-haiku", Rate{0.00025, 0.00125}},
	{"gemini-1.5-flash", Rate{0.000075, 0.0003}},
	{"gemini-1.5-pro", Rate{0.00125, 0.005}},
	{"llama", Rate{0.0001, 0.0001}},
	{"deepseek", Rate{0.00014, 0.00028}},
}

var DefaultRate = Rate{Input: 0.001, Output: 0.001}

func RateFor(model string) Rate {
	m := strings.ToLower(model)
	for _, e := range PricingTable {
		if strings.Contains(m, e.Pattern) {
			return e.Rate
		}
	}
	return DefaultRate
}

// Pricer prices usage from the registry, falling back to PricingTable for
// models the registry does not know.
type Pricer struct {
	catalog models.ModelCatalog
}

func NewPricer(catalog models.ModelCatalog) *Pricer {
	return &Pricer{catalog: catalog}
}

func (p *Pricer) Rate(model string) Rate {
	if p.catalog != nil {
		if def, ok := p.catalog.Get(model); ok {
			return Rate{Input: def.CostPer1KInput, Output: def.CostPer1KOutput}
		}
	}
	return RateFor(model)
}

func (p *Pricer) Cost(model string, u models.Usage) float64 {
	rate := p.Rate(model)
	cost := float64(u.InputTokens)/1000*rate.Input + float64(u.OutputTokens)/1000*rate.Output
	return roundCost(cost)
}

func roundCost(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
