package router

import (
	"github.com/raulisai/Gateway-IA/src/models"
)

// SubScores are the per-candidate inputs to a strategy, each in [0,100].
type SubScores struct {
	Cost    float64
	Speed   float64
	Quality float64
}

type RoutingStrategy interface {
	Name() models.Strategy
	Score(s SubScores) float64
}

// WeightedStrategy combines sub-scores with fixed weights summing to 1.0.
type WeightedStrategy struct {
	name    models.Strategy
	Cost    float64
	Speed   float64
	Quality float64
}

func (w WeightedStrategy) Name() models.Strategy {
	return w.name
}

func (w WeightedStrategy) Score(s SubScores) float64 {
	return s.Cost*w.Cost + s.Speed*w.Speed + s.Quality*w.Quality
}

// The cost strategy weighs only cost so the cheapest candidate always wins.
var strategies = map[models.Strategy]WeightedStrategy{
	models.StrategyCost:     {name: models.StrategyCost, Cost: 1.0},
	models.StrategySpeed:    {name: models.StrategySpeed, Cost: 0.1, Speed: 0.8, Quality: 0.1},
	models.StrategyQuality:  {name: models.StrategyQuality, Cost: 0.1, Speed: 0.1, Quality: 0.8},
	models.StrategyBalanced: {name: models.StrategyBalanced, Cost: 0.4, Speed: 0.2, Quality: 0.4},
}

// ParseStrategy accepts the public strategy names; empty means balanced.
func ParseStrategy(s string) (models.Strategy, error) {
	if s == "" {
		return models.StrategyBalanced, nil
	}
	st := models.Strategy(s)
	if _, ok := strategies[st]; !ok {
		return "", models.NewValidationError("unknown routing strategy %q (want cost, speed, quality or balanced)", s)
	}
	return st, nil
}

func StrategyFor(s models.Strategy) (RoutingStrategy, error) {
	w, ok := strategies[s]
	if !ok {
		return nil, models.NewValidationError("unknown routing strategy %q", s)
	}
	return w, nil
}
