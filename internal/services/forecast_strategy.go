package services

import (
	"fmt"
	"sort"
	"sync"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// ForecastStrategy projects an amount from history, oldest first. History
// holds one value per existing month in the window.
type ForecastStrategy interface {
	Compute(history []core.Money) core.Money
}

const (
	StrategyTrailingAverage = "trailing_average"
	StrategyLinearTrend     = "linear_trend"
)

// TrailingAverage is the arithmetic mean of the history, rounded half-up to
// cents. Empty history projects zero.
type TrailingAverage struct{}

func (TrailingAverage) Compute(history []core.Money) core.Money {
	if len(history) == 0 {
		return core.Money{}
	}
	sum := decimal.Zero
	for _, m := range history {
		sum = sum.Add(m.Decimal())
	}
	return core.MoneyFromDecimal(sum.Div(decimal.NewFromInt(int64(len(history)))))
}

// LinearTrend fits a least-squares line through the history and projects
// the next point. It never projects below zero.
type LinearTrend struct{}

func (LinearTrend) Compute(history []core.Money) core.Money {
	n := len(history)
	switch n {
	case 0:
		return core.Money{}
	case 1:
		return history[0]
	}

	var sumX, sumY, sumXY, sumXX decimal.Decimal
	for i, m := range history {
		x := decimal.NewFromInt(int64(i))
		y := m.Decimal()
		sumX = sumX.Add(x)
		sumY = sumY.Add(y)
		sumXY = sumXY.Add(x.Mul(y))
		sumXX = sumXX.Add(x.Mul(x))
	}

	dn := decimal.NewFromInt(int64(n))
	slope := dn.Mul(sumXY).Sub(sumX.Mul(sumY)).Div(dn.Mul(sumXX).Sub(sumX.Mul(sumX)))
	intercept := sumY.Sub(slope.Mul(sumX)).Div(dn)
	next := intercept.Add(slope.Mul(dn))
	if next.IsNegative() {
		return core.Money{}
	}
	return core.MoneyFromDecimal(next)
}

var (
	strategiesMu       sync.RWMutex
	forecastStrategies = map[string]ForecastStrategy{
		StrategyTrailingAverage: TrailingAverage{},
		StrategyLinearTrend:     LinearTrend{},
	}
)

// GetForecastStrategy returns the strategy registered under name.
func GetForecastStrategy(name string) (ForecastStrategy, error) {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()

	s, ok := forecastStrategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown forecast strategy: %s", name)
	}
	return s, nil
}

// RegisterForecastStrategy adds or replaces a named strategy.
func RegisterForecastStrategy(name string, s ForecastStrategy) {
	strategiesMu.Lock()
	defer strategiesMu.Unlock()
	forecastStrategies[name] = s
}

// ForecastStrategyNames lists registered strategies, sorted.
func ForecastStrategyNames() []string {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()

	names := make([]string, 0, len(forecastStrategies))
	for name := range forecastStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
