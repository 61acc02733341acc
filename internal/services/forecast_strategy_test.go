package services

import (
	"testing"

	"budget/internal/core"
)

func cents(values ...int64) []core.Money {
	out := make([]core.Money, len(values))
	for i, v := range values {
		out[i] = core.Money{Cents: v}
	}
	return out
}

func TestTrailingAverage(t *testing.T) {
	tests := []struct {
		name    string
		history []core.Money
		want    int64
	}{
		{"empty", nil, 0},
		{"single", cents(1234), 1234},
		{"exact", cents(30000, 40000, 50000), 40000},
		{"rounds half up", cents(1, 2), 2},
		{"rounds down", cents(1, 1, 2), 1},
		{"zeros count", cents(0, 0, 3000), 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (TrailingAverage{}).Compute(tt.history); got.Cents != tt.want {
				t.Errorf("Compute() = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestLinearTrend(t *testing.T) {
	tests := []struct {
		name    string
		history []core.Money
		want    int64
	}{
		{"empty", nil, 0},
		{"single", cents(500), 500},
		{"rising", cents(30000, 40000, 50000), 60000},
		{"flat", cents(700, 700), 700},
		{"falling floors at zero", cents(50000, 10000), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (LinearTrend{}).Compute(tt.history); got.Cents != tt.want {
				t.Errorf("Compute() = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

type fixedStrategy struct{ amount core.Money }

func (f fixedStrategy) Compute([]core.Money) core.Money { return f.amount }

func TestForecastStrategyRegistry(t *testing.T) {
	for _, name := range []string{StrategyTrailingAverage, StrategyLinearTrend} {
		if _, err := GetForecastStrategy(name); err != nil {
			t.Errorf("GetForecastStrategy(%q): %v", name, err)
		}
	}

	if _, err := GetForecastStrategy("median"); err == nil {
		t.Error("expected error for unknown strategy")
	}

	RegisterForecastStrategy("fixed_test", fixedStrategy{amount: core.Money{Cents: 42}})
	s, err := GetForecastStrategy("fixed_test")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Compute(nil); got.Cents != 42 {
		t.Errorf("registered strategy computed %d, want 42", got.Cents)
	}

	names := ForecastStrategyNames()
	found := false
	for i, n := range names {
		if i > 0 && names[i-1] > n {
			t.Errorf("names not sorted: %v", names)
		}
		found = found || n == "fixed_test"
	}
	if !found {
		t.Errorf("names %v missing fixed_test", names)
	}
}
