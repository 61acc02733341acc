package memory

import (
	"context"
	"testing"

	"budget/internal/analytics"
	"budget/internal/core"
)

func TestStoreWriteAndIndex(t *testing.T) {
	s := New()
	ctx := context.Background()

	mar := core.Period{Year: 2024, Month: 3}
	jan := core.Period{Year: 2024, Month: 1}

	for _, sum := range []analytics.Summary{
		{Period: mar, Total: core.Money{Cents: 100}},
		{Period: jan, Total: core.Money{Cents: 200}},
		{Period: mar, Total: core.Money{Cents: 300}},
	} {
		if _, err := s.WriteMonthSummary(ctx, sum); err != nil {
			t.Fatalf("WriteMonthSummary: %v", err)
		}
	}

	periods, err := s.ExportedPeriods(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(periods) != 2 || periods[0] != jan || periods[1] != mar {
		t.Errorf("periods = %v, want [2024-01 2024-03]", periods)
	}

	got, ok := s.Summary(mar)
	if !ok || got.Total.Cents != 300 {
		t.Errorf("March summary = %+v, %v; want the latest write", got, ok)
	}
	if s.Writes() != 3 {
		t.Errorf("writes = %d, want 3", s.Writes())
	}
}

func TestStoreRejectsInvalidPeriod(t *testing.T) {
	s := New()
	if _, err := s.WriteMonthSummary(context.Background(), analytics.Summary{Period: core.Period{Year: 2024, Month: 13}}); err == nil {
		t.Fatal("expected error for invalid period")
	}
}
