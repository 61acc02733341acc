package analytics

import (
	"testing"
	"time"

	"budget/internal/core"
)

func cents(n int64) core.Money { return core.Money{Cents: n} }

func sampleLedger() core.MonthLedger {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return core.MonthLedger{
		Budget: core.MonthBudget{ID: 1, Period: core.Period{Year: 2025, Month: 3}, Income: cents(300000)},
		Categories: []core.MonthCategory{
			{ID: 10, MonthBudgetID: 1, Name: "House", SortOrder: 10},
			{ID: 11, MonthBudgetID: 1, Name: "Food", SortOrder: 20},
		},
		Recurring: []core.RecurringExpense{
			{ID: 1, MonthBudgetID: 1, CategoryID: 10, Name: "Rent", Amount: cents(120000), Enabled: true, CreatedAt: t0},
			{ID: 2, MonthBudgetID: 1, CategoryID: 10, Name: "Gym", Amount: cents(4000), Enabled: false, CreatedAt: t0},
		},
		Variable: []core.VariableExpense{
			{ID: 1, MonthBudgetID: 1, CategoryID: 11, Description: "Groceries", Amount: cents(25000), CreatedAt: t0.Add(time.Hour)},
			{ID: 2, MonthBudgetID: 1, CategoryID: 10, Description: "Plumber", Amount: cents(25000), CreatedAt: t0.Add(2 * time.Hour)},
			{ID: 3, MonthBudgetID: 1, CategoryID: 11, Description: "Bakery", Amount: cents(1250), CreatedAt: t0.Add(3 * time.Hour)},
		},
	}
}

func TestTotals(t *testing.T) {
	l := sampleLedger()

	if got := TotalRecurring(l); got != cents(120000) {
		t.Errorf("TotalRecurring = %s, want 1200.00 (disabled items excluded)", got)
	}
	if got := TotalVariable(l); got != cents(51250) {
		t.Errorf("TotalVariable = %s, want 512.50", got)
	}
	if got := RemainingBalance(l); got != cents(128750) {
		t.Errorf("RemainingBalance = %s, want 1287.50", got)
	}
}

func TestRemainingBalanceCanBeNegative(t *testing.T) {
	l := sampleLedger()
	l.Budget.Income = cents(1000)
	if got := RemainingBalance(l); got.Cents >= 0 {
		t.Errorf("RemainingBalance = %s, want negative", got)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	got := CategoryBreakdown(sampleLedger())
	want := []struct {
		name      string
		recurring core.Money
		variable  core.Money
	}{
		{"House", cents(120000), cents(25000)},
		{"Food", cents(0), cents(26250)},
	}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Category.Name != w.name || got[i].Recurring != w.recurring || got[i].Variable != w.variable {
			t.Errorf("row %d = {%s %s %s}, want {%s %s %s}", i,
				got[i].Category.Name, got[i].Recurring, got[i].Variable, w.name, w.recurring, w.variable)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleLedger())
	if s.Total != cents(171250) {
		t.Errorf("Total = %s, want 1712.50", s.Total)
	}
	if s.Balance != RemainingBalance(sampleLedger()) {
		t.Errorf("Balance = %s, want RemainingBalance", s.Balance)
	}
	if len(s.Categories) != 2 {
		t.Errorf("Categories = %d, want 2", len(s.Categories))
	}
}

func TestTopSpendingItems(t *testing.T) {
	l := sampleLedger()

	tests := []struct {
		name string
		k    int
		want []string
	}{
		{"all", 10, []string{"Rent", "Plumber", "Groceries", "Bakery"}},
		{"top two", 2, []string{"Rent", "Plumber"}},
		{"zero", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopSpendingItems(l, tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Name != tt.want[i] {
					t.Errorf("item %d = %s, want %s", i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}

func TestTopSpendingItemsTieBrokenByCreation(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	l := core.MonthLedger{
		Categories: []core.MonthCategory{{ID: 1, Name: "Food", SortOrder: 10}},
		Variable: []core.VariableExpense{
			{ID: 7, CategoryID: 1, Description: "later", Amount: cents(500), CreatedAt: t0.Add(time.Minute)},
			{ID: 6, CategoryID: 1, Description: "earlier", Amount: cents(500), CreatedAt: t0},
		},
	}
	got := TopSpendingItems(l, 2)
	if got[0].Name != "earlier" || got[1].Name != "later" {
		t.Errorf("order = [%s %s], want [earlier later]", got[0].Name, got[1].Name)
	}
}

func TestHistoricalTrend(t *testing.T) {
	mk := func(year, month int, variable int64) core.MonthLedger {
		return core.MonthLedger{
			Budget:     core.MonthBudget{Period: core.Period{Year: year, Month: month}},
			Categories: []core.MonthCategory{{ID: 1, Name: "Food"}},
			Variable:   []core.VariableExpense{{CategoryID: 1, Amount: cents(variable)}},
		}
	}
	// Out of order with a gap in February.
	ledgers := []core.MonthLedger{mk(2025, 3, 300), mk(2024, 12, 100), mk(2025, 1, 200), mk(2025, 4, 400)}

	got := HistoricalTrend(ledgers, 3)
	want := []core.Period{{Year: 2025, Month: 1}, {Year: 2025, Month: 3}, {Year: 2025, Month: 4}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, p := range want {
		if got[i].Period != p {
			t.Errorf("point %d period = %s, want %s", i, got[i].Period, p)
		}
	}
	if got[2].Total != cents(400) {
		t.Errorf("last total = %s, want 4.00", got[2].Total)
	}
}
