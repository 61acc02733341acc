package services

import (
	"testing"

	"budget/internal/core"
)

// aprilFixture builds January to March 2024 with Rent recurring at 1200 and
// Food variable spend of 300, 400 and 500.
func aprilFixture(t *testing.T, env *testEnv) (jan, feb, mar core.MonthBudget) {
	t.Helper()
	rent := env.template(t, "Rent", "1200")

	jan = env.ensure(t, period(2024, 1))
	env.category(t, jan.ID, "Rent", &rent)
	food := env.category(t, jan.ID, "Food", nil)
	if _, err := env.ledger.SeedRecurring(env.ctx, jan.ID); err != nil {
		t.Fatal(err)
	}
	env.spend(t, food.ID, "groceries", "300")

	feb = env.ensure(t, period(2024, 2))
	env.spend(t, env.categoryByName(t, feb.ID, "Food").ID, "groceries", "400")

	mar = env.ensure(t, period(2024, 3))
	env.spend(t, env.categoryByName(t, mar.ID, "Food").ID, "groceries", "500")
	return jan, feb, mar
}

func TestForecast_April(t *testing.T) {
	env := newTestEnv(t)
	aprilFixture(t, env)

	points, err := env.reports.Forecast(env.ctx, 1, 3)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("points = %d, want 1", len(points))
	}
	p := points[0]
	if p.Period != period(2024, 4) {
		t.Errorf("period = %s, want 2024-04", p.Period)
	}
	if p.Total.Cents != 160000 {
		t.Errorf("total = %s, want 1600.00", p.Total)
	}
	if p.Recurring.Cents != 120000 || p.Variable.Cents != 40000 {
		t.Errorf("recurring/variable = %s/%s, want 1200.00/400.00", p.Recurring, p.Variable)
	}
}

func TestForecast_NonCompounding(t *testing.T) {
	env := newTestEnv(t)
	aprilFixture(t, env)

	points, err := env.reports.Forecast(env.ctx, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("points = %d, want 3", len(points))
	}
	for i, p := range points {
		if p.Period != period(2024, 4+i) {
			t.Errorf("point %d period = %s", i, p.Period)
		}
		if p.Total != points[0].Total {
			t.Errorf("point %d total = %s, want %s", i, p.Total, points[0].Total)
		}
	}
}

func TestForecast_OverrideAndStrategy(t *testing.T) {
	env := newTestEnv(t)
	_, _, mar := aprilFixture(t, env)

	if err := env.ledger.SetForecastOverride(env.ctx, env.categoryByName(t, mar.ID, "Food").ID, dec("250")); err != nil {
		t.Fatal(err)
	}
	points, err := env.reports.Forecast(env.ctx, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if points[0].Total.Cents != 145000 {
		t.Errorf("total with override = %s, want 1450.00", points[0].Total)
	}

	trend := NewReportService(env.repo, LinearTrend{}, DefaultReportOptions())
	if err := env.ledger.ClearForecastOverride(env.ctx, env.categoryByName(t, mar.ID, "Food").ID); err != nil {
		t.Fatal(err)
	}
	points, err = trend.Forecast(env.ctx, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	// 300, 400, 500 continues to 600.
	if points[0].Variable.Cents != 60000 {
		t.Errorf("linear trend variable = %s, want 600.00", points[0].Variable)
	}
}

func TestForecast_NoMonths(t *testing.T) {
	env := newTestEnv(t)
	points, err := env.reports.Forecast(env.ctx, 3, 3)
	if err != nil || points != nil {
		t.Errorf("Forecast on empty store = %v, %v; want nil, nil", points, err)
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	_, _, mar := aprilFixture(t, env)
	if _, err := env.months.SetIncome(env.ctx, mar.ID, dec("1500")); err != nil {
		t.Fatal(err)
	}

	s, err := env.reports.Summary(env.ctx, mar.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s.Total.Cents != 170000 {
		t.Errorf("total = %s, want 1700.00", s.Total)
	}
	if s.Balance.Cents != -20000 {
		t.Errorf("balance = %s, want -200.00", s.Balance)
	}
	if len(s.Categories) != 2 || s.Categories[0].Category.Name != "Rent" {
		t.Errorf("categories = %+v", s.Categories)
	}
}

func TestSummary_LockedLedgerCache(t *testing.T) {
	env := newTestEnv(t)
	_, _, mar := aprilFixture(t, env)
	if _, err := env.months.LockMonth(env.ctx, mar.ID); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := env.reports.Summary(env.ctx, mar.ID); err != nil {
			t.Fatal(err)
		}
	}
	if st := env.reports.Cache().Stats(); st.Hits != 1 || st.Size != 1 {
		t.Errorf("cache stats = %+v, want 1 hit and 1 entry", st)
	}

	if _, err := env.months.UnlockMonth(env.ctx, mar.ID); err != nil {
		t.Fatal(err)
	}
	env.spend(t, env.categoryByName(t, mar.ID, "Food").ID, "party", "100")

	s, err := env.reports.Summary(env.ctx, mar.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s.Variable.Cents != 60000 {
		t.Errorf("variable after unlock = %s, want 600.00", s.Variable)
	}
	if st := env.reports.Cache().Stats(); st.Size != 0 {
		t.Errorf("unlocked month still cached: %+v", st)
	}
}

func TestHistoricalTrend(t *testing.T) {
	env := newTestEnv(t)
	aprilFixture(t, env)

	points, err := env.reports.HistoricalTrend(env.ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Period != period(2024, 2) || points[1].Period != period(2024, 3) {
		t.Errorf("periods = %s, %s; want 2024-02, 2024-03", points[0].Period, points[1].Period)
	}
	if points[0].Total.Cents != 160000 || points[1].Total.Cents != 170000 {
		t.Errorf("totals = %s, %s; want 1600.00, 1700.00", points[0].Total, points[1].Total)
	}

	all, err := env.reports.HistoricalTrend(env.ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("default trend points = %d, want 3", len(all))
	}
}

func TestTopSpendingItems(t *testing.T) {
	env := newTestEnv(t)
	_, _, mar := aprilFixture(t, env)
	env.spend(t, env.categoryByName(t, mar.ID, "Food").ID, "snacks", "5")

	items, err := env.reports.TopSpendingItems(env.ctx, mar.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Name != "Rent" || items[1].Name != "groceries" {
		t.Errorf("items = %s, %s; want Rent, groceries", items[0].Name, items[1].Name)
	}
}
