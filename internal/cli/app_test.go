package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SQLiteDBPath:       filepath.Join(t.TempDir(), "budget.db"),
		ForecastHorizon:    3,
		ForecastWindow:     3,
		ForecastStrategy:   "trailing_average",
		TrendMonths:        6,
		LedgerCacheSize:    8,
		LedgerCacheTTL:     time.Minute,
		CarryForwardIncome: true,
		CloserInterval:     time.Hour,
		LogLevel:           "info",
	}
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t)
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	app, err := NewApp(cfg, repo, nil)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	ctx := context.Background()
	m, err := app.Months.EnsureMonth(ctx, core.Period{Year: 2024, Month: 3})
	if err != nil {
		t.Fatalf("EnsureMonth: %v", err)
	}
	s, err := app.Reports.Summary(ctx, m.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Period != m.Period || !s.Total.IsZero() {
		t.Errorf("Summary = %+v, want empty 2024-03", s)
	}
}

func TestNewApp_UnknownStrategy(t *testing.T) {
	cfg := testConfig(t)
	cfg.ForecastStrategy = "median"

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	if _, err := NewApp(cfg, repo, nil); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestSetupLogger_UnknownLevelFallsBack(t *testing.T) {
	logger := SetupLogger(io.Discard, "loud", "test")
	if logger.Component() != "test" {
		t.Errorf("Component() = %q, want test", logger.Component())
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info level should be enabled")
	}
}
