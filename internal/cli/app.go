package cli

import (
	"fmt"

	"budget/internal/config"
	"budget/internal/services"
	"budget/internal/storage"
)

// App bundles the services every binary builds from the same config.
type App struct {
	Repo     *storage.SQLiteRepository
	Months   *services.MonthService
	Ledger   *services.LedgerService
	Catalog  *services.CatalogService
	Reports  *services.ReportService
	Importer *services.Importer
}

// NewApp wires the services over repo. events may be nil.
func NewApp(cfg *config.Config, repo *storage.SQLiteRepository, events services.EventPublisher) (*App, error) {
	strategy, err := services.GetForecastStrategy(cfg.ForecastStrategy)
	if err != nil {
		return nil, fmt.Errorf("forecast strategy: %w", err)
	}

	months := services.NewMonthService(repo, events, services.MonthOptions{
		CarryForwardIncome: cfg.CarryForwardIncome,
	})
	ledger := services.NewLedgerService(repo)
	catalog := services.NewCatalogService(repo)
	reports := services.NewReportService(repo, strategy, services.ReportOptions{
		TrendMonths:     cfg.TrendMonths,
		ForecastHorizon: cfg.ForecastHorizon,
		ForecastWindow:  cfg.ForecastWindow,
		CacheSize:       cfg.LedgerCacheSize,
		CacheTTL:        cfg.LedgerCacheTTL,
	})

	return &App{
		Repo:     repo,
		Months:   months,
		Ledger:   ledger,
		Catalog:  catalog,
		Reports:  reports,
		Importer: services.NewImporter(catalog, months, ledger),
	}, nil
}
