package services

import (
	"context"
	"time"

	"budget/internal/analytics"
	"budget/internal/cache"
	"budget/internal/core"

	"golang.org/x/sync/errgroup"
)

const loadConcurrency = 4

type ReportOptions struct {
	TrendMonths     int
	ForecastHorizon int
	ForecastWindow  int
	CacheSize       int
	CacheTTL        time.Duration
}

func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		TrendMonths:     6,
		ForecastHorizon: 3,
		ForecastWindow:  3,
		CacheSize:       64,
		CacheTTL:        10 * time.Minute,
	}
}

// ReportService loads ledgers and runs the analytics over them. Ledgers of
// locked months are cached; the cached copy is used only while the month row
// is unchanged.
type ReportService struct {
	store    Store
	strategy ForecastStrategy
	opts     ReportOptions
	ledgers  *cache.LRUCache[int64, core.MonthLedger]
}

func NewReportService(store Store, strategy ForecastStrategy, opts ReportOptions) *ReportService {
	if strategy == nil {
		strategy = TrailingAverage{}
	}
	return &ReportService{
		store:    store,
		strategy: strategy,
		opts:     opts,
		ledgers:  cache.NewLRUCache[int64, core.MonthLedger](opts.CacheSize, opts.CacheTTL),
	}
}

// Cache exposes the ledger cache so a cache.Manager can clean it.
func (s *ReportService) Cache() *cache.LRUCache[int64, core.MonthLedger] {
	return s.ledgers
}

func (s *ReportService) ledger(ctx context.Context, monthID int64) (core.MonthLedger, error) {
	q := s.store.Queries()
	m, err := q.GetMonthBudget(ctx, monthID)
	if err != nil {
		return core.MonthLedger{}, err
	}
	if m.Locked {
		if l, ok := s.ledgers.Get(monthID); ok && l.Budget.Locked && l.Budget.UpdatedAt.Equal(m.UpdatedAt) {
			return l, nil
		}
	}

	l, err := loadLedger(ctx, q, monthID)
	if err != nil {
		return core.MonthLedger{}, err
	}
	if l.Budget.Locked {
		s.ledgers.Set(monthID, l)
	} else {
		s.ledgers.Delete(monthID)
	}
	return l, nil
}

func (s *ReportService) loadAll(ctx context.Context, months []core.MonthBudget) ([]core.MonthLedger, error) {
	out := make([]core.MonthLedger, len(months))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, m := range months {
		g.Go(func() error {
			l, err := s.ledger(ctx, m.ID)
			if err != nil {
				return err
			}
			out[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) Summary(ctx context.Context, monthID int64) (analytics.Summary, error) {
	l, err := s.ledger(ctx, monthID)
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(l), nil
}

// HistoricalTrend covers the n most recent existing months, oldest first.
// n <= 0 uses the configured default.
func (s *ReportService) HistoricalTrend(ctx context.Context, n int) ([]analytics.TrendPoint, error) {
	if n <= 0 {
		n = s.opts.TrendMonths
	}
	months, err := s.store.Queries().ListRecentMonthBudgets(ctx, n)
	if err != nil {
		return nil, err
	}
	ledgers, err := s.loadAll(ctx, months)
	if err != nil {
		return nil, err
	}
	return analytics.HistoricalTrend(ledgers, n), nil
}

func (s *ReportService) TopSpendingItems(ctx context.Context, monthID int64, k int) ([]analytics.SpendingItem, error) {
	l, err := s.ledger(ctx, monthID)
	if err != nil {
		return nil, err
	}
	return analytics.TopSpendingItems(l, k), nil
}

// Forecast projects n periods after the latest month from a trailing window
// of w calendar months. Non-positive arguments use the configured defaults.
// It returns nothing when no month exists yet.
func (s *ReportService) Forecast(ctx context.Context, n, w int) ([]analytics.ForecastPoint, error) {
	if n <= 0 {
		n = s.opts.ForecastHorizon
	}
	if w <= 0 {
		w = s.opts.ForecastWindow
	}

	q := s.store.Queries()
	recent, err := q.ListRecentMonthBudgets(ctx, 1)
	if err != nil || len(recent) == 0 {
		return nil, err
	}
	end := recent[0].Period

	months, err := q.ListMonthBudgetsBetween(ctx, end.AddMonths(-(w - 1)), end)
	if err != nil {
		return nil, err
	}
	window, err := s.loadAll(ctx, months)
	if err != nil {
		return nil, err
	}

	latest := window[len(window)-1]
	return analytics.Forecast(latest, window, w, n, s.strategy), nil
}
