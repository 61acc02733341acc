package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"budget/internal/amqp"
	"budget/internal/analytics"
	"budget/internal/core"
	"budget/internal/storage"

	"github.com/shopspring/decimal"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.MonthEvent
}

func (p *recordingPublisher) PublishMonthEvent(_ context.Context, ev *amqp.MonthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count(t amqp.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type testEnv struct {
	ctx     context.Context
	repo    *storage.SQLiteRepository
	months  *MonthService
	ledger  *LedgerService
	catalog *CatalogService
	reports *ReportService
	events  *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	events := &recordingPublisher{}
	return &testEnv{
		ctx:     context.Background(),
		repo:    repo,
		months:  NewMonthService(repo, events, MonthOptions{CarryForwardIncome: true}),
		ledger:  NewLedgerService(repo),
		catalog: NewCatalogService(repo),
		reports: NewReportService(repo, TrailingAverage{}, DefaultReportOptions()),
		events:  events,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func period(year, month int) core.Period { return core.Period{Year: year, Month: month} }

func (e *testEnv) ensure(t *testing.T, p core.Period) core.MonthBudget {
	t.Helper()
	m, err := e.months.EnsureMonth(e.ctx, p)
	if err != nil {
		t.Fatalf("EnsureMonth(%s): %v", p, err)
	}
	return m
}

func (e *testEnv) template(t *testing.T, name, amount string) core.CategoryTemplate {
	t.Helper()
	tpl, err := e.catalog.CreateTemplate(e.ctx, TemplateInput{Name: name, DefaultAmount: dec(amount), Active: true})
	if err != nil {
		t.Fatalf("CreateTemplate(%s): %v", name, err)
	}
	return tpl
}

func (e *testEnv) category(t *testing.T, monthID int64, name string, tpl *core.CategoryTemplate) core.MonthCategory {
	t.Helper()
	in := CategoryInput{Name: name, SortOrder: -1}
	if tpl != nil {
		in.TemplateID = &tpl.ID
	}
	c, err := e.months.AddCategory(e.ctx, monthID, in)
	if err != nil {
		t.Fatalf("AddCategory(%s): %v", name, err)
	}
	return c
}

func (e *testEnv) spend(t *testing.T, categoryID int64, desc, amount string) core.VariableExpense {
	t.Helper()
	v, err := e.ledger.AddVariableExpense(e.ctx, categoryID, VariableInput{Description: desc, Amount: dec(amount)})
	if err != nil {
		t.Fatalf("AddVariableExpense(%s): %v", desc, err)
	}
	return v
}

func (e *testEnv) categoryByName(t *testing.T, monthID int64, name string) core.MonthCategory {
	t.Helper()
	l, err := e.ledger.MonthLedger(e.ctx, monthID)
	if err != nil {
		t.Fatalf("MonthLedger: %v", err)
	}
	c, ok := l.CategoryByName(name)
	if !ok {
		t.Fatalf("month %d has no category %q", monthID, name)
	}
	return c
}

func (e *testEnv) totals(t *testing.T, monthID int64) (core.Money, core.Money) {
	t.Helper()
	l, err := e.ledger.MonthLedger(e.ctx, monthID)
	if err != nil {
		t.Fatalf("MonthLedger: %v", err)
	}
	return analytics.TotalRecurring(l), analytics.TotalVariable(l)
}
