package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const categoryOrderStep = 10

type MonthOptions struct {
	// CarryForwardIncome copies the income of the month a new month is
	// cloned from.
	CarryForwardIncome bool
}

// MonthService creates, clones and locks month budgets and edits their
// category structure.
type MonthService struct {
	store  Store
	events EventPublisher
	opts   MonthOptions
	group  singleflight.Group
}

func NewMonthService(store Store, events EventPublisher, opts MonthOptions) *MonthService {
	return &MonthService{
		store:  store,
		events: events,
		opts:   opts,
	}
}

type CategoryInput struct {
	Name string
	// SortOrder < 0 appends after the last category.
	SortOrder  int
	TemplateID *int64
}

// EnsureMonth returns the budget for p, creating it on first use.
//
// A new month clones the categories of the latest month strictly before p
// and gets recurring expenses seeded for its templated categories. Concurrent
// callers in this process share one creation; a row inserted by another
// process is picked up by re-reading.
func (s *MonthService) EnsureMonth(ctx context.Context, p core.Period) (core.MonthBudget, error) {
	if err := p.Validate(); err != nil {
		return core.MonthBudget{}, err
	}

	m, found, err := s.store.Queries().GetMonthBudgetByPeriod(ctx, p)
	if err != nil {
		return core.MonthBudget{}, err
	}
	if found {
		return m, nil
	}

	v, err, _ := s.group.Do(p.String(), func() (any, error) {
		return s.createMonth(ctx, p)
	})
	if err != nil {
		return core.MonthBudget{}, err
	}
	return v.(core.MonthBudget), nil
}

func (s *MonthService) createMonth(ctx context.Context, p core.Period) (core.MonthBudget, error) {
	var (
		month     core.MonthBudget
		created   bool
		cloned    int
		seeded    int
		source    core.Period
		hasSource bool
	)

	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		existing, found, err := q.GetMonthBudgetByPeriod(ctx, p)
		if err != nil {
			return err
		}
		if found {
			month = existing
			return nil
		}

		prev, hasPrev, err := q.LatestMonthBudgetBefore(ctx, p)
		if err != nil {
			return err
		}

		var income core.Money
		if hasPrev && s.opts.CarryForwardIncome {
			income = prev.Income
		}

		month, err = q.CreateMonthBudget(ctx, p, income)
		if err != nil {
			return err
		}

		if hasPrev {
			source, hasSource = prev.Period, true
			if cloned, err = cloneCategories(ctx, q, prev.ID, month.ID); err != nil {
				return err
			}
		}

		if seeded, err = seedRecurring(ctx, q, month); err != nil {
			return err
		}
		created = true
		return nil
	})

	if errors.Is(err, core.ErrDuplicatePeriod) {
		existing, found, rerr := s.store.Queries().GetMonthBudgetByPeriod(ctx, p)
		if rerr != nil {
			return core.MonthBudget{}, rerr
		}
		if found {
			slog.InfoContext(ctx, "Month created concurrently, using existing row", "period", p.String())
			return existing, nil
		}
	}
	if err != nil {
		return core.MonthBudget{}, fmt.Errorf("ensure month %s: %w", p, err)
	}

	if created {
		attrs := []any{"period", p.String(), "id", month.ID, "categories", cloned, "recurring_seeded", seeded}
		if hasSource {
			attrs = append(attrs, "cloned_from", source.String())
		}
		slog.InfoContext(ctx, "Created month budget", attrs...)
		publishMonthEvent(ctx, s.events, amqp.EventMonthCreated, month)
	}
	return month, nil
}

// cloneCategories copies name, order and template link of every category of
// one month into another, with fresh identities. Expenses are never copied.
func cloneCategories(ctx context.Context, q *storage.Queries, fromMonthID, toMonthID int64) (int, error) {
	cats, err := q.ListCategories(ctx, fromMonthID)
	if err != nil {
		return 0, err
	}
	for _, c := range cats {
		_, err := q.CreateCategory(ctx, storage.CreateCategoryParams{
			MonthBudgetID: toMonthID,
			Name:          c.Name,
			SortOrder:     c.SortOrder,
			TemplateID:    c.TemplateID,
		})
		if err != nil {
			return 0, fmt.Errorf("clone category %q: %w", c.Name, err)
		}
	}
	return len(cats), nil
}

func (s *MonthService) GetMonth(ctx context.Context, id int64) (core.MonthBudget, error) {
	return s.store.Queries().GetMonthBudget(ctx, id)
}

// GetMonthByPeriod returns (zero, false, nil) when p has no budget. It never
// creates one.
func (s *MonthService) GetMonthByPeriod(ctx context.Context, p core.Period) (core.MonthBudget, bool, error) {
	if err := p.Validate(); err != nil {
		return core.MonthBudget{}, false, err
	}
	return s.store.Queries().GetMonthBudgetByPeriod(ctx, p)
}

// ListMonths returns every month, oldest first.
func (s *MonthService) ListMonths(ctx context.Context) ([]core.MonthBudget, error) {
	return s.store.Queries().ListMonthBudgets(ctx)
}

func (s *MonthService) LatestMonth(ctx context.Context) (core.MonthBudget, bool, error) {
	months, err := s.store.Queries().ListRecentMonthBudgets(ctx, 1)
	if err != nil || len(months) == 0 {
		return core.MonthBudget{}, false, err
	}
	return months[0], true, nil
}

// LockMonth makes a month read-only. Locking a locked month is a no-op.
func (s *MonthService) LockMonth(ctx context.Context, id int64) (core.MonthBudget, error) {
	return s.setLocked(ctx, id, true)
}

// UnlockMonth is the explicit override that makes a locked month editable
// again.
func (s *MonthService) UnlockMonth(ctx context.Context, id int64) (core.MonthBudget, error) {
	return s.setLocked(ctx, id, false)
}

func (s *MonthService) setLocked(ctx context.Context, id int64, locked bool) (core.MonthBudget, error) {
	var (
		m       core.MonthBudget
		changed bool
	)
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		current, err := q.GetMonthBudget(ctx, id)
		if err != nil {
			return err
		}
		if current.Locked == locked {
			m = current
			return nil
		}
		m, err = q.SetMonthLocked(ctx, id, locked)
		changed = err == nil
		return err
	})
	if err != nil {
		return core.MonthBudget{}, err
	}
	if !changed {
		return m, nil
	}

	if locked {
		slog.InfoContext(ctx, "Locked month", "period", m.Period.String(), "id", m.ID)
		publishMonthEvent(ctx, s.events, amqp.EventMonthLocked, m)
	} else {
		slog.WarnContext(ctx, "Unlocked month", "period", m.Period.String(), "id", m.ID)
		publishMonthEvent(ctx, s.events, amqp.EventMonthUnlocked, m)
	}
	return m, nil
}

// LockElapsed locks every unlocked month whose period ended before now and
// returns the months it locked.
func (s *MonthService) LockElapsed(ctx context.Context, now time.Time) ([]core.MonthBudget, error) {
	months, err := s.store.Queries().ListUnlockedMonthsBefore(ctx, core.PeriodOf(now.UTC()))
	if err != nil {
		return nil, err
	}

	locked := make([]core.MonthBudget, 0, len(months))
	for _, m := range months {
		lm, err := s.LockMonth(ctx, m.ID)
		if err != nil {
			return locked, fmt.Errorf("lock month %s: %w", m.Period, err)
		}
		locked = append(locked, lm)
	}
	return locked, nil
}

// SetIncome replaces the month's income. Zero is allowed.
func (s *MonthService) SetIncome(ctx context.Context, id int64, income decimal.Decimal) (core.MonthBudget, error) {
	amount, err := core.IncomeFromDecimal("income", income)
	if err != nil {
		return core.MonthBudget{}, err
	}

	var m core.MonthBudget
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := unlockedMonth(ctx, q, id); err != nil {
			return err
		}
		m, err = q.SetMonthIncome(ctx, id, amount)
		return err
	})
	if err != nil {
		return core.MonthBudget{}, err
	}
	slog.InfoContext(ctx, "Set month income", "period", m.Period.String(), "amount_cents", amount.Cents)
	return m, nil
}

func (s *MonthService) AddCategory(ctx context.Context, monthID int64, in CategoryInput) (core.MonthCategory, error) {
	name, err := core.ValidateName("name", in.Name)
	if err != nil {
		return core.MonthCategory{}, err
	}

	var c core.MonthCategory
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := unlockedMonth(ctx, q, monthID); err != nil {
			return err
		}
		if in.TemplateID != nil {
			tpl, err := q.GetTemplate(ctx, *in.TemplateID)
			if err != nil {
				return err
			}
			if tpl.Deleted() {
				return &core.NotFoundError{Entity: "template", ID: tpl.ID}
			}
			if _, linked, err := q.GetCategoryByTemplate(ctx, monthID, tpl.ID); err != nil {
				return err
			} else if linked {
				return &core.ValidationError{Field: "template_id", Err: core.ErrTemplateLinked}
			}
		}

		order := in.SortOrder
		if order < 0 {
			maxOrder, err := q.MaxCategoryOrder(ctx, monthID)
			if err != nil {
				return err
			}
			order = maxOrder + categoryOrderStep
		}

		c, err = q.CreateCategory(ctx, storage.CreateCategoryParams{
			MonthBudgetID: monthID,
			Name:          name,
			SortOrder:     order,
			TemplateID:    in.TemplateID,
		})
		return err
	})
	if err != nil {
		return core.MonthCategory{}, err
	}
	slog.InfoContext(ctx, "Added category", "month_id", monthID, "category", c.Name, "sort_order", c.SortOrder)
	return c, nil
}

func (s *MonthService) RenameCategory(ctx context.Context, categoryID int64, name string) (core.MonthCategory, error) {
	name, err := core.ValidateName("name", name)
	if err != nil {
		return core.MonthCategory{}, err
	}

	var c core.MonthCategory
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, _, err := unlockedCategory(ctx, q, categoryID); err != nil {
			return err
		}
		c, err = q.RenameCategory(ctx, categoryID, name)
		return err
	})
	if err != nil {
		return core.MonthCategory{}, err
	}
	return c, nil
}

// ReorderCategories assigns display orders 10, 20, 30... following ids,
// which must list every category of the month exactly once.
func (s *MonthService) ReorderCategories(ctx context.Context, monthID int64, ids []int64) ([]core.MonthCategory, error) {
	var out []core.MonthCategory
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := unlockedMonth(ctx, q, monthID); err != nil {
			return err
		}
		cats, err := q.ListCategories(ctx, monthID)
		if err != nil {
			return err
		}

		owned := make(map[int64]bool, len(cats))
		for _, c := range cats {
			owned[c.ID] = false
		}
		for _, id := range ids {
			seen, ok := owned[id]
			if !ok {
				if _, err := sameMonthCategory(ctx, q, monthID, id, id); err != nil {
					return err
				}
			}
			if seen {
				return &core.ValidationError{Field: "order", Err: core.ErrInvalidOrder}
			}
			owned[id] = true
		}
		if len(ids) != len(cats) {
			return &core.ValidationError{Field: "order", Err: core.ErrInvalidOrder}
		}

		for i, id := range ids {
			if err := q.SetCategoryOrder(ctx, monthID, id, (i+1)*categoryOrderStep); err != nil {
				return err
			}
		}
		out, err = q.ListCategories(ctx, monthID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCategory removes a category. A category that still owns expenses
// needs reassignTo, a category of the same month that receives them; the
// move and the delete commit together.
func (s *MonthService) DeleteCategory(ctx context.Context, categoryID int64, reassignTo *int64) error {
	var moved int64
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		c, _, err := unlockedCategory(ctx, q, categoryID)
		if err != nil {
			return err
		}

		if reassignTo != nil {
			if *reassignTo == categoryID {
				return &core.ValidationError{Field: "reassign_to", Err: core.ErrInvalidTarget}
			}
			if _, err := sameMonthCategory(ctx, q, c.MonthBudgetID, c.ID, *reassignTo); err != nil {
				return err
			}
		}

		n, err := q.CountCategoryExpenses(ctx, categoryID)
		if err != nil {
			return err
		}
		if n > 0 {
			if reassignTo == nil {
				return &core.ValidationError{Field: "reassign_to", Err: core.ErrRequired}
			}
			if moved, err = q.ReassignCategoryExpenses(ctx, c.MonthBudgetID, categoryID, *reassignTo); err != nil {
				return err
			}
		}
		return q.DeleteCategory(ctx, categoryID)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Deleted category", "category_id", categoryID, "expenses_moved", moved)
	return nil
}

func (s *MonthService) ListCategories(ctx context.Context, monthID int64) ([]core.MonthCategory, error) {
	q := s.store.Queries()
	if _, err := q.GetMonthBudget(ctx, monthID); err != nil {
		return nil, err
	}
	return q.ListCategories(ctx, monthID)
}
