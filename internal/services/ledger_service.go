package services

import (
	"context"
	"log/slog"

	"budget/internal/core"
	"budget/internal/storage"

	"github.com/shopspring/decimal"
)

// LedgerService records recurring and variable expenses against the
// categories of a month.
type LedgerService struct {
	store Store
}

func NewLedgerService(store Store) *LedgerService {
	return &LedgerService{store: store}
}

type (
	RecurringInput struct {
		Name    string
		Amount  decimal.Decimal
		Enabled bool
		Notes   string
	}

	VariableInput struct {
		Description string
		Amount      decimal.Decimal
		// Zero means the first day of the month.
		Date  core.Date
		Notes string
	}

	// RecurringPatch changes only the non-nil fields. CategoryID moves the
	// expense to another category of the same month.
	RecurringPatch struct {
		Name       *string
		Amount     *decimal.Decimal
		Enabled    *bool
		Notes      *string
		CategoryID *int64
	}

	VariablePatch struct {
		Description *string
		Amount      *decimal.Decimal
		Date        *core.Date
		Notes       *string
		CategoryID  *int64
	}
)

// SeedRecurring creates the recurring expense of every templated category
// that does not have one yet and returns how many were created. Repeated
// calls create nothing new.
func (s *LedgerService) SeedRecurring(ctx context.Context, monthID int64) (int, error) {
	var n int
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		m, err := unlockedMonth(ctx, q, monthID)
		if err != nil {
			return err
		}
		n, err = seedRecurring(ctx, q, m)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.InfoContext(ctx, "Seeded recurring expenses", "month_id", monthID, "created", n)
	}
	return n, nil
}

// seedRecurring mirrors each linked template's default amount and active
// flag. Soft-deleted templates are skipped; at most one expense exists per
// month and template.
func seedRecurring(ctx context.Context, q *storage.Queries, m core.MonthBudget) (int, error) {
	cats, err := q.ListCategories(ctx, m.ID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, c := range cats {
		if c.TemplateID == nil {
			continue
		}
		tpl, err := q.GetTemplate(ctx, *c.TemplateID)
		if err != nil {
			return created, err
		}
		if tpl.Deleted() {
			continue
		}
		exists, err := q.HasRecurringForTemplate(ctx, m.ID, tpl.ID)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		_, err = q.CreateRecurringExpense(ctx, core.RecurringExpense{
			MonthBudgetID: m.ID,
			CategoryID:    c.ID,
			TemplateID:    &tpl.ID,
			Name:          tpl.Name,
			Amount:        tpl.DefaultAmount,
			Enabled:       tpl.Active,
			Notes:         tpl.Notes,
		})
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// AddRecurringExpense adds a recurring item with no template behind it.
func (s *LedgerService) AddRecurringExpense(ctx context.Context, categoryID int64, in RecurringInput) (core.RecurringExpense, error) {
	name, err := core.ValidateName("name", in.Name)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	amount, err := core.AmountFromDecimal("amount", in.Amount)
	if err != nil {
		return core.RecurringExpense{}, err
	}

	var out core.RecurringExpense
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		c, m, err := unlockedCategory(ctx, q, categoryID)
		if err != nil {
			return err
		}
		out, err = q.CreateRecurringExpense(ctx, core.RecurringExpense{
			MonthBudgetID: m.ID,
			CategoryID:    c.ID,
			Name:          name,
			Amount:        amount,
			Enabled:       in.Enabled,
			Notes:         in.Notes,
		})
		return err
	})
	if err != nil {
		return core.RecurringExpense{}, err
	}
	return out, nil
}

func (s *LedgerService) AddVariableExpense(ctx context.Context, categoryID int64, in VariableInput) (core.VariableExpense, error) {
	desc, err := core.ValidateName("description", in.Description)
	if err != nil {
		return core.VariableExpense{}, err
	}
	amount, err := core.AmountFromDecimal("amount", in.Amount)
	if err != nil {
		return core.VariableExpense{}, err
	}

	var out core.VariableExpense
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		c, m, err := unlockedCategory(ctx, q, categoryID)
		if err != nil {
			return err
		}
		date := in.Date
		if date.IsZero() {
			date = core.Date{Time: m.Period.FirstDay()}
		}
		out, err = q.CreateVariableExpense(ctx, core.VariableExpense{
			MonthBudgetID: m.ID,
			CategoryID:    c.ID,
			Description:   desc,
			Amount:        amount,
			Date:          date,
			Notes:         in.Notes,
		})
		return err
	})
	if err != nil {
		return core.VariableExpense{}, err
	}
	slog.InfoContext(ctx, "Added variable expense",
		"month_id", out.MonthBudgetID,
		"category_id", out.CategoryID,
		"amount_cents", out.Amount.Cents)
	return out, nil
}

// ToggleRecurring includes or excludes a recurring item from the totals
// without deleting it.
func (s *LedgerService) ToggleRecurring(ctx context.Context, expenseID int64, enabled bool) (core.RecurringExpense, error) {
	return s.EditRecurringExpense(ctx, expenseID, RecurringPatch{Enabled: &enabled})
}

func (s *LedgerService) EditRecurringExpense(ctx context.Context, expenseID int64, patch RecurringPatch) (core.RecurringExpense, error) {
	var out core.RecurringExpense
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetRecurringExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if _, err := unlockedMonth(ctx, q, e.MonthBudgetID); err != nil {
			return err
		}

		if patch.Name != nil {
			if e.Name, err = core.ValidateName("name", *patch.Name); err != nil {
				return err
			}
		}
		if patch.Amount != nil {
			if e.Amount, err = core.AmountFromDecimal("amount", *patch.Amount); err != nil {
				return err
			}
		}
		if patch.Enabled != nil {
			e.Enabled = *patch.Enabled
		}
		if patch.Notes != nil {
			e.Notes = *patch.Notes
		}
		if patch.CategoryID != nil {
			if _, err := sameMonthCategory(ctx, q, e.MonthBudgetID, e.CategoryID, *patch.CategoryID); err != nil {
				return err
			}
			e.CategoryID = *patch.CategoryID
		}

		out, err = q.UpdateRecurringExpense(ctx, e)
		return err
	})
	if err != nil {
		return core.RecurringExpense{}, err
	}
	return out, nil
}

func (s *LedgerService) EditVariableExpense(ctx context.Context, expenseID int64, patch VariablePatch) (core.VariableExpense, error) {
	var out core.VariableExpense
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetVariableExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if _, err := unlockedMonth(ctx, q, e.MonthBudgetID); err != nil {
			return err
		}

		if patch.Description != nil {
			if e.Description, err = core.ValidateName("description", *patch.Description); err != nil {
				return err
			}
		}
		if patch.Amount != nil {
			if e.Amount, err = core.AmountFromDecimal("amount", *patch.Amount); err != nil {
				return err
			}
		}
		if patch.Date != nil && !patch.Date.IsZero() {
			e.Date = *patch.Date
		}
		if patch.Notes != nil {
			e.Notes = *patch.Notes
		}
		if patch.CategoryID != nil {
			if _, err := sameMonthCategory(ctx, q, e.MonthBudgetID, e.CategoryID, *patch.CategoryID); err != nil {
				return err
			}
			e.CategoryID = *patch.CategoryID
		}

		out, err = q.UpdateVariableExpense(ctx, e)
		return err
	})
	if err != nil {
		return core.VariableExpense{}, err
	}
	return out, nil
}

func (s *LedgerService) DeleteRecurringExpense(ctx context.Context, expenseID int64) error {
	return s.store.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetRecurringExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if _, err := unlockedMonth(ctx, q, e.MonthBudgetID); err != nil {
			return err
		}
		return q.DeleteRecurringExpense(ctx, expenseID)
	})
}

func (s *LedgerService) DeleteVariableExpense(ctx context.Context, expenseID int64) error {
	return s.store.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetVariableExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if _, err := unlockedMonth(ctx, q, e.MonthBudgetID); err != nil {
			return err
		}
		return q.DeleteVariableExpense(ctx, expenseID)
	})
}

// ConvertToVariable turns a recurring expense into a variable one of the
// same category and amount, dated the first day of its month. The template
// link is dropped.
func (s *LedgerService) ConvertToVariable(ctx context.Context, expenseID int64) (core.VariableExpense, error) {
	var out core.VariableExpense
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetRecurringExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		m, err := unlockedMonth(ctx, q, e.MonthBudgetID)
		if err != nil {
			return err
		}
		out, err = q.CreateVariableExpense(ctx, core.VariableExpense{
			MonthBudgetID: m.ID,
			CategoryID:    e.CategoryID,
			Description:   e.Name,
			Amount:        e.Amount,
			Date:          core.Date{Time: m.Period.FirstDay()},
			Notes:         e.Notes,
		})
		if err != nil {
			return err
		}
		return q.DeleteRecurringExpense(ctx, e.ID)
	})
	if err != nil {
		return core.VariableExpense{}, err
	}
	slog.InfoContext(ctx, "Converted recurring expense to variable",
		"month_id", out.MonthBudgetID,
		"from_id", expenseID,
		"to_id", out.ID)
	return out, nil
}

// ConvertToRecurring turns a variable expense into an enabled recurring one
// of the same category and amount.
func (s *LedgerService) ConvertToRecurring(ctx context.Context, expenseID int64) (core.RecurringExpense, error) {
	var out core.RecurringExpense
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetVariableExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if _, err := unlockedMonth(ctx, q, e.MonthBudgetID); err != nil {
			return err
		}
		out, err = q.CreateRecurringExpense(ctx, core.RecurringExpense{
			MonthBudgetID: e.MonthBudgetID,
			CategoryID:    e.CategoryID,
			Name:          e.Description,
			Amount:        e.Amount,
			Enabled:       true,
			Notes:         e.Notes,
		})
		if err != nil {
			return err
		}
		return q.DeleteVariableExpense(ctx, e.ID)
	})
	if err != nil {
		return core.RecurringExpense{}, err
	}
	slog.InfoContext(ctx, "Converted variable expense to recurring",
		"month_id", out.MonthBudgetID,
		"from_id", expenseID,
		"to_id", out.ID)
	return out, nil
}

// SetForecastOverride fixes the forecast variable component of a category
// when forecasting from its month. Zero is allowed.
func (s *LedgerService) SetForecastOverride(ctx context.Context, categoryID int64, amount decimal.Decimal) error {
	m, err := core.IncomeFromDecimal("amount", amount)
	if err != nil {
		return err
	}
	return s.store.InTx(ctx, func(q *storage.Queries) error {
		c, _, err := unlockedCategory(ctx, q, categoryID)
		if err != nil {
			return err
		}
		return q.UpsertForecastOverride(ctx, core.ForecastOverride{
			MonthBudgetID: c.MonthBudgetID,
			CategoryID:    c.ID,
			Amount:        m,
		})
	})
}

func (s *LedgerService) ClearForecastOverride(ctx context.Context, categoryID int64) error {
	return s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, _, err := unlockedCategory(ctx, q, categoryID); err != nil {
			return err
		}
		return q.DeleteForecastOverride(ctx, categoryID)
	})
}

// MonthLedger reads the full ledger of one month.
func (s *LedgerService) MonthLedger(ctx context.Context, monthID int64) (core.MonthLedger, error) {
	return loadLedger(ctx, s.store.Queries(), monthID)
}

func loadLedger(ctx context.Context, q *storage.Queries, monthID int64) (core.MonthLedger, error) {
	var (
		l   core.MonthLedger
		err error
	)
	if l.Budget, err = q.GetMonthBudget(ctx, monthID); err != nil {
		return core.MonthLedger{}, err
	}
	if l.Categories, err = q.ListCategories(ctx, monthID); err != nil {
		return core.MonthLedger{}, err
	}
	if l.Recurring, err = q.ListRecurringExpenses(ctx, monthID); err != nil {
		return core.MonthLedger{}, err
	}
	if l.Variable, err = q.ListVariableExpenses(ctx, monthID); err != nil {
		return core.MonthLedger{}, err
	}
	if l.Overrides, err = q.ListForecastOverrides(ctx, monthID); err != nil {
		return core.MonthLedger{}, err
	}
	return l, nil
}
