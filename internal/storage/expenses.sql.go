package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budget/internal/core"
)

const recurringColumns = `id, month_budget_id, month_category_id, template_id, name, amount_cents, enabled, notes, created_at`

func scanRecurring(row rowScanner) (core.RecurringExpense, error) {
	var (
		e        core.RecurringExpense
		template sql.NullInt64
		created  string
	)
	err := row.Scan(&e.ID, &e.MonthBudgetID, &e.CategoryID, &template, &e.Name, &e.Amount.Cents, &e.Enabled, &e.Notes, &created)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	e.TemplateID = int64Ptr(template)
	e.CreatedAt = parseTime(created)
	return e, nil
}

const createRecurringExpense = `INSERT INTO recurring_expenses
    (month_budget_id, month_category_id, template_id, name, amount_cents, enabled, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + recurringColumns

func (q *Queries) CreateRecurringExpense(ctx context.Context, e core.RecurringExpense) (core.RecurringExpense, error) {
	ts := q.timestamp()
	row := q.db.QueryRowContext(ctx, createRecurringExpense,
		e.MonthBudgetID, e.CategoryID, nullInt64(e.TemplateID), e.Name, e.Amount.Cents, e.Enabled, e.Notes, ts, ts)
	out, err := scanRecurring(row)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("create recurring expense %q: %w", e.Name, err)
	}
	return out, nil
}

const getRecurringExpense = `SELECT ` + recurringColumns + ` FROM recurring_expenses WHERE id = ?`

func (q *Queries) GetRecurringExpense(ctx context.Context, id int64) (core.RecurringExpense, error) {
	e, err := scanRecurring(q.db.QueryRowContext(ctx, getRecurringExpense, id))
	if err != nil {
		return core.RecurringExpense{}, notFound(err, "recurring expense", id)
	}
	return e, nil
}

const listRecurringExpenses = `SELECT ` + recurringColumns + `
FROM recurring_expenses WHERE month_budget_id = ? ORDER BY id`

func (q *Queries) ListRecurringExpenses(ctx context.Context, monthBudgetID int64) ([]core.RecurringExpense, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringExpenses, monthBudgetID)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		e, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const hasRecurringForTemplate = `SELECT 1 FROM recurring_expenses
WHERE month_budget_id = ? AND template_id = ? LIMIT 1`

func (q *Queries) HasRecurringForTemplate(ctx context.Context, monthBudgetID, templateID int64) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, hasRecurringForTemplate, monthBudgetID, templateID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check recurring for template %d: %w", templateID, err)
	}
	return true, nil
}

const updateRecurringExpense = `UPDATE recurring_expenses
SET month_category_id = ?, name = ?, amount_cents = ?, enabled = ?, notes = ?, updated_at = ?
WHERE id = ?
RETURNING ` + recurringColumns

func (q *Queries) UpdateRecurringExpense(ctx context.Context, e core.RecurringExpense) (core.RecurringExpense, error) {
	row := q.db.QueryRowContext(ctx, updateRecurringExpense,
		e.CategoryID, e.Name, e.Amount.Cents, e.Enabled, e.Notes, q.timestamp(), e.ID)
	out, err := scanRecurring(row)
	if err != nil {
		return core.RecurringExpense{}, notFound(err, "recurring expense", e.ID)
	}
	return out, nil
}

const deleteRecurringExpense = `DELETE FROM recurring_expenses WHERE id = ?`

func (q *Queries) DeleteRecurringExpense(ctx context.Context, id int64) error {
	return q.deleteByID(ctx, deleteRecurringExpense, "recurring expense", id)
}

const variableColumns = `id, month_budget_id, month_category_id, description, amount_cents, date, notes, created_at`

func scanVariable(row rowScanner) (core.VariableExpense, error) {
	var (
		e             core.VariableExpense
		date, created string
	)
	err := row.Scan(&e.ID, &e.MonthBudgetID, &e.CategoryID, &e.Description, &e.Amount.Cents, &date, &e.Notes, &created)
	if err != nil {
		return core.VariableExpense{}, err
	}
	e.Date = parseDate(date)
	e.CreatedAt = parseTime(created)
	return e, nil
}

const createVariableExpense = `INSERT INTO variable_expenses
    (month_budget_id, month_category_id, description, amount_cents, date, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + variableColumns

func (q *Queries) CreateVariableExpense(ctx context.Context, e core.VariableExpense) (core.VariableExpense, error) {
	ts := q.timestamp()
	row := q.db.QueryRowContext(ctx, createVariableExpense,
		e.MonthBudgetID, e.CategoryID, e.Description, e.Amount.Cents, e.Date.Format(dateLayout), e.Notes, ts, ts)
	out, err := scanVariable(row)
	if err != nil {
		return core.VariableExpense{}, fmt.Errorf("create variable expense %q: %w", e.Description, err)
	}
	return out, nil
}

const getVariableExpense = `SELECT ` + variableColumns + ` FROM variable_expenses WHERE id = ?`

func (q *Queries) GetVariableExpense(ctx context.Context, id int64) (core.VariableExpense, error) {
	e, err := scanVariable(q.db.QueryRowContext(ctx, getVariableExpense, id))
	if err != nil {
		return core.VariableExpense{}, notFound(err, "variable expense", id)
	}
	return e, nil
}

const listVariableExpenses = `SELECT ` + variableColumns + `
FROM variable_expenses WHERE month_budget_id = ? ORDER BY id`

func (q *Queries) ListVariableExpenses(ctx context.Context, monthBudgetID int64) ([]core.VariableExpense, error) {
	rows, err := q.db.QueryContext(ctx, listVariableExpenses, monthBudgetID)
	if err != nil {
		return nil, fmt.Errorf("list variable expenses: %w", err)
	}
	defer rows.Close()

	var out []core.VariableExpense
	for rows.Next() {
		e, err := scanVariable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variable expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const updateVariableExpense = `UPDATE variable_expenses
SET month_category_id = ?, description = ?, amount_cents = ?, date = ?, notes = ?, updated_at = ?
WHERE id = ?
RETURNING ` + variableColumns

func (q *Queries) UpdateVariableExpense(ctx context.Context, e core.VariableExpense) (core.VariableExpense, error) {
	row := q.db.QueryRowContext(ctx, updateVariableExpense,
		e.CategoryID, e.Description, e.Amount.Cents, e.Date.Format(dateLayout), e.Notes, q.timestamp(), e.ID)
	out, err := scanVariable(row)
	if err != nil {
		return core.VariableExpense{}, notFound(err, "variable expense", e.ID)
	}
	return out, nil
}

const deleteVariableExpense = `DELETE FROM variable_expenses WHERE id = ?`

func (q *Queries) DeleteVariableExpense(ctx context.Context, id int64) error {
	return q.deleteByID(ctx, deleteVariableExpense, "variable expense", id)
}

func (q *Queries) deleteByID(ctx context.Context, stmt, entity string, id int64) error {
	res, err := q.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", entity, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

const upsertForecastOverride = `INSERT INTO forecast_overrides (month_category_id, month_budget_id, amount_cents)
VALUES (?, ?, ?)
ON CONFLICT (month_category_id) DO UPDATE SET amount_cents = excluded.amount_cents`

func (q *Queries) UpsertForecastOverride(ctx context.Context, o core.ForecastOverride) error {
	if _, err := q.db.ExecContext(ctx, upsertForecastOverride, o.CategoryID, o.MonthBudgetID, o.Amount.Cents); err != nil {
		return fmt.Errorf("set forecast override for category %d: %w", o.CategoryID, err)
	}
	return nil
}

const deleteForecastOverride = `DELETE FROM forecast_overrides WHERE month_category_id = ?`

func (q *Queries) DeleteForecastOverride(ctx context.Context, categoryID int64) error {
	if _, err := q.db.ExecContext(ctx, deleteForecastOverride, categoryID); err != nil {
		return fmt.Errorf("clear forecast override for category %d: %w", categoryID, err)
	}
	return nil
}

const listForecastOverrides = `SELECT month_budget_id, month_category_id, amount_cents
FROM forecast_overrides WHERE month_budget_id = ? ORDER BY month_category_id`

func (q *Queries) ListForecastOverrides(ctx context.Context, monthBudgetID int64) ([]core.ForecastOverride, error) {
	rows, err := q.db.QueryContext(ctx, listForecastOverrides, monthBudgetID)
	if err != nil {
		return nil, fmt.Errorf("list forecast overrides: %w", err)
	}
	defer rows.Close()

	var out []core.ForecastOverride
	for rows.Next() {
		var o core.ForecastOverride
		if err := rows.Scan(&o.MonthBudgetID, &o.CategoryID, &o.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan forecast override: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
