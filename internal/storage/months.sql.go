package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budget/internal/core"
)

const monthColumns = `id, year, month, income_cents, locked, created_at, updated_at`

func scanMonth(row rowScanner) (core.MonthBudget, error) {
	var (
		m                core.MonthBudget
		created, updated string
	)
	err := row.Scan(&m.ID, &m.Period.Year, &m.Period.Month, &m.Income.Cents, &m.Locked, &created, &updated)
	if err != nil {
		return core.MonthBudget{}, err
	}
	m.CreatedAt = parseTime(created)
	m.UpdatedAt = parseTime(updated)
	return m, nil
}

func (q *Queries) listMonths(ctx context.Context, query string, args ...any) ([]core.MonthBudget, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list month budgets: %w", err)
	}
	defer rows.Close()

	var out []core.MonthBudget
	for rows.Next() {
		m, err := scanMonth(rows)
		if err != nil {
			return nil, fmt.Errorf("scan month budget: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const createMonthBudget = `INSERT INTO month_budgets (year, month, income_cents, locked, created_at, updated_at)
VALUES (?, ?, ?, 0, ?, ?)
RETURNING ` + monthColumns

// CreateMonthBudget inserts a new month. A concurrent insert for the same
// period surfaces as core.ErrDuplicatePeriod.
func (q *Queries) CreateMonthBudget(ctx context.Context, p core.Period, income core.Money) (core.MonthBudget, error) {
	ts := q.timestamp()
	m, err := scanMonth(q.db.QueryRowContext(ctx, createMonthBudget, p.Year, p.Month, income.Cents, ts, ts))
	if isUniqueViolation(err) {
		return core.MonthBudget{}, fmt.Errorf("create month %s: %w", p, core.ErrDuplicatePeriod)
	}
	if err != nil {
		return core.MonthBudget{}, fmt.Errorf("create month %s: %w", p, err)
	}
	return m, nil
}

const getMonthBudget = `SELECT ` + monthColumns + ` FROM month_budgets WHERE id = ?`

func (q *Queries) GetMonthBudget(ctx context.Context, id int64) (core.MonthBudget, error) {
	m, err := scanMonth(q.db.QueryRowContext(ctx, getMonthBudget, id))
	if err != nil {
		return core.MonthBudget{}, notFound(err, "month", id)
	}
	return m, nil
}

const getMonthBudgetByPeriod = `SELECT ` + monthColumns + ` FROM month_budgets WHERE year = ? AND month = ?`

// GetMonthBudgetByPeriod returns (zero, false, nil) when the period has no budget.
func (q *Queries) GetMonthBudgetByPeriod(ctx context.Context, p core.Period) (core.MonthBudget, bool, error) {
	m, err := scanMonth(q.db.QueryRowContext(ctx, getMonthBudgetByPeriod, p.Year, p.Month))
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthBudget{}, false, nil
	}
	if err != nil {
		return core.MonthBudget{}, false, fmt.Errorf("get month %s: %w", p, err)
	}
	return m, true, nil
}

const latestMonthBudgetBefore = `SELECT ` + monthColumns + `
FROM month_budgets
WHERE year < ? OR (year = ? AND month < ?)
ORDER BY year DESC, month DESC
LIMIT 1`

// LatestMonthBudgetBefore returns the chronologically latest budget strictly
// before p.
func (q *Queries) LatestMonthBudgetBefore(ctx context.Context, p core.Period) (core.MonthBudget, bool, error) {
	m, err := scanMonth(q.db.QueryRowContext(ctx, latestMonthBudgetBefore, p.Year, p.Year, p.Month))
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthBudget{}, false, nil
	}
	if err != nil {
		return core.MonthBudget{}, false, fmt.Errorf("get month before %s: %w", p, err)
	}
	return m, true, nil
}

const listMonthBudgets = `SELECT ` + monthColumns + ` FROM month_budgets ORDER BY year, month`

// ListMonthBudgets returns every month, oldest first.
func (q *Queries) ListMonthBudgets(ctx context.Context) ([]core.MonthBudget, error) {
	return q.listMonths(ctx, listMonthBudgets)
}

const listRecentMonthBudgets = `SELECT ` + monthColumns + `
FROM month_budgets ORDER BY year DESC, month DESC LIMIT ?`

// ListRecentMonthBudgets returns the n most recent months, newest first.
func (q *Queries) ListRecentMonthBudgets(ctx context.Context, n int) ([]core.MonthBudget, error) {
	return q.listMonths(ctx, listRecentMonthBudgets, n)
}

const listMonthBudgetsBetween = `SELECT ` + monthColumns + `
FROM month_budgets
WHERE (year * 12 + month) BETWEEN (? * 12 + ?) AND (? * 12 + ?)
ORDER BY year, month`

// ListMonthBudgetsBetween returns existing months in [from, to], oldest first.
func (q *Queries) ListMonthBudgetsBetween(ctx context.Context, from, to core.Period) ([]core.MonthBudget, error) {
	return q.listMonths(ctx, listMonthBudgetsBetween, from.Year, from.Month, to.Year, to.Month)
}

const listUnlockedMonthsBefore = `SELECT ` + monthColumns + `
FROM month_budgets
WHERE locked = 0 AND (year < ? OR (year = ? AND month < ?))
ORDER BY year, month`

func (q *Queries) ListUnlockedMonthsBefore(ctx context.Context, p core.Period) ([]core.MonthBudget, error) {
	return q.listMonths(ctx, listUnlockedMonthsBefore, p.Year, p.Year, p.Month)
}

const setMonthLocked = `UPDATE month_budgets SET locked = ?, updated_at = ? WHERE id = ?
RETURNING ` + monthColumns

func (q *Queries) SetMonthLocked(ctx context.Context, id int64, locked bool) (core.MonthBudget, error) {
	m, err := scanMonth(q.db.QueryRowContext(ctx, setMonthLocked, locked, q.timestamp(), id))
	if err != nil {
		return core.MonthBudget{}, notFound(err, "month", id)
	}
	return m, nil
}

const setMonthIncome = `UPDATE month_budgets SET income_cents = ?, updated_at = ? WHERE id = ?
RETURNING ` + monthColumns

func (q *Queries) SetMonthIncome(ctx context.Context, id int64, income core.Money) (core.MonthBudget, error) {
	m, err := scanMonth(q.db.QueryRowContext(ctx, setMonthIncome, income.Cents, q.timestamp(), id))
	if err != nil {
		return core.MonthBudget{}, notFound(err, "month", id)
	}
	return m, nil
}
