package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budget/internal/core"
)

const categoryColumns = `id, month_budget_id, name, sort_order, template_id`

func scanCategory(row rowScanner) (core.MonthCategory, error) {
	var (
		c        core.MonthCategory
		template sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.MonthBudgetID, &c.Name, &c.SortOrder, &template); err != nil {
		return core.MonthCategory{}, err
	}
	c.TemplateID = int64Ptr(template)
	return c, nil
}

type CreateCategoryParams struct {
	MonthBudgetID int64
	Name          string
	SortOrder     int
	TemplateID    *int64
}

const createCategory = `INSERT INTO month_categories (month_budget_id, name, sort_order, template_id, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + categoryColumns

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (core.MonthCategory, error) {
	row := q.db.QueryRowContext(ctx, createCategory,
		arg.MonthBudgetID, arg.Name, arg.SortOrder, nullInt64(arg.TemplateID), q.timestamp())
	c, err := scanCategory(row)
	if isTemplateLinkViolation(err) {
		return core.MonthCategory{}, &core.ValidationError{Field: "template_id", Err: core.ErrTemplateLinked}
	}
	if isUniqueViolation(err) {
		return core.MonthCategory{}, &core.ValidationError{Field: "name", Err: core.ErrDuplicateName}
	}
	if err != nil {
		return core.MonthCategory{}, fmt.Errorf("create category %q: %w", arg.Name, err)
	}
	return c, nil
}

const getCategory = `SELECT ` + categoryColumns + ` FROM month_categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.MonthCategory, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, getCategory, id))
	if err != nil {
		return core.MonthCategory{}, notFound(err, "category", id)
	}
	return c, nil
}

const listCategories = `SELECT ` + categoryColumns + `
FROM month_categories WHERE month_budget_id = ?
ORDER BY sort_order, name, id`

func (q *Queries) ListCategories(ctx context.Context, monthBudgetID int64) ([]core.MonthCategory, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, monthBudgetID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.MonthCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const getCategoryByTemplate = `SELECT ` + categoryColumns + `
FROM month_categories WHERE month_budget_id = ? AND template_id = ?`

// GetCategoryByTemplate returns (zero, false, nil) when no category of the
// month links the template.
func (q *Queries) GetCategoryByTemplate(ctx context.Context, monthBudgetID, templateID int64) (core.MonthCategory, bool, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, getCategoryByTemplate, monthBudgetID, templateID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthCategory{}, false, nil
	}
	if err != nil {
		return core.MonthCategory{}, false, fmt.Errorf("get category for template %d: %w", templateID, err)
	}
	return c, true, nil
}

const setCategoryTemplate = `UPDATE month_categories SET template_id = ? WHERE id = ?
RETURNING ` + categoryColumns

// SetCategoryTemplate links a category to a catalog template.
func (q *Queries) SetCategoryTemplate(ctx context.Context, id, templateID int64) (core.MonthCategory, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, setCategoryTemplate, templateID, id))
	if isUniqueViolation(err) {
		return core.MonthCategory{}, &core.ValidationError{Field: "template_id", Err: core.ErrTemplateLinked}
	}
	if err != nil {
		return core.MonthCategory{}, notFound(err, "category", id)
	}
	return c, nil
}

const renameCategory = `UPDATE month_categories SET name = ? WHERE id = ?
RETURNING ` + categoryColumns

func (q *Queries) RenameCategory(ctx context.Context, id int64, name string) (core.MonthCategory, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, renameCategory, name, id))
	if isUniqueViolation(err) {
		return core.MonthCategory{}, &core.ValidationError{Field: "name", Err: core.ErrDuplicateName}
	}
	if err != nil {
		return core.MonthCategory{}, notFound(err, "category", id)
	}
	return c, nil
}

const setCategoryOrder = `UPDATE month_categories SET sort_order = ? WHERE id = ? AND month_budget_id = ?`

func (q *Queries) SetCategoryOrder(ctx context.Context, monthBudgetID, id int64, order int) error {
	res, err := q.db.ExecContext(ctx, setCategoryOrder, order, id, monthBudgetID)
	if err != nil {
		return fmt.Errorf("set category %d order: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: "category", ID: id}
	}
	return nil
}

const maxCategoryOrder = `SELECT COALESCE(MAX(sort_order), 0) FROM month_categories WHERE month_budget_id = ?`

func (q *Queries) MaxCategoryOrder(ctx context.Context, monthBudgetID int64) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, maxCategoryOrder, monthBudgetID).Scan(&n); err != nil {
		return 0, fmt.Errorf("max category order: %w", err)
	}
	return n, nil
}

const countCategoryExpenses = `SELECT
    (SELECT COUNT(*) FROM recurring_expenses WHERE month_category_id = ?) +
    (SELECT COUNT(*) FROM variable_expenses WHERE month_category_id = ?)`

// CountCategoryExpenses counts recurring and variable rows owned by a category.
func (q *Queries) CountCategoryExpenses(ctx context.Context, id int64) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, countCategoryExpenses, id, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count category %d expenses: %w", id, err)
	}
	return n, nil
}

const (
	reassignRecurring = `UPDATE recurring_expenses SET month_category_id = ?, updated_at = ?
WHERE month_category_id = ? AND month_budget_id = ?`
	reassignVariable = `UPDATE variable_expenses SET month_category_id = ?, updated_at = ?
WHERE month_category_id = ? AND month_budget_id = ?`
)

// ReassignCategoryExpenses moves every expense of one category to another
// category of the same month and returns the number of rows moved.
func (q *Queries) ReassignCategoryExpenses(ctx context.Context, monthBudgetID, fromID, toID int64) (int64, error) {
	ts := q.timestamp()
	var moved int64
	for _, stmt := range []string{reassignRecurring, reassignVariable} {
		res, err := q.db.ExecContext(ctx, stmt, toID, ts, fromID, monthBudgetID)
		if err != nil {
			return moved, fmt.Errorf("reassign category %d to %d: %w", fromID, toID, err)
		}
		n, _ := res.RowsAffected()
		moved += n
	}
	return moved, nil
}

const deleteCategory = `DELETE FROM month_categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: "category", ID: id}
	}
	return nil
}
