package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budget/internal/core"
)

const templateColumns = `id, name, label, default_amount_cents, sort_order, active, notes, deleted_at`

func scanTemplate(row rowScanner) (core.CategoryTemplate, error) {
	var (
		t       core.CategoryTemplate
		deleted sql.NullString
	)
	err := row.Scan(&t.ID, &t.Name, &t.Label, &t.DefaultAmount.Cents, &t.SortOrder, &t.Active, &t.Notes, &deleted)
	if err != nil {
		return core.CategoryTemplate{}, err
	}
	if deleted.Valid {
		t.DeletedAt = parseTime(deleted.String)
	}
	return t, nil
}

type TemplateParams struct {
	Name          string
	Label         string
	DefaultAmount core.Money
	SortOrder     int
	Active        bool
	Notes         string
}

const createTemplate = `INSERT INTO category_templates
    (name, label, default_amount_cents, sort_order, active, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + templateColumns

func (q *Queries) CreateTemplate(ctx context.Context, arg TemplateParams) (core.CategoryTemplate, error) {
	ts := q.timestamp()
	row := q.db.QueryRowContext(ctx, createTemplate,
		arg.Name, arg.Label, arg.DefaultAmount.Cents, arg.SortOrder, arg.Active, arg.Notes, ts, ts)
	t, err := scanTemplate(row)
	if isUniqueViolation(err) {
		return core.CategoryTemplate{}, &core.ValidationError{Field: "name", Err: core.ErrDuplicateName}
	}
	if err != nil {
		return core.CategoryTemplate{}, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

const updateTemplate = `UPDATE category_templates
SET name = ?, label = ?, default_amount_cents = ?, sort_order = ?, active = ?, notes = ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL
RETURNING ` + templateColumns

func (q *Queries) UpdateTemplate(ctx context.Context, id int64, arg TemplateParams) (core.CategoryTemplate, error) {
	row := q.db.QueryRowContext(ctx, updateTemplate,
		arg.Name, arg.Label, arg.DefaultAmount.Cents, arg.SortOrder, arg.Active, arg.Notes, q.timestamp(), id)
	t, err := scanTemplate(row)
	if isUniqueViolation(err) {
		return core.CategoryTemplate{}, &core.ValidationError{Field: "name", Err: core.ErrDuplicateName}
	}
	if err != nil {
		return core.CategoryTemplate{}, notFound(err, "template", id)
	}
	return t, nil
}

const softDeleteTemplate = `UPDATE category_templates
SET deleted_at = ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) SoftDeleteTemplate(ctx context.Context, id int64) error {
	ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, softDeleteTemplate, ts, ts, id)
	if err != nil {
		return fmt.Errorf("delete template %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: "template", ID: id}
	}
	return nil
}

const getTemplate = `SELECT ` + templateColumns + ` FROM category_templates WHERE id = ?`

// GetTemplate returns the template even if it has been soft-deleted.
func (q *Queries) GetTemplate(ctx context.Context, id int64) (core.CategoryTemplate, error) {
	t, err := scanTemplate(q.db.QueryRowContext(ctx, getTemplate, id))
	if err != nil {
		return core.CategoryTemplate{}, notFound(err, "template", id)
	}
	return t, nil
}

const getTemplateByName = `SELECT ` + templateColumns + `
FROM category_templates WHERE name = ? AND deleted_at IS NULL`

// GetTemplateByName returns the live template with the given name, or
// (zero, false, nil) when there is none.
func (q *Queries) GetTemplateByName(ctx context.Context, name string) (core.CategoryTemplate, bool, error) {
	t, err := scanTemplate(q.db.QueryRowContext(ctx, getTemplateByName, name))
	if errors.Is(err, sql.ErrNoRows) {
		return core.CategoryTemplate{}, false, nil
	}
	if err != nil {
		return core.CategoryTemplate{}, false, fmt.Errorf("get template %q: %w", name, err)
	}
	return t, true, nil
}

const listTemplates = `SELECT ` + templateColumns + `
FROM category_templates WHERE deleted_at IS NULL
ORDER BY sort_order, name`

func (q *Queries) ListTemplates(ctx context.Context) ([]core.CategoryTemplate, error) {
	rows, err := q.db.QueryContext(ctx, listTemplates)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
