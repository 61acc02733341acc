package services

import (
	"context"
	"log/slog"

	"budget/internal/core"
	"budget/internal/storage"

	"github.com/shopspring/decimal"
)

// CatalogService manages the global recurring-item templates. Edits and
// deletions never touch month snapshots that already link a template.
type CatalogService struct {
	store Store
}

func NewCatalogService(store Store) *CatalogService {
	return &CatalogService{store: store}
}

type TemplateInput struct {
	Name          string
	Label         string
	DefaultAmount decimal.Decimal
	SortOrder     int
	Active        bool
	Notes         string
}

func (in TemplateInput) params() (storage.TemplateParams, error) {
	name, err := core.ValidateName("name", in.Name)
	if err != nil {
		return storage.TemplateParams{}, err
	}
	amount, err := core.AmountFromDecimal("default_amount", in.DefaultAmount)
	if err != nil {
		return storage.TemplateParams{}, err
	}
	return storage.TemplateParams{
		Name:          name,
		Label:         in.Label,
		DefaultAmount: amount,
		SortOrder:     in.SortOrder,
		Active:        in.Active,
		Notes:         in.Notes,
	}, nil
}

func (s *CatalogService) CreateTemplate(ctx context.Context, in TemplateInput) (core.CategoryTemplate, error) {
	p, err := in.params()
	if err != nil {
		return core.CategoryTemplate{}, err
	}
	t, err := s.store.Queries().CreateTemplate(ctx, p)
	if err != nil {
		return core.CategoryTemplate{}, err
	}
	slog.InfoContext(ctx, "Created template", "template", t.Name, "amount_cents", t.DefaultAmount.Cents)
	return t, nil
}

func (s *CatalogService) UpdateTemplate(ctx context.Context, id int64, in TemplateInput) (core.CategoryTemplate, error) {
	p, err := in.params()
	if err != nil {
		return core.CategoryTemplate{}, err
	}
	return s.store.Queries().UpdateTemplate(ctx, id, p)
}

// UpsertTemplate updates the live template with the same name, or creates
// one. It reports whether a template was created.
func (s *CatalogService) UpsertTemplate(ctx context.Context, in TemplateInput) (core.CategoryTemplate, bool, error) {
	p, err := in.params()
	if err != nil {
		return core.CategoryTemplate{}, false, err
	}

	var (
		t       core.CategoryTemplate
		created bool
	)
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		existing, found, err := q.GetTemplateByName(ctx, p.Name)
		if err != nil {
			return err
		}
		if found {
			t, err = q.UpdateTemplate(ctx, existing.ID, p)
			return err
		}
		t, err = q.CreateTemplate(ctx, p)
		created = err == nil
		return err
	})
	if err != nil {
		return core.CategoryTemplate{}, false, err
	}
	return t, created, nil
}

// DeleteTemplate soft-deletes a template. Months already linked to it keep
// their categories and expenses; future seeding skips it.
func (s *CatalogService) DeleteTemplate(ctx context.Context, id int64) error {
	if err := s.store.Queries().SoftDeleteTemplate(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Deleted template", "template_id", id)
	return nil
}

func (s *CatalogService) GetTemplate(ctx context.Context, id int64) (core.CategoryTemplate, error) {
	return s.store.Queries().GetTemplate(ctx, id)
}

// ListTemplates returns live templates ordered by sort order, then name.
func (s *CatalogService) ListTemplates(ctx context.Context) ([]core.CategoryTemplate, error) {
	return s.store.Queries().ListTemplates(ctx)
}
