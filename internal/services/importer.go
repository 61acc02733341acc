package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/core"
	"budget/internal/seed"
	"budget/internal/storage"
)

// Importer applies a seed document: it upserts templates, makes sure the
// current month exists, adds or links the missing categories and seeds
// recurring expenses. Running it again with the same document changes
// nothing.
//
// Template upserts and month creation commit on their own; the category,
// income and seeding changes of the month are one transaction.
type Importer struct {
	catalog *CatalogService
	months  *MonthService
	ledger  *LedgerService
}

func NewImporter(catalog *CatalogService, months *MonthService, ledger *LedgerService) *Importer {
	return &Importer{catalog: catalog, months: months, ledger: ledger}
}

type ImportResult struct {
	Month            core.MonthBudget
	TemplatesCreated int
	TemplatesUpdated int
	CategoriesAdded  int
	// CategoriesLinked counts existing plain categories that were linked
	// to the template of the same name.
	CategoriesLinked int
	RecurringSeeded  int
}

func (im *Importer) Import(ctx context.Context, doc seed.Document, now time.Time) (ImportResult, error) {
	var res ImportResult

	type entry struct {
		name       string
		templateID *int64
	}
	var wanted []entry

	order := 0
	for _, g := range doc.Groups {
		if len(g.Items) == 0 {
			wanted = append(wanted, entry{name: g.Name})
			continue
		}
		for _, item := range g.Items {
			order += categoryOrderStep
			tpl, created, err := im.catalog.UpsertTemplate(ctx, TemplateInput{
				Name:          item.Name,
				Label:         g.Name,
				DefaultAmount: item.Amount,
				SortOrder:     order,
				Active:        true,
				Notes:         item.Notes,
			})
			if err != nil {
				return res, fmt.Errorf("import template %q: %w", item.Name, err)
			}
			if created {
				res.TemplatesCreated++
			} else {
				res.TemplatesUpdated++
			}
			id := tpl.ID
			wanted = append(wanted, entry{name: tpl.Name, templateID: &id})
		}
	}

	var income *core.Money
	if doc.Income != nil {
		m, err := core.IncomeFromDecimal("income", *doc.Income)
		if err != nil {
			return res, err
		}
		income = &m
	}

	month, err := im.months.EnsureMonth(ctx, core.PeriodOf(now.UTC()))
	if err != nil {
		return res, err
	}
	res.Month = month
	if month.Locked {
		slog.WarnContext(ctx, "Current month is locked, only the catalog was imported",
			"period", month.Period.String())
		return res, nil
	}

	// The month-side changes commit or roll back together.
	err = im.months.store.InTx(ctx, func(q *storage.Queries) error {
		m, err := unlockedMonth(ctx, q, month.ID)
		if err != nil {
			return err
		}
		existing, err := q.ListCategories(ctx, m.ID)
		if err != nil {
			return err
		}

		for _, e := range wanted {
			c, found := matchCategory(existing, e.name, e.templateID)
			switch {
			case found && (e.templateID == nil || c.HasTemplate(*e.templateID)):
				continue
			case found && c.TemplateID != nil:
				return fmt.Errorf("import category %q: %w", e.name,
					&core.ValidationError{Field: "name", Err: core.ErrDuplicateName})
			case found:
				linked, err := q.SetCategoryTemplate(ctx, c.ID, *e.templateID)
				if err != nil {
					return fmt.Errorf("link category %q: %w", e.name, err)
				}
				replaceCategory(existing, linked)
				res.CategoriesLinked++
				continue
			}

			maxOrder, err := q.MaxCategoryOrder(ctx, m.ID)
			if err != nil {
				return err
			}
			c, err = q.CreateCategory(ctx, storage.CreateCategoryParams{
				MonthBudgetID: m.ID,
				Name:          e.name,
				SortOrder:     maxOrder + categoryOrderStep,
				TemplateID:    e.templateID,
			})
			if err != nil {
				return fmt.Errorf("import category %q: %w", e.name, err)
			}
			existing = append(existing, c)
			res.CategoriesAdded++
		}

		if income != nil {
			if m, err = q.SetMonthIncome(ctx, m.ID, *income); err != nil {
				return err
			}
		}
		res.Month = m

		res.RecurringSeeded, err = seedRecurring(ctx, q, m)
		return err
	})
	if err != nil {
		res.CategoriesAdded, res.CategoriesLinked, res.RecurringSeeded = 0, 0, 0
		res.Month = month
		return res, err
	}

	slog.InfoContext(ctx, "Imported seed document",
		"period", month.Period.String(),
		"templates_created", res.TemplatesCreated,
		"templates_updated", res.TemplatesUpdated,
		"categories_added", res.CategoriesAdded,
		"categories_linked", res.CategoriesLinked,
		"recurring_seeded", res.RecurringSeeded)
	return res, nil
}

// matchCategory finds the category an import entry maps to: the one linking
// its template, else the one with its name.
func matchCategory(cats []core.MonthCategory, name string, templateID *int64) (core.MonthCategory, bool) {
	if templateID != nil {
		for _, c := range cats {
			if c.HasTemplate(*templateID) {
				return c, true
			}
		}
	}
	for _, c := range cats {
		if c.Name == name {
			return c, true
		}
	}
	return core.MonthCategory{}, false
}

func replaceCategory(cats []core.MonthCategory, c core.MonthCategory) {
	for i := range cats {
		if cats[i].ID == c.ID {
			cats[i] = c
		}
	}
}
