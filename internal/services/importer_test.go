package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/seed"
)

const importDoc = `
income: "4319.38"
categories:
  - name: House Expenses
    recurring:
      - {name: Rent, amount: "675.00"}
      - {name: Internet, amount: "29.90"}
  - name: Food
`

func TestImporter_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	im := NewImporter(env.catalog, env.months, env.ledger)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	doc, err := seed.Parse(strings.NewReader(importDoc), "yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	first, err := im.Import(env.ctx, doc, now)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if first.TemplatesCreated != 2 || first.CategoriesAdded != 3 || first.RecurringSeeded != 2 {
		t.Errorf("first import = %+v", first)
	}
	if first.Month.Period != period(2024, 6) || first.Month.Income.Cents != 431938 {
		t.Errorf("month = %+v", first.Month)
	}

	second, err := im.Import(env.ctx, doc, now)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if second.TemplatesCreated != 0 || second.TemplatesUpdated != 2 || second.CategoriesAdded != 0 || second.RecurringSeeded != 0 {
		t.Errorf("second import = %+v", second)
	}

	recurring, _ := env.totals(t, first.Month.ID)
	if recurring.Cents != 70490 {
		t.Errorf("recurring total = %s, want 704.90", recurring)
	}

	tpls, err := env.catalog.ListTemplates(env.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tpls) != 2 || tpls[0].Name != "Rent" || tpls[0].Label != "House Expenses" {
		t.Errorf("templates = %+v", tpls)
	}
}

func TestImporter_LockedMonthOnlyUpdatesCatalog(t *testing.T) {
	env := newTestEnv(t)
	im := NewImporter(env.catalog, env.months, env.ledger)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	m := env.ensure(t, period(2024, 6))
	if _, err := env.months.LockMonth(env.ctx, m.ID); err != nil {
		t.Fatal(err)
	}

	doc, err := seed.Parse(strings.NewReader(importDoc), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	res, err := im.Import(env.ctx, doc, now)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.TemplatesCreated != 2 || res.CategoriesAdded != 0 {
		t.Errorf("result = %+v", res)
	}
	cats, err := env.months.ListCategories(env.ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 0 {
		t.Errorf("locked month gained %d categories", len(cats))
	}
}

func TestImporter_LinksExistingPlainCategory(t *testing.T) {
	env := newTestEnv(t)
	im := NewImporter(env.catalog, env.months, env.ledger)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	m := env.ensure(t, period(2024, 6))
	plain := env.category(t, m.ID, "Rent", nil)

	doc, err := seed.Parse(strings.NewReader(`
categories:
  - name: House
    recurring:
      - {name: Rent, amount: "675.00"}
`), "yaml")
	if err != nil {
		t.Fatal(err)
	}

	res, err := im.Import(env.ctx, doc, now)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.TemplatesCreated != 1 || res.CategoriesAdded != 0 || res.CategoriesLinked != 1 || res.RecurringSeeded != 1 {
		t.Errorf("result = %+v", res)
	}

	rent := env.categoryByName(t, m.ID, "Rent")
	if rent.ID != plain.ID || rent.TemplateID == nil {
		t.Errorf("Rent = %+v, want the existing category linked to the template", rent)
	}
	recurring, _ := env.totals(t, m.ID)
	if recurring.Cents != 67500 {
		t.Errorf("recurring total = %s, want 675.00", recurring)
	}

	again, err := im.Import(env.ctx, doc, now)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if again.CategoriesLinked != 0 || again.RecurringSeeded != 0 {
		t.Errorf("second import = %+v", again)
	}
}

func TestImporter_NameClashRollsBackMonthChanges(t *testing.T) {
	env := newTestEnv(t)
	im := NewImporter(env.catalog, env.months, env.ledger)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	other := env.template(t, "Flat rent", "500")
	m := env.ensure(t, period(2024, 6))
	env.category(t, m.ID, "Rent", &other)
	seeded, err := env.ledger.SeedRecurring(env.ctx, m.ID)
	if err != nil || seeded != 1 {
		t.Fatalf("SeedRecurring = %d, %v", seeded, err)
	}

	doc, err := seed.Parse(strings.NewReader(`
income: "2000"
categories:
  - name: Food
  - name: House
    recurring:
      - {name: Rent, amount: "675.00"}
`), "yaml")
	if err != nil {
		t.Fatal(err)
	}

	_, err = im.Import(env.ctx, doc, now)
	if !errors.Is(err, core.ErrDuplicateName) {
		t.Fatalf("Import error = %v, want ErrDuplicateName", err)
	}

	l, err := env.ledger.MonthLedger(env.ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := l.CategoryByName("Food"); ok {
		t.Error("Food was added despite the failed import")
	}
	if !l.Budget.Income.IsZero() {
		t.Errorf("income = %s, want unchanged 0", l.Budget.Income)
	}
	recurring, _ := env.totals(t, m.ID)
	if recurring.Cents != 50000 {
		t.Errorf("recurring total = %s, want 500.00", recurring)
	}
}
