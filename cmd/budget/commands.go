package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"budget/internal/analytics"
	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/seed"
	"budget/internal/services"

	"github.com/shopspring/decimal"
)

const usage = `usage: budget <command> [flags]

commands:
  import      -file seed.yaml      import the template catalog and the current month
  ensure      [-period YYYY-MM]    create the month, cloning the latest earlier one
  lock        -period YYYY-MM      lock a month against edits
  unlock      -period YYYY-MM      unlock a month
  lock-elapsed                     lock every month before the current one
  income      -period -amount      set the month income
  category    -period -name        add a category
  expense     -period -category -description -amount [-date YYYY-MM-DD]
  convert     -id N -to variable|recurring
  override    -period -category -amount
  summary     [-period YYYY-MM]    month totals and category breakdown
  trend       [-months N]          last N months
  top         [-period] [-k N]     largest expenses of a month
  forecast    [-months N] [-window W]`

var errUsage = errors.New("usage")

type command func(ctx context.Context, app *cli.App, args []string, out io.Writer) error

var commands = map[string]command{
	"import":       cmdImport,
	"ensure":       cmdEnsure,
	"lock":         cmdLock(true),
	"unlock":       cmdLock(false),
	"lock-elapsed": cmdLockElapsed,
	"income":       cmdIncome,
	"category":     cmdCategory,
	"expense":      cmdExpense,
	"convert":      cmdConvert,
	"override":     cmdOverride,
	"summary":      cmdSummary,
	"trend":        cmdTrend,
	"top":          cmdTop,
	"forecast":     cmdForecast,
}

// now is replaced in tests.
var now = time.Now

func run(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return errUsage
	}
	return cmd(ctx, app, args[1:], out)
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// periodFlag parses an optional YYYY-MM flag, defaulting to the current month.
func periodFlag(s string) (core.Period, error) {
	if s == "" {
		return core.PeriodOf(now()), nil
	}
	return core.ParsePeriod(s)
}

// month resolves an existing month by period.
func month(ctx context.Context, app *cli.App, s string) (core.MonthBudget, error) {
	p, err := periodFlag(s)
	if err != nil {
		return core.MonthBudget{}, err
	}
	m, ok, err := app.Months.GetMonthByPeriod(ctx, p)
	if err != nil {
		return core.MonthBudget{}, err
	}
	if !ok {
		return core.MonthBudget{}, fmt.Errorf("month %s: %w", p, core.ErrNotFound)
	}
	return m, nil
}

func category(ctx context.Context, app *cli.App, m core.MonthBudget, name string) (core.MonthCategory, error) {
	ledger, err := app.Ledger.MonthLedger(ctx, m.ID)
	if err != nil {
		return core.MonthCategory{}, err
	}
	c, ok := ledger.CategoryByName(name)
	if !ok {
		return core.MonthCategory{}, fmt.Errorf("category %q in %s: %w", name, m.Period, core.ErrNotFound)
	}
	return c, nil
}

func cmdImport(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("import")
	file := fs.String("file", "", "seed file (yaml, json or toml)")
	if err := fs.Parse(args); err != nil || *file == "" {
		return errUsage
	}
	doc, err := seed.Load(*file)
	if err != nil {
		return err
	}
	res, err := app.Importer.Import(ctx, doc, now())
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"period":            res.Month.Period.String(),
		"templates_created": res.TemplatesCreated,
		"templates_updated": res.TemplatesUpdated,
		"categories_added":  res.CategoriesAdded,
		"categories_linked": res.CategoriesLinked,
		"recurring_seeded":  res.RecurringSeeded,
	})
}

func cmdEnsure(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("ensure")
	period := fs.String("period", "", "YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	p, err := periodFlag(*period)
	if err != nil {
		return err
	}
	m, err := app.Months.EnsureMonth(ctx, p)
	if err != nil {
		return err
	}
	return writeJSON(out, newMonthView(m))
}

func cmdLock(lock bool) command {
	return func(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
		fs := newFlags("lock")
		period := fs.String("period", "", "YYYY-MM")
		if err := fs.Parse(args); err != nil || *period == "" {
			return errUsage
		}
		m, err := month(ctx, app, *period)
		if err != nil {
			return err
		}
		if lock {
			m, err = app.Months.LockMonth(ctx, m.ID)
		} else {
			m, err = app.Months.UnlockMonth(ctx, m.ID)
		}
		if err != nil {
			return err
		}
		return writeJSON(out, newMonthView(m))
	}
}

func cmdLockElapsed(ctx context.Context, app *cli.App, _ []string, out io.Writer) error {
	locked, err := app.Months.LockElapsed(ctx, now())
	if err != nil {
		return err
	}
	views := make([]monthView, 0, len(locked))
	for _, m := range locked {
		views = append(views, newMonthView(m))
	}
	return writeJSON(out, views)
}

func cmdIncome(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("income")
	period := fs.String("period", "", "YYYY-MM")
	amount := fs.String("amount", "", "income")
	if err := fs.Parse(args); err != nil || *amount == "" {
		return errUsage
	}
	d, err := decimal.NewFromString(*amount)
	if err != nil {
		return &core.ValidationError{Field: "income", Err: core.ErrInvalidAmount}
	}
	m, err := month(ctx, app, *period)
	if err != nil {
		return err
	}
	m, err = app.Months.SetIncome(ctx, m.ID, d)
	if err != nil {
		return err
	}
	return writeJSON(out, newMonthView(m))
}

func cmdCategory(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("category")
	period := fs.String("period", "", "YYYY-MM")
	name := fs.String("name", "", "category name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	m, err := month(ctx, app, *period)
	if err != nil {
		return err
	}
	c, err := app.Months.AddCategory(ctx, m.ID, services.CategoryInput{Name: *name, SortOrder: -1})
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"id": c.ID, "name": c.Name, "sort_order": c.SortOrder})
}

func cmdExpense(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("expense")
	period := fs.String("period", "", "YYYY-MM")
	categoryName := fs.String("category", "", "category name")
	description := fs.String("description", "", "description")
	amount := fs.String("amount", "", "amount")
	date := fs.String("date", "", "YYYY-MM-DD")
	notes := fs.String("notes", "", "notes")
	if err := fs.Parse(args); err != nil || *categoryName == "" {
		return errUsage
	}

	money, err := core.ParseAmount(*amount)
	if err != nil {
		return err
	}
	in := services.VariableInput{Description: *description, Amount: money.Decimal(), Notes: *notes}
	if *date != "" {
		t, err := time.Parse("2006-01-02", *date)
		if err != nil {
			return &core.ValidationError{Field: "date", Err: err}
		}
		in.Date = core.Date{Time: t}
	}

	m, err := month(ctx, app, *period)
	if err != nil {
		return err
	}
	c, err := category(ctx, app, m, *categoryName)
	if err != nil {
		return err
	}
	e, err := app.Ledger.AddVariableExpense(ctx, c.ID, in)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"id":          e.ID,
		"category":    c.Name,
		"description": e.Description,
		"amount":      amountString(e.Amount),
		"date":        e.Date.String(),
	})
}

func cmdConvert(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("convert")
	id := fs.Int64("id", 0, "expense id")
	to := fs.String("to", "", "variable or recurring")
	if err := fs.Parse(args); err != nil || *id <= 0 {
		return errUsage
	}
	switch *to {
	case "variable":
		e, err := app.Ledger.ConvertToVariable(ctx, *id)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]any{
			"id":          e.ID,
			"kind":        "variable",
			"description": e.Description,
			"amount":      amountString(e.Amount),
			"date":        e.Date.String(),
		})
	case "recurring":
		e, err := app.Ledger.ConvertToRecurring(ctx, *id)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]any{
			"id":     e.ID,
			"kind":   "recurring",
			"name":   e.Name,
			"amount": amountString(e.Amount),
		})
	default:
		return errUsage
	}
}

func cmdOverride(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("override")
	period := fs.String("period", "", "YYYY-MM")
	categoryName := fs.String("category", "", "category name")
	amount := fs.String("amount", "", "forecast amount")
	if err := fs.Parse(args); err != nil || *categoryName == "" || *amount == "" {
		return errUsage
	}
	d, err := decimal.NewFromString(*amount)
	if err != nil {
		return &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	m, err := month(ctx, app, *period)
	if err != nil {
		return err
	}
	c, err := category(ctx, app, m, *categoryName)
	if err != nil {
		return err
	}
	if err := app.Ledger.SetForecastOverride(ctx, c.ID, d); err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"category": c.Name, "amount": amountString(core.MoneyFromDecimal(d))})
}

func cmdSummary(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("summary")
	period := fs.String("period", "", "YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	m, err := month(ctx, app, *period)
	if err != nil {
		return err
	}
	s, err := app.Reports.Summary(ctx, m.ID)
	if err != nil {
		return err
	}
	return writeJSON(out, newSummaryView(s))
}

func cmdTrend(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("trend")
	months := fs.Int("months", 0, "number of months (0 uses TREND_MONTHS)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	points, err := app.Reports.HistoricalTrend(ctx, *months)
	if err != nil {
		return err
	}
	views := make([]trendView, 0, len(points))
	for _, p := range points {
		views = append(views, trendView{
			Period:    p.Period.String(),
			Income:    amountString(p.Income),
			Recurring: amountString(p.Recurring),
			Variable:  amountString(p.Variable),
			Total:     amountString(p.Total),
			Balance:   amountString(p.Balance),
		})
	}
	return writeJSON(out, views)
}

func cmdTop(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("top")
	period := fs.String("period", "", "YYYY-MM")
	k := fs.Int("k", 5, "number of items")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	m, err := month(ctx, app, *period)
	if err != nil {
		return err
	}
	items, err := app.Reports.TopSpendingItems(ctx, m.ID, *k)
	if err != nil {
		return err
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, itemView{
			Kind:     string(it.Kind),
			Category: it.Category,
			Name:     it.Name,
			Amount:   amountString(it.Amount),
		})
	}
	return writeJSON(out, views)
}

func cmdForecast(ctx context.Context, app *cli.App, args []string, out io.Writer) error {
	fs := newFlags("forecast")
	months := fs.Int("months", 0, "months to project (0 uses FORECAST_HORIZON)")
	window := fs.Int("window", 0, "history window (0 uses FORECAST_WINDOW)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	points, err := app.Reports.Forecast(ctx, *months, *window)
	if err != nil {
		return err
	}
	views := make([]forecastView, 0, len(points))
	for _, p := range points {
		v := forecastView{
			Period:     p.Period.String(),
			Recurring:  amountString(p.Recurring),
			Variable:   amountString(p.Variable),
			Total:      amountString(p.Total),
			Balance:    amountString(p.Balance),
			Categories: map[string]string{},
		}
		for _, c := range p.Categories {
			v.Categories[c.Name] = amountString(c.Amount)
		}
		views = append(views, v)
	}
	return writeJSON(out, views)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func amountString(m core.Money) string {
	return m.Decimal().StringFixed(2)
}

type (
	monthView struct {
		ID     int64  `json:"id"`
		Period string `json:"period"`
		Income string `json:"income"`
		Locked bool   `json:"locked"`
	}

	categoryTotalView struct {
		Name      string `json:"name"`
		Recurring string `json:"recurring"`
		Variable  string `json:"variable"`
		Total     string `json:"total"`
	}

	summaryView struct {
		Period     string              `json:"period"`
		Locked     bool                `json:"locked"`
		Income     string              `json:"income"`
		Recurring  string              `json:"recurring"`
		Variable   string              `json:"variable"`
		Total      string              `json:"total"`
		Balance    string              `json:"balance"`
		Categories []categoryTotalView `json:"categories"`
	}

	trendView struct {
		Period    string `json:"period"`
		Income    string `json:"income"`
		Recurring string `json:"recurring"`
		Variable  string `json:"variable"`
		Total     string `json:"total"`
		Balance   string `json:"balance"`
	}

	itemView struct {
		Kind     string `json:"kind"`
		Category string `json:"category"`
		Name     string `json:"name"`
		Amount   string `json:"amount"`
	}

	forecastView struct {
		Period     string            `json:"period"`
		Recurring  string            `json:"recurring"`
		Variable   string            `json:"variable"`
		Total      string            `json:"total"`
		Balance    string            `json:"balance"`
		Categories map[string]string `json:"categories"`
	}
)

func newMonthView(m core.MonthBudget) monthView {
	return monthView{ID: m.ID, Period: m.Period.String(), Income: amountString(m.Income), Locked: m.Locked}
}

func newSummaryView(s analytics.Summary) summaryView {
	v := summaryView{
		Period:    s.Period.String(),
		Locked:    s.Locked,
		Income:    amountString(s.Income),
		Recurring: amountString(s.Recurring),
		Variable:  amountString(s.Variable),
		Total:     amountString(s.Total),
		Balance:   amountString(s.Balance),
	}
	for _, c := range s.Categories {
		v.Categories = append(v.Categories, categoryTotalView{
			Name:      c.Category.Name,
			Recurring: amountString(c.Recurring),
			Variable:  amountString(c.Variable),
			Total:     amountString(c.Total()),
		})
	}
	return v
}
