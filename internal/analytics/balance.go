// Package analytics aggregates month ledgers into totals, trends and
// forecasts. Every function here is pure: it reads core.MonthLedger values
// and never touches storage.
package analytics

import (
	"sort"
	"time"

	"budget/internal/core"
)

type (
	// CategoryTotal is one row of a category breakdown.
	CategoryTotal struct {
		Category  core.MonthCategory
		Recurring core.Money
		Variable  core.Money
	}

	Summary struct {
		Period     core.Period
		Locked     bool
		Income     core.Money
		Recurring  core.Money
		Variable   core.Money
		Total      core.Money
		Balance    core.Money
		Categories []CategoryTotal
	}

	TrendPoint struct {
		Period    core.Period
		Income    core.Money
		Recurring core.Money
		Variable  core.Money
		Total     core.Money
		Balance   core.Money
	}

	ItemKind string

	// SpendingItem is a recurring or variable expense row, ranked by amount.
	SpendingItem struct {
		Kind       ItemKind
		ID         int64
		CategoryID int64
		Category   string
		Name       string
		Amount     core.Money
		CreatedAt  time.Time
	}
)

const (
	KindRecurring ItemKind = "recurring"
	KindVariable  ItemKind = "variable"
)

func (c CategoryTotal) Total() core.Money {
	return c.Recurring.Add(c.Variable)
}

// TotalRecurring sums enabled recurring expenses.
func TotalRecurring(l core.MonthLedger) core.Money {
	var total core.Money
	for _, r := range l.Recurring {
		if r.Enabled {
			total = total.Add(r.Amount)
		}
	}
	return total
}

func TotalVariable(l core.MonthLedger) core.Money {
	var total core.Money
	for _, v := range l.Variable {
		total = total.Add(v.Amount)
	}
	return total
}

// CategoryBreakdown returns one entry per category in display order. Disabled
// recurring items are excluded, as in TotalRecurring.
func CategoryBreakdown(l core.MonthLedger) []CategoryTotal {
	idx := make(map[int64]int, len(l.Categories))
	out := make([]CategoryTotal, len(l.Categories))
	for i, c := range l.Categories {
		idx[c.ID] = i
		out[i] = CategoryTotal{Category: c}
	}
	for _, r := range l.Recurring {
		if i, ok := idx[r.CategoryID]; ok && r.Enabled {
			out[i].Recurring = out[i].Recurring.Add(r.Amount)
		}
	}
	for _, v := range l.Variable {
		if i, ok := idx[v.CategoryID]; ok {
			out[i].Variable = out[i].Variable.Add(v.Amount)
		}
	}
	return out
}

// RemainingBalance is income minus recurring and variable spend. It may be
// negative.
func RemainingBalance(l core.MonthLedger) core.Money {
	return l.Budget.Income.Sub(TotalRecurring(l)).Sub(TotalVariable(l))
}

func Summarize(l core.MonthLedger) Summary {
	rec, vr := TotalRecurring(l), TotalVariable(l)
	return Summary{
		Period:     l.Budget.Period,
		Locked:     l.Budget.Locked,
		Income:     l.Budget.Income,
		Recurring:  rec,
		Variable:   vr,
		Total:      rec.Add(vr),
		Balance:    l.Budget.Income.Sub(rec).Sub(vr),
		Categories: CategoryBreakdown(l),
	}
}

// HistoricalTrend returns a point for each of the n most recent ledgers,
// oldest first. Months without a budget are simply absent; no zero filling.
func HistoricalTrend(ledgers []core.MonthLedger, n int) []TrendPoint {
	sorted := sortedByPeriod(ledgers)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	out := make([]TrendPoint, 0, len(sorted))
	for _, l := range sorted {
		s := Summarize(l)
		out = append(out, TrendPoint{
			Period:    s.Period,
			Income:    s.Income,
			Recurring: s.Recurring,
			Variable:  s.Variable,
			Total:     s.Total,
			Balance:   s.Balance,
		})
	}
	return out
}

// TopSpendingItems pools enabled recurring and all variable expenses and
// returns the k largest. Ties go to the earlier category in display order,
// then to the row created first.
func TopSpendingItems(l core.MonthLedger, k int) []SpendingItem {
	order := make(map[int64]int, len(l.Categories))
	names := make(map[int64]string, len(l.Categories))
	for i, c := range l.Categories {
		order[c.ID] = i
		names[c.ID] = c.Name
	}

	items := make([]SpendingItem, 0, len(l.Recurring)+len(l.Variable))
	for _, r := range l.Recurring {
		if !r.Enabled {
			continue
		}
		items = append(items, SpendingItem{
			Kind: KindRecurring, ID: r.ID, CategoryID: r.CategoryID,
			Category: names[r.CategoryID], Name: r.Name, Amount: r.Amount, CreatedAt: r.CreatedAt,
		})
	}
	for _, v := range l.Variable {
		items = append(items, SpendingItem{
			Kind: KindVariable, ID: v.ID, CategoryID: v.CategoryID,
			Category: names[v.CategoryID], Name: v.Description, Amount: v.Amount, CreatedAt: v.CreatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		if order[a.CategoryID] != order[b.CategoryID] {
			return order[a.CategoryID] < order[b.CategoryID]
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Kind != b.Kind {
			return a.Kind == KindRecurring
		}
		return a.ID < b.ID
	})

	if k >= 0 && len(items) > k {
		items = items[:k]
	}
	return items
}

func sortedByPeriod(ledgers []core.MonthLedger) []core.MonthLedger {
	out := make([]core.MonthLedger, len(ledgers))
	copy(out, ledgers)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Budget.Period.Before(out[j].Budget.Period)
	})
	return out
}
