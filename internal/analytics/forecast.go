package analytics

import "budget/internal/core"

// Strategy projects one amount from a history of observations, oldest first.
// Only months that have a budget contribute an observation.
type Strategy interface {
	Compute(history []core.Money) core.Money
}

type (
	CategoryForecast struct {
		Name       string
		Amount     core.Money
		Overridden bool
		History    []core.Money
	}

	ForecastPoint struct {
		Period     core.Period
		Recurring  core.Money
		Variable   core.Money
		Total      core.Money
		Income     core.Money
		Balance    core.Money
		Categories []CategoryForecast
	}
)

// VariableByName returns the variable total of the category with the given
// name. A month without such a category reports zero.
func VariableByName(l core.MonthLedger, name string) core.Money {
	c, ok := l.CategoryByName(name)
	if !ok {
		return core.Money{}
	}
	var total core.Money
	for _, v := range l.Variable {
		if v.CategoryID == c.ID {
			total = total.Add(v.Amount)
		}
	}
	return total
}

// Forecast projects the n periods following latest.
//
// The recurring component is latest's enabled recurring total. Each of
// latest's categories contributes s.Compute over its variable totals in the
// window ledgers, matched by name. Ledgers outside the W calendar months
// ending at latest are ignored; the caller is expected to pass only months
// that exist. A forecast override on latest replaces the computed component.
//
// Every period is computed from the same window, so forecasts never feed
// back into later periods.
func Forecast(latest core.MonthLedger, window []core.MonthLedger, w, n int, s Strategy) []ForecastPoint {
	if n <= 0 {
		return nil
	}
	if w < 1 {
		w = 1
	}

	end := latest.Budget.Period
	start := end.AddMonths(-(w - 1))
	history := make([]core.MonthLedger, 0, len(window)+1)
	seenLatest := false
	for _, l := range sortedByPeriod(window) {
		p := l.Budget.Period
		if p.Before(start) || end.Before(p) {
			continue
		}
		if p == end {
			if seenLatest {
				continue
			}
			seenLatest = true
			l = latest
		}
		history = append(history, l)
	}
	if !seenLatest {
		history = append(history, latest)
	}

	recurring := TotalRecurring(latest)
	var variable core.Money
	categories := make([]CategoryForecast, 0, len(latest.Categories))
	for _, c := range latest.Categories {
		cf := CategoryForecast{Name: c.Name}
		for _, l := range history {
			cf.History = append(cf.History, VariableByName(l, c.Name))
		}
		if amount, ok := latest.Override(c.ID); ok {
			cf.Amount, cf.Overridden = amount, true
		} else {
			cf.Amount = s.Compute(cf.History)
		}
		variable = variable.Add(cf.Amount)
		categories = append(categories, cf)
	}

	total := recurring.Add(variable)
	income := latest.Budget.Income
	out := make([]ForecastPoint, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, ForecastPoint{
			Period:     end.AddMonths(i),
			Recurring:  recurring,
			Variable:   variable,
			Total:      total,
			Income:     income,
			Balance:    income.Sub(total),
			Categories: categories,
		})
	}
	return out
}
