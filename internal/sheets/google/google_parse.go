package google

import (
	"fmt"
	"strings"

	"budget/internal/analytics"
	"budget/internal/core"
)

const lastColumn = "H"

func headerRow() []any {
	return []any{"Period", "Income", "Recurring", "Variable", "Total", "Balance", "Locked", "Categories"}
}

// summaryRow lays out one month. Amounts are numbers so the sheet can sum
// them; the category breakdown is a single "Name=amount; ..." cell.
func summaryRow(s analytics.Summary) []any {
	locked := "no"
	if s.Locked {
		locked = "yes"
	}
	return []any{
		s.Period.String(),
		amount(s.Income),
		amount(s.Recurring),
		amount(s.Variable),
		amount(s.Total),
		amount(s.Balance),
		locked,
		formatBreakdown(s.Categories),
	}
}

func amount(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}

func formatBreakdown(cats []analytics.CategoryTotal) string {
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s=%s", c.Category.Name, c.Total()))
	}
	return strings.Join(parts, "; ")
}

// findPeriodRow returns the 1-based sheet row whose key is p.
func findPeriodRow(keys []string, p core.Period) (int, bool) {
	for i, k := range keys {
		if got, ok := parsePeriodCell(k); ok && got == p {
			return i + 1, true
		}
	}
	return 0, false
}

func parsePeriodCell(s string) (core.Period, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Period{}, false
	}
	p, err := core.ParsePeriod(s)
	if err != nil {
		return core.Period{}, false
	}
	return p, true
}
