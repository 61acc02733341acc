package core

// MonthLedger is the read model of one month: the budget row, its ordered
// categories and every expense recorded against them.
type MonthLedger struct {
	Budget     MonthBudget
	Categories []MonthCategory // ordered by SortOrder, Name
	Recurring  []RecurringExpense
	Variable   []VariableExpense
	Overrides  []ForecastOverride
}

// Category returns the category with the given id.
func (l MonthLedger) Category(id int64) (MonthCategory, bool) {
	for _, c := range l.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return MonthCategory{}, false
}

// CategoryByName returns the category with the given name.
func (l MonthLedger) CategoryByName(name string) (MonthCategory, bool) {
	for _, c := range l.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return MonthCategory{}, false
}

// Override returns the forecast override for a category, if any.
func (l MonthLedger) Override(categoryID int64) (Money, bool) {
	for _, o := range l.Overrides {
		if o.CategoryID == categoryID {
			return o.Amount, true
		}
	}
	return Money{}, false
}
