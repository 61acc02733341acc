package core

import (
	"fmt"
	"strings"
	"time"
)

type (
	// Period identifies a calendar month.
	Period struct {
		Year  int
		Month int // 1-12
	}

	Money struct {
		Cents int64
	}

	// CategoryTemplate is a global catalog entry for a recurring item.
	// Month snapshots keep their own copies; editing or deleting a template
	// never touches existing months.
	CategoryTemplate struct {
		ID            int64
		Name          string
		Label         string // Grouping label (e.g. "House Expenses")
		DefaultAmount Money
		SortOrder     int
		Active        bool
		Notes         string
		DeletedAt     time.Time
	}

	MonthBudget struct {
		ID        int64
		Period    Period
		Income    Money
		Locked    bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	MonthCategory struct {
		ID            int64
		MonthBudgetID int64
		Name          string
		SortOrder     int
		TemplateID    *int64 // Link back to the catalog for recurring seeding
	}

	RecurringExpense struct {
		ID            int64
		MonthBudgetID int64
		CategoryID    int64
		TemplateID    *int64
		Name          string
		Amount        Money
		Enabled       bool
		Notes         string
		CreatedAt     time.Time
	}

	VariableExpense struct {
		ID            int64
		MonthBudgetID int64
		CategoryID    int64
		Description   string
		Amount        Money
		Date          Date
		Notes         string
		CreatedAt     time.Time
	}

	// ForecastOverride replaces the computed variable component of one
	// category when forecasting from the month that owns it.
	ForecastOverride struct {
		MonthBudgetID int64
		CategoryID    int64
		Amount        Money
	}

	Date struct {
		time.Time
	}
)

const maxTextLength = 200

// NewPeriod builds a period, validating the month.
func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// ParsePeriod parses the "YYYY-MM" form.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Period{}, &ValidationError{Field: "period", Err: ErrInvalidMonth}
	}
	return PeriodOf(t), nil
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return &ValidationError{Field: "month", Err: ErrInvalidMonth}
	}
	if p.Year < 1 || p.Year > 9999 {
		return &ValidationError{Field: "year", Err: ErrInvalidYear}
	}
	return nil
}

// FirstDay returns midnight UTC of the first day of the period.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the period.
func (p Period) End() time.Time {
	return p.AddMonths(1).FirstDay()
}

func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.FirstDay().AddDate(0, n, 0))
}

func (p Period) Next() Period {
	return p.AddMonths(1)
}

func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.FirstDay()) && t.Before(p.End())
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m MonthBudget) CheckUnlocked() error {
	if m.Locked {
		return &LockedMonthError{MonthID: m.ID, Period: m.Period}
	}
	return nil
}

// HasTemplate reports whether the category is linked to the given template.
func (c MonthCategory) HasTemplate(id int64) bool {
	return c.TemplateID != nil && *c.TemplateID == id
}

func (t CategoryTemplate) Deleted() bool {
	return !t.DeletedAt.IsZero()
}

// ValidateName trims and validates a required short text field.
func ValidateName(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		if field == "description" {
			return "", &ValidationError{Field: field, Err: ErrEmptyDescription}
		}
		return "", &ValidationError{Field: field, Err: ErrEmptyName}
	}
	if len(v) > maxTextLength {
		return "", &ValidationError{Field: field, Err: ErrTextTooLong}
	}
	return v, nil
}
