package core

import (
	"errors"
	"fmt"
)

var (
	ErrLockedMonth      = errors.New("month is locked")
	ErrForeignCategory  = errors.New("category belongs to a different month")
	ErrNotFound         = errors.New("not found")
	ErrDuplicatePeriod  = errors.New("month already exists for period")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPrecision = errors.New("too many decimal places")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrTextTooLong      = errors.New("text too long (max 200 characters)")
	ErrRequired         = errors.New("required")
	ErrDuplicateName    = errors.New("name already in use")
	ErrInvalidOrder     = errors.New("order must list every category of the month exactly once")
	ErrInvalidTarget    = errors.New("invalid reassignment target")
	ErrTemplateLinked   = errors.New("template already linked to another category of the month")
)

// LockedMonthError is returned for any mutation attempted on a locked month.
type LockedMonthError struct {
	MonthID int64
	Period  Period
}

func (e *LockedMonthError) Error() string {
	return fmt.Sprintf("month %s is locked", e.Period)
}

func (e *LockedMonthError) Unwrap() error { return ErrLockedMonth }

// ForeignCategoryError is returned when a category from another month is
// used where a category of MonthBudgetID is required.
type ForeignCategoryError struct {
	CategoryID    int64
	MonthBudgetID int64
	TargetID      int64
}

func (e *ForeignCategoryError) Error() string {
	return fmt.Sprintf("category %d does not belong to month %d", e.TargetID, e.MonthBudgetID)
}

func (e *ForeignCategoryError) Unwrap() error { return ErrForeignCategory }

// ValidationError names the offending field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsValidation reports whether err carries a ValidationError, returning it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
