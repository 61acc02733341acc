package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPeriodValidate(t *testing.T) {
	cases := []struct {
		p  Period
		ok bool
	}{
		{Period{2025, 1}, true},
		{Period{2025, 12}, true},
		{Period{2025, 0}, false},
		{Period{2025, 13}, false},
		{Period{0, 5}, false},
	}
	for i, tc := range cases {
		err := tc.p.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPeriodArithmetic(t *testing.T) {
	p := Period{2024, 12}
	if got := p.Next(); got != (Period{2025, 1}) {
		t.Fatalf("Next() = %v", got)
	}
	if got := p.AddMonths(-12); got != (Period{2023, 12}) {
		t.Fatalf("AddMonths(-12) = %v", got)
	}
	if !(Period{2024, 1}).Before(Period{2024, 2}) || (Period{2025, 1}).Before(Period{2024, 12}) {
		t.Fatal("Before ordering is wrong")
	}
	if !p.Contains(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)) || p.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("Contains boundary is wrong")
	}
	if p.String() != "2024-12" {
		t.Fatalf("String() = %q", p.String())
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2024-03")
	if err != nil || p != (Period{2024, 3}) {
		t.Fatalf("ParsePeriod = %v, %v", p, err)
	}
	if _, err := ParsePeriod("2024/03"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestCheckUnlocked(t *testing.T) {
	mb := MonthBudget{ID: 7, Period: Period{2024, 1}, Locked: true}
	err := mb.CheckUnlocked()
	var le *LockedMonthError
	if !errors.As(err, &le) || le.MonthID != 7 || !errors.Is(err, ErrLockedMonth) {
		t.Fatalf("expected LockedMonthError, got %v", err)
	}
	mb.Locked = false
	if err := mb.CheckUnlocked(); err != nil {
		t.Fatalf("unexpected %v", err)
	}
}

func TestValidateName(t *testing.T) {
	if v, err := ValidateName("name", "  Rent "); err != nil || v != "Rent" {
		t.Fatalf("got %q %v", v, err)
	}
	if _, err := ValidateName("description", " "); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if _, err := ValidateName("name", ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := ValidateName("name", strings.Repeat("x", 201)); !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
}
