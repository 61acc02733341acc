package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"budget/internal/analytics"
	"budget/internal/core"
	"budget/internal/sheets"
)

var (
	_ sheets.ReportWriter = (*Store)(nil)
	_ sheets.ExportIndex  = (*Store)(nil)
)

// Store keeps exported summaries in memory, one per period.
type Store struct {
	mu     sync.Mutex
	rows   map[core.Period]analytics.Summary
	writes int
}

func New() *Store {
	return &Store{rows: make(map[core.Period]analytics.Summary)}
}

// WriteMonthSummary stores s and returns a synthetic row reference.
func (s *Store) WriteMonthSummary(_ context.Context, sum analytics.Summary) (string, error) {
	if err := sum.Period.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sum.Period] = sum
	s.writes++
	return fmt.Sprintf("mem:%s", sum.Period), nil
}

// ExportedPeriods returns stored periods, oldest first.
func (s *Store) ExportedPeriods(_ context.Context) ([]core.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Period, 0, len(s.rows))
	for p := range s.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Summary returns the stored summary for p.
func (s *Store) Summary(p core.Period) (analytics.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.rows[p]
	return sum, ok
}

// Writes counts every WriteMonthSummary call, including overwrites.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
