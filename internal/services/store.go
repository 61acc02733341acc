// Package services implements the budget operations on top of storage:
// month snapshots, the expense ledger, the template catalog, reports and
// forecasts.
package services

import (
	"context"
	"log/slog"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/storage"
)

// Store is the persistence the services need. *storage.SQLiteRepository
// implements it.
type Store interface {
	Queries() *storage.Queries
	InTx(ctx context.Context, fn func(q *storage.Queries) error) error
}

// EventPublisher is implemented by *amqp.Client.
type EventPublisher interface {
	PublishMonthEvent(ctx context.Context, ev *amqp.MonthEvent) error
}

// publishMonthEvent is best-effort: the month change is already committed, so
// a broker failure is logged and never returned.
func publishMonthEvent(ctx context.Context, p EventPublisher, t amqp.EventType, m core.MonthBudget) {
	if p == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping month event", "type", t)
		return
	}
	if err := p.PublishMonthEvent(ctx, amqp.NewMonthEvent(t, m)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish month event",
			"type", t,
			"period", m.Period.String(),
			"error", err)
	}
}

// unlockedMonth loads a month and fails if it is locked.
func unlockedMonth(ctx context.Context, q *storage.Queries, monthID int64) (core.MonthBudget, error) {
	m, err := q.GetMonthBudget(ctx, monthID)
	if err != nil {
		return core.MonthBudget{}, err
	}
	if err := m.CheckUnlocked(); err != nil {
		return core.MonthBudget{}, err
	}
	return m, nil
}

// unlockedCategory loads a category and its month, failing if the month is
// locked.
func unlockedCategory(ctx context.Context, q *storage.Queries, categoryID int64) (core.MonthCategory, core.MonthBudget, error) {
	c, err := q.GetCategory(ctx, categoryID)
	if err != nil {
		return core.MonthCategory{}, core.MonthBudget{}, err
	}
	m, err := unlockedMonth(ctx, q, c.MonthBudgetID)
	if err != nil {
		return core.MonthCategory{}, core.MonthBudget{}, err
	}
	return c, m, nil
}

// sameMonthCategory loads targetID and checks that it belongs to monthID.
func sameMonthCategory(ctx context.Context, q *storage.Queries, monthID, fromID, targetID int64) (core.MonthCategory, error) {
	target, err := q.GetCategory(ctx, targetID)
	if err != nil {
		return core.MonthCategory{}, err
	}
	if target.MonthBudgetID != monthID {
		return core.MonthCategory{}, &core.ForeignCategoryError{
			CategoryID:    fromID,
			MonthBudgetID: monthID,
			TargetID:      targetID,
		}
	}
	return target, nil
}
