package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"budget/internal/core"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMonthCreated  EventType = "month.created"
	EventMonthLocked   EventType = "month.locked"
	EventMonthUnlocked EventType = "month.unlocked"
)

func (t EventType) Valid() bool {
	switch t {
	case EventMonthCreated, EventMonthLocked, EventMonthUnlocked:
		return true
	}
	return false
}

// MonthEvent announces a month lifecycle change. It carries only the month
// identity; consumers read the ledger from the database.
type MonthEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          EventType `json:"type"`
	MonthBudgetID int64     `json:"month_budget_id"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewMonthEvent(t EventType, m core.MonthBudget) *MonthEvent {
	return &MonthEvent{
		ID:            uuid.New(),
		Type:          t,
		MonthBudgetID: m.ID,
		Year:          m.Period.Year,
		Month:         m.Period.Month,
		Timestamp:     time.Now(),
	}
}

func (e *MonthEvent) Period() core.Period {
	return core.Period{Year: e.Year, Month: e.Month}
}

// ToJSON converts the message to JSON bytes
func (e *MonthEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// MonthEventFromJSON decodes and validates a month event.
func MonthEventFromJSON(data []byte) (*MonthEvent, error) {
	var e MonthEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := e.Period().Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
