package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"budget/internal/core"
)

// BudgetAlertMessage is published when a user's expenses pass their budget.
type BudgetAlertMessage struct {
	Email     string    `json:"email"`
	Budget    float64   `json:"budget"`
	Total     float64   `json:"total_expenses"`
	Remaining float64   `json:"remaining"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBudgetAlertMessage creates a message stamped with the current time
func NewBudgetAlertMessage(alert core.BudgetAlert) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		Email:     alert.Email,
		Budget:    alert.Budget,
		Total:     alert.Total,
		Remaining: alert.Remaining,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Alert returns the domain view of the message
func (m *BudgetAlertMessage) Alert() core.BudgetAlert {
	return core.BudgetAlert{
		Email:     m.Email,
		Budget:    m.Budget,
		Total:     m.Total,
		Remaining: m.Remaining,
	}
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Email == "" {
		return nil, errors.New("budget alert without email")
	}
	return &msg, nil
}
