// Package queue публикует события леджера в RabbitMQ.
package queue

import "jackpoints/internal/models"

const EventTransactionAppended = "ledger.transaction.appended"

// TransactionAppendedEvent уходит после каждой успешно сохранённой транзакции.
type TransactionAppendedEvent struct {
	Event       string         `json:"event"`
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	UserEmail   string         `json:"userEmail"`
	Amount      int64          `json:"amount"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Timestamp   int64          `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewTransactionAppendedEvent(tx *models.Transaction) TransactionAppendedEvent {
	return TransactionAppendedEvent{
		Event:       EventTransactionAppended,
		ID:          tx.ID,
		UserID:      tx.UserID,
		UserEmail:   tx.UserEmail,
		Amount:      tx.Amount,
		Type:        string(tx.Type),
		Description: tx.Description,
		Timestamp:   tx.Timestamp,
		Metadata:    tx.Metadata,
	}
}
