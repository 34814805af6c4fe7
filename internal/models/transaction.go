package models

type TransactionType string

const (
	TransactionEarn  TransactionType = "earn"
	TransactionSpend TransactionType = "spend"
	TransactionBonus TransactionType = "bonus"
	TransactionEvent TransactionType = "event"
	TransactionAdmin TransactionType = "admin"
)

// Transaction: запись леджера JackPoints. Timestamp в миллисекундах Unix.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	UserEmail   string          `json:"userEmail"`
	UserName    *string         `json:"userName,omitempty"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	Timestamp   int64           `json:"timestamp"`
	Type        TransactionType `json:"type"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// NewTransaction: входные данные для добавления. Указатели отличают
// «не передано» от нулевого значения.
type NewTransaction struct {
	ID          string          `json:"id,omitempty" validate:"omitempty,max=128"`
	UserID      string          `json:"userId" validate:"required"`
	UserEmail   string          `json:"userEmail" validate:"required"`
	UserName    *string         `json:"userName,omitempty"`
	Amount      *int64          `json:"amount" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Timestamp   *int64          `json:"timestamp,omitempty" validate:"omitempty,gt=0"`
	Type        TransactionType `json:"type" validate:"required,oneof=earn spend bonus event admin"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

type TransactionFilter struct {
	UserID string
	Type   TransactionType
	Page   int
	Limit  int
}

type PageMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

type TransactionPage struct {
	Transactions []*Transaction `json:"transactions"`
	Meta         PageMeta       `json:"meta"`
}

type BatchResult struct {
	InsertedCount int `json:"insertedCount"`
	ErrorCount    int `json:"errorCount"`
}
