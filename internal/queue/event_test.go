package queue

import (
	"encoding/json"
	"jackpoints/internal/models"
	"testing"
)

func TestNewTransactionAppendedEvent(t *testing.T) {
	tx := &models.Transaction{
		ID:          "t1",
		UserID:      "u1",
		UserEmail:   "alice@example.com",
		Amount:      -250,
		Description: "Wheel spin",
		Timestamp:   1700000000000,
		Type:        models.TransactionSpend,
		Metadata:    map[string]any{"wheel": "gold"},
	}

	ev := NewTransactionAppendedEvent(tx)
	if ev.Event != EventTransactionAppended || ev.Type != "spend" || ev.Amount != -250 {
		t.Fatalf("неожиданное событие: %+v", ev)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)
	if decoded["userId"] != "u1" || decoded["event"] != EventTransactionAppended {
		t.Fatalf("неожиданный JSON: %s", body)
	}
}
