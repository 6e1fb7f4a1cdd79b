package models

import "time"

// Transaction kinds. The ledger is append-only: rows are never updated or
// deleted, so the log doubles as an audit trail.
const (
	TransactionKindPurchase = "purchase"
	TransactionKindUsage    = "usage"
	TransactionKindRefund   = "refund"
)

// CreditTransaction is one signed movement on a user's credit balance.
// Debits carry a negative amount, purchases and refunds a positive one.
type CreditTransaction struct {
	ID          int64
	UserID      int64
	Amount      int64
	Kind        string
	Description string
	ExternalRef string
	CreatedAt   time.Time
}
