package models

import "time"

// User is the account directory row backing both the credit ledger and the
// per-user key material. Credits is a materialized view of the transaction
// log, never an independent source of truth.
type User struct {
	ID             int64
	Email          string
	Credits        int64
	EncryptionSalt []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
