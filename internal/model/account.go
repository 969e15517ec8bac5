package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/ledgerd/internal/money"
)

// Account is a bank account and its current balance.
type Account struct {
	ID        uuid.UUID
	Number    string // business-facing account number, immutable once assigned
	Balance   money.Amount
	CreatedAt time.Time
}

// NewAccount returns an unfunded account with a fresh ID.
func NewAccount(number string, createdAt time.Time) Account {
	return Account{
		ID:        uuid.New(),
		Number:    number,
		Balance:   money.Zero,
		CreatedAt: createdAt,
	}
}
