package pgstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
)

type accountRow struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey"`
	AccountNumber string       `gorm:"size:38;not null;uniqueIndex"`
	Balance       money.Amount `gorm:"type:numeric(20,2);not null"`
	CreatedAt     time.Time    `gorm:"not null"`
}

func (accountRow) TableName() string { return "bank_account" }

type transactionRow struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Kind           string       `gorm:"size:16;not null"`
	Flow           string       `gorm:"size:3;not null"`
	AccountID      uuid.UUID    `gorm:"type:uuid;not null;index"`
	Account        accountRow   `gorm:"foreignKey:AccountID"`
	CounterpartyID *uuid.UUID   `gorm:"type:uuid"`
	Counterparty   *accountRow  `gorm:"foreignKey:CounterpartyID"`
	Amount         money.Amount `gorm:"type:numeric(20,2);not null"`
	Timestamp      time.Time    `gorm:"not null"`
}

func (transactionRow) TableName() string { return "bank_transaction" }

func toAccountRow(a model.Account) accountRow {
	return accountRow{
		ID:            a.ID,
		AccountNumber: a.Number,
		Balance:       a.Balance.Round(),
		CreatedAt:     a.CreatedAt,
	}
}

func (r accountRow) toModel() model.Account {
	return model.Account{
		ID:        r.ID,
		Number:    r.AccountNumber,
		Balance:   r.Balance,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func toTransactionRow(t model.Transaction) transactionRow {
	row := transactionRow{
		ID:        t.ID,
		Kind:      string(t.Kind),
		Flow:      string(t.Flow),
		AccountID: t.AccountID,
		Amount:    t.Amount.Round(),
		Timestamp: t.Timestamp,
	}
	if t.CounterpartyID != uuid.Nil {
		id := t.CounterpartyID
		row.CounterpartyID = &id
	}
	return row
}

// toModel converts a row owned by number. Counterparty must be preloaded for
// transfers to carry the counterparty number.
func (r transactionRow) toModel(number string) model.Transaction {
	t := model.Transaction{
		ID:            r.ID,
		Kind:          model.Kind(r.Kind),
		Flow:          model.Flow(r.Flow),
		AccountID:     r.AccountID,
		AccountNumber: number,
		Amount:        r.Amount,
		Timestamp:     r.Timestamp.UTC(),
	}
	if r.CounterpartyID != nil {
		t.CounterpartyID = *r.CounterpartyID
	}
	if r.Counterparty != nil {
		t.CounterpartyNumber = r.Counterparty.AccountNumber
	}
	return t
}
