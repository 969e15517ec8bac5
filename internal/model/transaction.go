package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/ledgerd/internal/money"
)

// Kind identifies which operation produced a ledger record.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
	KindTransfer Kind = "transfer"
)

// Flow is the direction of money relative to the owning account.
type Flow string

const (
	FlowIn  Flow = "IN"
	FlowOut Flow = "OUT"
)

// Opposite returns the other direction.
func (f Flow) Opposite() Flow {
	if f == FlowIn {
		return FlowOut
	}
	return FlowIn
}

// Transaction is one immutable ledger record. Transfers are written as two
// records, one per side, each naming the other account as counterparty.
type Transaction struct {
	ID                 uuid.UUID
	Kind               Kind
	Flow               Flow
	AccountID          uuid.UUID
	AccountNumber      string
	CounterpartyID     uuid.UUID // uuid.Nil unless Kind == KindTransfer
	CounterpartyNumber string
	Amount             money.Amount
	Timestamp          time.Time
}

// IsTransfer reports whether the record is one half of a transfer.
func (t Transaction) IsTransfer() bool {
	return t.Kind == KindTransfer
}

// NewDeposit builds the IN record for a deposit into acct.
func NewDeposit(acct Account, amount money.Amount, ts time.Time) Transaction {
	return Transaction{
		ID:            uuid.New(),
		Kind:          KindDeposit,
		Flow:          FlowIn,
		AccountID:     acct.ID,
		AccountNumber: acct.Number,
		Amount:        amount,
		Timestamp:     ts,
	}
}

// NewWithdraw builds the OUT record for a withdrawal from acct.
func NewWithdraw(acct Account, amount money.Amount, ts time.Time) Transaction {
	return Transaction{
		ID:            uuid.New(),
		Kind:          KindWithdraw,
		Flow:          FlowOut,
		AccountID:     acct.ID,
		AccountNumber: acct.Number,
		Amount:        amount,
		Timestamp:     ts,
	}
}

// NewTransferPair builds the sender's OUT record and the receiver's IN record
// for one transfer. Both share amount and timestamp.
func NewTransferPair(sender, receiver Account, amount money.Amount, ts time.Time) (out, in Transaction) {
	out = Transaction{
		ID:                 uuid.New(),
		Kind:               KindTransfer,
		Flow:               FlowOut,
		AccountID:          sender.ID,
		AccountNumber:      sender.Number,
		CounterpartyID:     receiver.ID,
		CounterpartyNumber: receiver.Number,
		Amount:             amount,
		Timestamp:          ts,
	}
	in = Transaction{
		ID:                 uuid.New(),
		Kind:               KindTransfer,
		Flow:               FlowIn,
		AccountID:          receiver.ID,
		AccountNumber:      receiver.Number,
		CounterpartyID:     sender.ID,
		CounterpartyNumber: sender.Number,
		Amount:             amount,
		Timestamp:          ts,
	}
	return out, in
}
