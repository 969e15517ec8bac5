package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/ledgerd/internal/money"
)

func TestNewTransferPair(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAccount("1000000000000001", ts)
	b := NewAccount("1000000000000002", ts)

	out, in := NewTransferPair(a, b, money.MustParse("3"), ts)

	assert.Equal(t, FlowOut, out.Flow)
	assert.Equal(t, FlowIn, in.Flow)
	assert.True(t, out.IsTransfer())
	assert.True(t, in.IsTransfer())
	assert.Equal(t, a.Number, out.AccountNumber)
	assert.Equal(t, b.Number, out.CounterpartyNumber)
	assert.Equal(t, b.Number, in.AccountNumber)
	assert.Equal(t, a.Number, in.CounterpartyNumber)
	assert.Equal(t, a.ID, in.CounterpartyID)
	assert.Equal(t, b.ID, out.CounterpartyID)
	assert.True(t, out.Amount.Equal(in.Amount))
	assert.Equal(t, out.Timestamp, in.Timestamp)
	assert.NotEqual(t, out.ID, in.ID)
}

func TestSingleSidedRecords(t *testing.T) {
	ts := time.Now()
	acct := NewAccount("1000000000000001", ts)

	dep := NewDeposit(acct, money.MustParse("5"), ts)
	assert.Equal(t, KindDeposit, dep.Kind)
	assert.Equal(t, FlowIn, dep.Flow)
	assert.Equal(t, uuid.Nil, dep.CounterpartyID)
	assert.Empty(t, dep.CounterpartyNumber)
	assert.False(t, dep.IsTransfer())

	wd := NewWithdraw(acct, money.MustParse("5"), ts)
	assert.Equal(t, KindWithdraw, wd.Kind)
	assert.Equal(t, FlowOut, wd.Flow)
	assert.Equal(t, acct.ID, wd.AccountID)
}

func TestFlowOpposite(t *testing.T) {
	assert.Equal(t, FlowOut, FlowIn.Opposite())
	assert.Equal(t, FlowIn, FlowOut.Opposite())
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrInvalidAmount, true},
		{ErrSameAccount, true},
		{fmt.Errorf("%w: 123", ErrAccountNotFound), true},
		{fmt.Errorf("withdraw: %w", ErrInsufficientFunds), true},
		{ErrDuplicateAccount, true},
		{ErrLockTimeout, false},
		{fmt.Errorf("%w: %w", ErrPersistence, errors.New("disk full")), false},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsClientError(tt.err), "IsClientError(%v)", tt.err)
	}
}
