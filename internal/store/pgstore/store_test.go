package pgstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledgerd/internal/id"
	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
	"github.com/cleared-dev/ledgerd/internal/store"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, model.ErrDuplicateAccount},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, model.ErrLockTimeout},
		{"query canceled", &pgconn.PgError{Code: "57014"}, context.Canceled},
		{"other sqlstate", &pgconn.PgError{Code: "53300"}, model.ErrPersistence},
		{"record not found", gorm.ErrRecordNotFound, model.ErrAccountNotFound},
		{"plain error", errors.New("connection reset"), model.ErrPersistence},
		{"domain error passes", fmt.Errorf("withdraw: %w", model.ErrInsufficientFunds), model.ErrInsufficientFunds},
		{"deadline passes", context.DeadlineExceeded, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(fmt.Errorf("op: %w", tt.err))
			assert.ErrorIs(t, got, tt.want)
		})
	}

	assert.NoError(t, translateError(nil))
}

func TestTranslateError_DomainNotWrappedAsPersistence(t *testing.T) {
	err := translateError(model.ErrSameAccount)
	assert.False(t, errors.Is(err, model.ErrPersistence))
}

func TestTransactionRowConversion(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	sender := model.NewAccount("1000000000000001", ts)
	receiver := model.NewAccount("1000000000000002", ts)
	out, _ := model.NewTransferPair(sender, receiver, money.MustParse("3.333"), ts)

	row := toTransactionRow(out)
	require.NotNil(t, row.CounterpartyID)
	assert.Equal(t, receiver.ID, *row.CounterpartyID)
	assert.Equal(t, "3.33", row.Amount.String())

	row.Counterparty = &accountRow{ID: receiver.ID, AccountNumber: receiver.Number}
	got := row.toModel(sender.Number)
	assert.Equal(t, receiver.Number, got.CounterpartyNumber)
	assert.Equal(t, model.FlowOut, got.Flow)

	dep := toTransactionRow(model.NewDeposit(sender, money.MustParse("1"), ts))
	assert.Nil(t, dep.CounterpartyID)
}

// openTestStore connects to LEDGERD_TEST_POSTGRES_DSN or skips.
func openTestStore(t *testing.T, lockTimeout time.Duration) *Store {
	t.Helper()
	dsn := os.Getenv("LEDGERD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LEDGERD_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(dsn, Options{LockTimeout: lockTimeout, MaxOpenConns: 8})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestIntegration_CreateLockAndHistory(t *testing.T) {
	s := openTestStore(t, 200*time.Millisecond)
	ctx := context.Background()
	gen := id.UUIDGenerator(id.DefaultAccountNumberLength)
	numA, numB := gen(), gen()

	err := s.Atomic(ctx, func(tx store.Tx) error {
		a, err := tx.CreateAccount(ctx, numA)
		if err != nil {
			return err
		}
		if _, err := tx.CreateAccount(ctx, numB); err != nil {
			return err
		}
		amt := money.MustParse("10")
		a.Balance = a.Balance.Add(amt)
		if err := tx.SaveAccount(ctx, a); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, model.NewDeposit(a, amt, time.Now()))
	})
	require.NoError(t, err)

	err = s.Atomic(ctx, func(tx store.Tx) error {
		_, err := tx.CreateAccount(ctx, numA)
		return err
	})
	assert.ErrorIs(t, err, model.ErrDuplicateAccount)

	err = s.Atomic(ctx, func(tx store.Tx) error {
		a, err := tx.GetForUpdate(ctx, numA)
		if err != nil {
			return err
		}
		b, err := tx.GetForUpdate(ctx, numB)
		if err != nil {
			return err
		}
		amt := money.MustParse("2.50")
		a.Balance = a.Balance.Sub(amt)
		b.Balance = b.Balance.Add(amt)
		if err := tx.SaveAccount(ctx, a); err != nil {
			return err
		}
		if err := tx.SaveAccount(ctx, b); err != nil {
			return err
		}
		out, in := model.NewTransferPair(a, b, amt, time.Now())
		if err := tx.AppendTransaction(ctx, out); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, in)
	})
	require.NoError(t, err)

	a, err := s.FindAccount(ctx, numA)
	require.NoError(t, err)
	assert.Equal(t, "7.50", a.Balance.String())

	hist, err := s.FindTransactions(ctx, numB)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, numA, hist[0].CounterpartyNumber)

	_, err = s.FindAccount(ctx, "0000000000000000")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)

	// A second unit waiting on a held row lock gives up with ErrLockTimeout.
	locked := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan error, 1)
	go func() {
		holderDone <- s.Atomic(ctx, func(tx store.Tx) error {
			if _, err := tx.GetForUpdate(ctx, numA); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	err = s.Atomic(ctx, func(tx store.Tx) error {
		_, err := tx.GetForUpdate(ctx, numA)
		return err
	})
	assert.ErrorIs(t, err, model.ErrLockTimeout)

	close(release)
	require.NoError(t, <-holderDone)
}
