// Package ledger implements the transaction engine: deposits, withdrawals and
// transfers executed as atomic units over a store.Store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
	"github.com/cleared-dev/ledgerd/internal/store"
)

// Engine mutates balances and records ledger transactions. It holds no
// account state between calls and is safe for concurrent use.
type Engine struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine over s. A nil logger discards output.
func NewEngine(s store.Store, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{store: s, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Deposit credits amount to the account and returns the IN record.
func (e *Engine) Deposit(ctx context.Context, number string, amount money.Amount) (model.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return e.reject("deposit", err, "account", number, "amount", amount)
	}

	var rec model.Transaction
	err := e.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		rec, err = deposit(ctx, tx, number, amount, e.timestamp())
		return err
	})
	if err != nil {
		return e.reject("deposit", err, "account", number, "amount", amount)
	}

	e.logger.Info("deposit committed", "account", number, "flow", rec.Flow, "amount", rec.Amount)
	return rec, nil
}

// Withdraw debits amount from the account and returns the OUT record. The
// balance never goes below zero.
func (e *Engine) Withdraw(ctx context.Context, number string, amount money.Amount) (model.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return e.reject("withdraw", err, "account", number, "amount", amount)
	}

	var rec model.Transaction
	err := e.store.Atomic(ctx, func(tx store.Tx) error {
		acct, err := tx.GetForUpdate(ctx, number)
		if err != nil {
			return err
		}
		if err := debit(&acct, amount); err != nil {
			return err
		}
		if err := tx.SaveAccount(ctx, acct); err != nil {
			return err
		}
		rec = model.NewWithdraw(acct, amount.Round(), e.timestamp())
		return tx.AppendTransaction(ctx, rec)
	})
	if err != nil {
		return e.reject("withdraw", err, "account", number, "amount", amount)
	}

	e.logger.Info("withdraw committed", "account", number, "flow", rec.Flow, "amount", rec.Amount)
	return rec, nil
}

// Transfer moves amount from sender to receiver and returns the sender's OUT
// record. Both records of the pair are written in the same unit.
func (e *Engine) Transfer(ctx context.Context, sender, receiver string, amount money.Amount) (model.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return e.reject("transfer", err, "sender", sender, "receiver", receiver, "amount", amount)
	}
	if sender == receiver {
		return e.reject("transfer", fmt.Errorf("%w: %s", model.ErrSameAccount, sender),
			"sender", sender, "receiver", receiver, "amount", amount)
	}

	var out model.Transaction
	err := e.store.Atomic(ctx, func(tx store.Tx) error {
		// Lock in ascending number order so opposite transfers cannot deadlock.
		first, second := sender, receiver
		if second < first {
			first, second = second, first
		}
		locked := make(map[string]model.Account, 2)
		for _, number := range []string{first, second} {
			acct, err := tx.GetForUpdate(ctx, number)
			if err != nil {
				return err
			}
			locked[number] = acct
		}

		from, to := locked[sender], locked[receiver]
		if err := debit(&from, amount); err != nil {
			return err
		}
		to.Balance = to.Balance.Add(amount)

		if err := tx.SaveAccount(ctx, from); err != nil {
			return err
		}
		if err := tx.SaveAccount(ctx, to); err != nil {
			return err
		}

		var in model.Transaction
		out, in = model.NewTransferPair(from, to, amount.Round(), e.timestamp())
		if err := tx.AppendTransaction(ctx, out); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, in)
	})
	if err != nil {
		return e.reject("transfer", err, "sender", sender, "receiver", receiver, "amount", amount)
	}

	e.logger.Info("transfer committed",
		"sender", sender, "receiver", receiver, "flow", out.Flow, "amount", out.Amount)
	return out, nil
}

// OpenAccount creates an account under number and, when initial is positive,
// funds it with a deposit in the same unit. Either both happen or neither.
func (e *Engine) OpenAccount(ctx context.Context, number string, initial money.Amount) (model.Account, error) {
	if initial.IsNegative() || !initial.HasValidScale() {
		return model.Account{}, e.rejectAccount(fmt.Errorf("%w: initial balance %s", model.ErrInvalidAmount, initial), number)
	}

	var acct model.Account
	err := e.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		acct, err = tx.CreateAccount(ctx, number)
		if err != nil {
			return err
		}
		if !initial.IsPositive() {
			return nil
		}
		if _, err := deposit(ctx, tx, number, initial, e.timestamp()); err != nil {
			return err
		}
		acct.Balance = acct.Balance.Add(initial).Round()
		return nil
	})
	if err != nil {
		return model.Account{}, e.rejectAccount(err, number)
	}

	e.logger.Info("account opened", "account", number, "balance", acct.Balance)
	return acct, nil
}

// History returns the ledger records owned by the account, oldest first.
func (e *Engine) History(ctx context.Context, number string) ([]model.Transaction, error) {
	if _, err := e.store.FindAccount(ctx, number); err != nil {
		return nil, err
	}
	return e.store.FindTransactions(ctx, number)
}

func deposit(ctx context.Context, tx store.Tx, number string, amount money.Amount, ts time.Time) (model.Transaction, error) {
	acct, err := tx.GetForUpdate(ctx, number)
	if err != nil {
		return model.Transaction{}, err
	}
	acct.Balance = acct.Balance.Add(amount)
	if err := tx.SaveAccount(ctx, acct); err != nil {
		return model.Transaction{}, err
	}
	rec := model.NewDeposit(acct, amount.Round(), ts)
	if err := tx.AppendTransaction(ctx, rec); err != nil {
		return model.Transaction{}, err
	}
	return rec, nil
}

// debit subtracts amount from acct, refusing to go negative.
func debit(acct *model.Account, amount money.Amount) error {
	next := acct.Balance.Sub(amount)
	if next.IsNegative() {
		return fmt.Errorf("%w: account %s has %s, needs %s",
			model.ErrInsufficientFunds, acct.Number, acct.Balance, amount)
	}
	acct.Balance = next
	return nil
}

func validateAmount(amount money.Amount) error {
	if !amount.IsPositive() || !amount.HasValidScale() {
		return fmt.Errorf("%w: got %s", model.ErrInvalidAmount, amount.Decimal())
	}
	return nil
}

func (e *Engine) timestamp() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

// reject logs a failed operation and returns err.
func (e *Engine) reject(op string, err error, attrs ...any) (model.Transaction, error) {
	e.logFailure(op, err, attrs...)
	return model.Transaction{}, err
}

func (e *Engine) rejectAccount(err error, number string) error {
	e.logFailure("open account", err, "account", number)
	return err
}

func (e *Engine) logFailure(op string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	switch {
	case model.IsClientError(err), errors.Is(err, context.Canceled):
		e.logger.Warn(op+" rejected", attrs...)
	default:
		e.logger.Error(op+" failed", attrs...)
	}
}
