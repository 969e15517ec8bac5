// Package store defines the account store and transaction ledger contract
// shared by the storage backends.
package store

import (
	"context"

	"github.com/cleared-dev/ledgerd/internal/model"
)

// Store holds accounts and the append-only transaction ledger.
type Store interface {
	// Atomic runs fn as one atomic unit. Locks taken through tx are held until
	// fn returns; if fn returns an error nothing it wrote is kept.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	// FindAccount is a non-locking read of the last committed state.
	FindAccount(ctx context.Context, number string) (model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	// FindTransactions returns the records owned by an account, oldest first.
	FindTransactions(ctx context.Context, number string) ([]model.Transaction, error)

	Ping(ctx context.Context) error
	Close() error
}

// Tx is the view of the store inside an atomic unit.
type Tx interface {
	// CreateAccount inserts a zero-balance account, locked by this unit.
	CreateAccount(ctx context.Context, number string) (model.Account, error)

	// GetForUpdate locks the account until the unit ends and returns its
	// current state. It fails with model.ErrLockTimeout when the lock is not
	// acquired within the store's bound and model.ErrAccountNotFound when the
	// account does not exist.
	GetForUpdate(ctx context.Context, number string) (model.Account, error)

	// SaveAccount writes a new balance for an account locked by this unit.
	SaveAccount(ctx context.Context, acct model.Account) error

	// AppendTransaction adds one immutable ledger record.
	AppendTransaction(ctx context.Context, t model.Transaction) error
}
