// Package memstore is an in-process implementation of store.Store. Accounts
// are locked with per-account semaphores. With a data directory the ledger is
// also kept as append-only CSV files and replayed on open.
package memstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/store"
)

// DefaultLockTimeout bounds how long GetForUpdate waits for an account lock.
const DefaultLockTimeout = 3 * time.Second

var _ store.Store = (*Store)(nil)

// Options configures a Store.
type Options struct {
	Dir         string // empty keeps everything in memory
	LockTimeout time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// Store keeps committed accounts and ledger records in maps guarded by mu.
// Account locks live in locks and are independent of mu.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
	ledger   map[string][]model.Transaction
	reserved map[string]struct{} // numbers created by units still in flight

	locks       *lockTable
	lockTimeout time.Duration
	dir         string
	logger      *slog.Logger
	now         func() time.Time
}

// Open creates a Store, loading accounts.csv and ledger.csv from opts.Dir
// when set.
func Open(opts Options) (*Store, error) {
	s := &Store{
		accounts:    make(map[string]model.Account),
		ledger:      make(map[string][]model.Transaction),
		reserved:    make(map[string]struct{}),
		locks:       newLockTable(),
		lockTimeout: opts.LockTimeout,
		dir:         opts.Dir,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if s.lockTimeout <= 0 {
		s.lockTimeout = DefaultLockTimeout
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.now == nil {
		s.now = time.Now
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	acctRows, err := readRows(filepath.Join(s.dir, accountsFile), numAccountFields)
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	for i, rec := range acctRows {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return fmt.Errorf("loading accounts: row %d: %w", i+2, err)
		}
		if _, dup := s.accounts[acct.Number]; dup {
			return fmt.Errorf("loading accounts: row %d: %w: %s", i+2, model.ErrDuplicateAccount, acct.Number)
		}
		s.accounts[acct.Number] = acct
	}

	ledgerRows, err := readRows(filepath.Join(s.dir, ledgerFile), numLedgerFields)
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	for i, rec := range ledgerRows {
		t, err := UnmarshalTransaction(rec)
		if err != nil {
			return fmt.Errorf("loading ledger: row %d: %w", i+2, err)
		}
		acct, ok := s.accounts[t.AccountNumber]
		if !ok {
			return fmt.Errorf("loading ledger: row %d: %w: %s", i+2, model.ErrAccountNotFound, t.AccountNumber)
		}
		if t.Flow == model.FlowIn {
			acct.Balance = acct.Balance.Add(t.Amount)
		} else {
			acct.Balance = acct.Balance.Sub(t.Amount)
		}
		s.accounts[t.AccountNumber] = acct
		s.ledger[t.AccountNumber] = append(s.ledger[t.AccountNumber], t)
	}

	for number, acct := range s.accounts {
		if acct.Balance.IsNegative() {
			return fmt.Errorf("loading ledger: account %s replays to negative balance %s", number, acct.Balance)
		}
	}

	s.logger.Debug("ledger loaded", "dir", s.dir, "accounts", len(s.accounts), "transactions", len(ledgerRows))
	return nil
}

// Atomic implements store.Store.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newTx(s)
	defer tx.releaseLocks()
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	if err := tx.commit(); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// FindAccount implements store.Store.
func (s *Store) FindAccount(_ context.Context, number string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[number]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", model.ErrAccountNotFound, number)
	}
	return acct, nil
}

// ListAccounts implements store.Store.
func (s *Store) ListAccounts(context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// FindTransactions implements store.Store.
func (s *Store) FindTransactions(_ context.Context, number string) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Transaction(nil), s.ledger[number]...), nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// persist appends the unit's new accounts and records to the data files.
// Called with s.mu held.
func (s *Store) persist(created []model.Account, appended []model.Transaction) error {
	acctRows := make([][]string, 0, len(created))
	for _, acct := range created {
		acctRows = append(acctRows, MarshalAccount(acct))
	}
	if err := appendRows(filepath.Join(s.dir, accountsFile), AccountsHeader, acctRows); err != nil {
		return err
	}

	txRows := make([][]string, 0, len(appended))
	for _, t := range appended {
		txRows = append(txRows, MarshalTransaction(t))
	}
	return appendRows(filepath.Join(s.dir, ledgerFile), LedgerHeader, txRows)
}
