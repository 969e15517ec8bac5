package memstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleared-dev/ledgerd/internal/model"
)

// tx buffers an atomic unit's writes until commit. Only the goroutine
// running the unit touches it.
type tx struct {
	s *Store

	held     []string                 // locked account numbers, in acquisition order
	created  map[string]model.Account // accounts inserted by this unit
	dirty    map[string]model.Account // locked existing accounts, current view
	appended []model.Transaction
}

func newTx(s *Store) *tx {
	return &tx{
		s:       s,
		created: make(map[string]model.Account),
		dirty:   make(map[string]model.Account),
	}
}

func (t *tx) CreateAccount(ctx context.Context, number string) (model.Account, error) {
	t.s.mu.Lock()
	_, exists := t.s.accounts[number]
	_, inFlight := t.s.reserved[number]
	if exists || inFlight {
		t.s.mu.Unlock()
		return model.Account{}, fmt.Errorf("%w: %s", model.ErrDuplicateAccount, number)
	}
	t.s.reserved[number] = struct{}{}
	t.s.mu.Unlock()

	acct := model.NewAccount(number, t.s.now().UTC())
	// Nobody else can see the account yet, so this does not wait.
	if err := t.s.locks.acquire(ctx, number, t.s.lockTimeout); err != nil {
		t.s.mu.Lock()
		delete(t.s.reserved, number)
		t.s.mu.Unlock()
		return model.Account{}, err
	}
	t.held = append(t.held, number)
	t.created[number] = acct
	return acct, nil
}

func (t *tx) GetForUpdate(ctx context.Context, number string) (model.Account, error) {
	if acct, ok := t.created[number]; ok {
		return acct, nil
	}
	if acct, ok := t.dirty[number]; ok {
		return acct, nil
	}

	// Accounts are never deleted, so existence checked here still holds once
	// the lock is acquired.
	if _, err := t.s.FindAccount(ctx, number); err != nil {
		return model.Account{}, err
	}
	if err := t.s.locks.acquire(ctx, number, t.s.lockTimeout); err != nil {
		return model.Account{}, err
	}
	t.held = append(t.held, number)

	// Re-read under the lock to see the last committed balance.
	acct, err := t.s.FindAccount(ctx, number)
	if err != nil {
		return model.Account{}, err
	}
	t.dirty[number] = acct
	return acct, nil
}

func (t *tx) SaveAccount(_ context.Context, acct model.Account) error {
	acct.Balance = acct.Balance.Round()
	if _, ok := t.created[acct.Number]; ok {
		t.created[acct.Number] = acct
		return nil
	}
	if _, ok := t.dirty[acct.Number]; ok {
		t.dirty[acct.Number] = acct
		return nil
	}
	return fmt.Errorf("saving account %s: %w", acct.Number, errNotLocked)
}

func (t *tx) AppendTransaction(_ context.Context, rec model.Transaction) error {
	if !t.holds(rec.AccountNumber) {
		return fmt.Errorf("appending to account %s: %w", rec.AccountNumber, errNotLocked)
	}
	rec.Amount = rec.Amount.Round()
	t.appended = append(t.appended, rec)
	return nil
}

var errNotLocked = errors.New("account not locked by this unit")

func (t *tx) holds(number string) bool {
	_, created := t.created[number]
	_, dirty := t.dirty[number]
	return created || dirty
}

func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir != "" && (len(t.created) > 0 || len(t.appended) > 0) {
		created := make([]model.Account, 0, len(t.created))
		for _, number := range t.held {
			if acct, ok := t.created[number]; ok {
				created = append(created, acct)
			}
		}
		if err := s.persist(created, t.appended); err != nil {
			return fmt.Errorf("%w: %w", model.ErrPersistence, err)
		}
	}

	for number, acct := range t.created {
		s.accounts[number] = acct
		delete(s.reserved, number)
	}
	for number, acct := range t.dirty {
		s.accounts[number] = acct
	}
	for _, rec := range t.appended {
		s.ledger[rec.AccountNumber] = append(s.ledger[rec.AccountNumber], rec)
	}
	t.created = nil
	return nil
}

func (t *tx) rollback() {
	if len(t.created) == 0 {
		return
	}
	t.s.mu.Lock()
	for number := range t.created {
		delete(t.s.reserved, number)
	}
	t.s.mu.Unlock()
	t.created = nil
}

func (t *tx) releaseLocks() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
}
