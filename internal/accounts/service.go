// Package accounts creates bank accounts and serves account queries. Funding
// of new accounts is delegated to the ledger engine.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cleared-dev/ledgerd/internal/id"
	"github.com/cleared-dev/ledgerd/internal/ledger"
	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
)

// createAttempts bounds retries when a generated number collides.
const createAttempts = 3

// Service provides account creation and lookup.
type Service struct {
	engine   *ledger.Engine
	generate id.Generator
	logger   *slog.Logger
}

// NewService creates a Service. A nil generator uses 16-digit UUID-derived
// numbers.
func NewService(engine *ledger.Engine, generate id.Generator, logger *slog.Logger) *Service {
	if generate == nil {
		generate = id.UUIDGenerator(id.DefaultAccountNumberLength)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{engine: engine, generate: generate, logger: logger}
}

// Create opens an account under a freshly generated number with the given
// initial balance.
func (s *Service) Create(ctx context.Context, initialBalance money.Amount) (model.Account, error) {
	if initialBalance.IsNegative() {
		return model.Account{}, fmt.Errorf("%w: initial balance %s is negative", model.ErrInvalidAmount, initialBalance)
	}

	var lastErr error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		number := s.generate()
		acct, err := s.engine.OpenAccount(ctx, number, initialBalance)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, model.ErrDuplicateAccount) {
			return model.Account{}, err
		}
		s.logger.Warn("account number collision", "account", number, "attempt", attempt)
		lastErr = err
	}
	return model.Account{}, fmt.Errorf("creating account after %d attempts: %w", createAttempts, lastErr)
}

// Get returns an account by number.
func (s *Service) Get(ctx context.Context, number string) (model.Account, error) {
	return s.engine.Store().FindAccount(ctx, number)
}

// List returns all accounts ordered by number.
func (s *Service) List(ctx context.Context) ([]model.Account, error) {
	return s.engine.Store().ListAccounts(ctx)
}
