package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledgerd/internal/model"
)

// SQLSTATE codes the store maps to domain errors.
const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
	codeQueryCanceled    = "57014"
)

var domainErrors = []error{
	model.ErrInvalidAmount,
	model.ErrSameAccount,
	model.ErrAccountNotFound,
	model.ErrInsufficientFunds,
	model.ErrDuplicateAccount,
	model.ErrLockTimeout,
	model.ErrPersistence,
}

// translateError maps database failures onto the model's sentinel errors.
// Errors that already carry a sentinel, and context errors, pass through.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", model.ErrAccountNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %w", model.ErrDuplicateAccount, err)
		case codeLockNotAvailable:
			return fmt.Errorf("%w: %w", model.ErrLockTimeout, err)
		case codeQueryCanceled:
			return fmt.Errorf("%w: %w", context.Canceled, err)
		}
	}
	return fmt.Errorf("%w: %w", model.ErrPersistence, err)
}
