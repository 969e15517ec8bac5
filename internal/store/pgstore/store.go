// Package pgstore implements store.Store on PostgreSQL through gorm. Account
// locks are row locks taken with SELECT ... FOR UPDATE and bounded by
// lock_timeout.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/store"
)

// DefaultLockTimeout matches the in-memory store.
const DefaultLockTimeout = 3 * time.Second

var _ store.Store = (*Store)(nil)

// Options configures a Store.
type Options struct {
	LockTimeout  time.Duration
	MaxOpenConns int
	Logger       *slog.Logger
	Now          func() time.Time
}

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	db          *gorm.DB
	lockTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// Open connects to the database at dsn. It does not create tables; call
// Migrate for that.
func Open(dsn string, opts Options) (*Store, error) {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return opts.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("getting connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	return &Store{
		db:          db,
		lockTimeout: opts.LockTimeout,
		logger:      opts.Logger,
		now:         opts.Now,
	}, nil
}

// Migrate creates or updates the bank_account and bank_transaction tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&accountRow{}, &transactionRow{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	s.logger.Info("schema migrated", "tables", []string{"bank_account", "bank_transaction"})
	return nil
}

// Atomic implements store.Store. The unit runs in one database transaction
// with lock_timeout set for its duration.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	// SET does not accept bind parameters.
	setTimeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())

	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Exec(setTimeout).Error; err != nil {
			return fmt.Errorf("setting lock timeout: %w", err)
		}
		return fn(&tx{db: db, now: s.now})
	})
	return translateError(err)
}

// FindAccount implements store.Store.
func (s *Store) FindAccount(ctx context.Context, number string) (model.Account, error) {
	var row accountRow
	err := s.db.WithContext(ctx).Where("account_number = ?", number).Take(&row).Error
	if err != nil {
		return model.Account{}, translateError(fmt.Errorf("finding account %s: %w", number, err))
	}
	return row.toModel(), nil
}

// ListAccounts implements store.Store.
func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var rows []accountRow
	if err := s.db.WithContext(ctx).Order("account_number").Find(&rows).Error; err != nil {
		return nil, translateError(fmt.Errorf("listing accounts: %w", err))
	}
	out := make([]model.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// FindTransactions implements store.Store.
func (s *Store) FindTransactions(ctx context.Context, number string) ([]model.Transaction, error) {
	acct, err := s.FindAccount(ctx, number)
	if errors.Is(err, model.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	err = s.db.WithContext(ctx).
		Preload("Counterparty").
		Where("account_id = ?", acct.ID).
		Order("timestamp, id").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(fmt.Errorf("listing transactions of %s: %w", number, err))
	}
	out := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel(number))
	}
	return out, nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close implements store.Store.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type tx struct {
	db  *gorm.DB
	now func() time.Time
}

func (t *tx) CreateAccount(_ context.Context, number string) (model.Account, error) {
	acct := model.NewAccount(number, t.now().UTC())
	row := toAccountRow(acct)
	if err := t.db.Create(&row).Error; err != nil {
		return model.Account{}, translateError(fmt.Errorf("creating account %s: %w", number, err))
	}
	return acct, nil
}

func (t *tx) GetForUpdate(_ context.Context, number string) (model.Account, error) {
	var row accountRow
	err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_number = ?", number).
		Take(&row).Error
	if err != nil {
		return model.Account{}, translateError(fmt.Errorf("locking account %s: %w", number, err))
	}
	return row.toModel(), nil
}

func (t *tx) SaveAccount(_ context.Context, acct model.Account) error {
	res := t.db.Model(&accountRow{}).
		Where("id = ?", acct.ID).
		Update("balance", acct.Balance.Round())
	if res.Error != nil {
		return translateError(fmt.Errorf("saving account %s: %w", acct.Number, res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("saving account: %w: %s", model.ErrAccountNotFound, acct.Number)
	}
	return nil
}

func (t *tx) AppendTransaction(_ context.Context, rec model.Transaction) error {
	row := toTransactionRow(rec)
	if err := t.db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return translateError(fmt.Errorf("appending transaction to %s: %w", rec.AccountNumber, err))
	}
	return nil
}
