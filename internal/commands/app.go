package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerd/internal/accounts"
	"github.com/cleared-dev/ledgerd/internal/config"
	"github.com/cleared-dev/ledgerd/internal/id"
	"github.com/cleared-dev/ledgerd/internal/ledger"
	"github.com/cleared-dev/ledgerd/internal/logging"
	"github.com/cleared-dev/ledgerd/internal/store"
	"github.com/cleared-dev/ledgerd/internal/store/memstore"
	"github.com/cleared-dev/ledgerd/internal/store/pgstore"
)

type appOpener func(cmd *cobra.Command) (*app, error)

// app is the wiring shared by every command that touches the ledger.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    store.Store
	engine   *ledger.Engine
	accounts *accounts.Service
}

// openApp loads configuration and opens the configured store. A missing
// config file is only an error when the path was given explicitly.
func openApp(cmd *cobra.Command, cfgPath string, explicit bool) (*app, error) {
	path := cfgPath
	if !explicit {
		if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if path != "" && cfg.Storage.DataDir != "" && !filepath.IsAbs(cfg.Storage.DataDir) {
		cfg.Storage.DataDir = filepath.Join(filepath.Dir(path), cfg.Storage.DataDir)
	}

	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())

	s, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	engine := ledger.NewEngine(s, logger)
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    s,
		engine:   engine,
		accounts: accounts.NewService(engine, id.UUIDGenerator(cfg.Ledger.AccountNumberLength), logger),
	}, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		s, err := pgstore.Open(cfg.Storage.DSN, pgstore.Options{
			LockTimeout:  cfg.Ledger.LockTimeout,
			MaxOpenConns: cfg.Storage.MaxOpenConns,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return s, nil
	default:
		s, err := memstore.Open(memstore.Options{
			Dir:         cfg.Storage.DataDir,
			LockTimeout: cfg.Ledger.LockTimeout,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("opening memory store: %w", err)
		}
		return s, nil
	}
}

func (a *app) Close() error {
	return a.store.Close()
}
