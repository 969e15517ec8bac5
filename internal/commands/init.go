package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerd/internal/config"
)

// Directories created by init, relative to the project directory.
const (
	dataDirName  = "data"
	inboxDirName = "inbox"
)

func newInitCommand() *cobra.Command {
	var driver string
	var dsn string
	var port int

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a ledgerd deployment directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, driver, dsn, port)
		},
	}

	cmd.Flags().StringVar(&driver, "driver", config.DriverMemory, "storage driver (memory|postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres connection string")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP port")

	return cmd
}

func runInit(cmd *cobra.Command, dir, driver, dsn string, port int) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	for _, d := range []string{dataDirName, filepath.Join(inboxDirName, "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default()
	cfg.Server.Port = port
	cfg.Storage.Driver = driver
	cfg.Storage.DSN = dsn
	if driver == config.DriverMemory {
		cfg.Storage.DataDir = dataDirName
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledgerd at %s\n", dir)
	return nil
}
