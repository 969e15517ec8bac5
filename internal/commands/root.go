package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerd/internal/buildinfo"
	"github.com/cleared-dev/ledgerd/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:     "ledgerd",
		Short:   "Account ledger with deposits, withdrawals and transfers",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.FileName, "path to ledgerd.yaml")

	opener := func(cmd *cobra.Command) (*app, error) {
		return openApp(cmd, cfgPath, cmd.Flags().Changed("config"))
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newServeCommand(opener),
		newMigrateCommand(opener),
		newAccountCommand(opener),
		newDepositCommand(opener),
		newWithdrawCommand(opener),
		newTransferCommand(opener),
		newHistoryCommand(opener),
		newBatchCommand(opener),
	)

	return rootCmd
}
