package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerd/internal/accounts"
	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
)

func newAccountCommand(open appOpener) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account management",
	}
	accountCmd.AddCommand(
		newAccountCreateCommand(open),
		newAccountGetCommand(open),
		newAccountListCommand(open),
	)
	return accountCmd
}

func newAccountCreateCommand(open appOpener) *cobra.Command {
	var initial string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account with a generated number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := money.Parse(initial)
			if err != nil {
				return err
			}
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.accounts.Create(cmd.Context(), amount)
			if err != nil {
				return err
			}
			printAccount(cmd.OutOrStdout(), acct)
			return nil
		},
	}

	cmd.Flags().StringVar(&initial, "initial-balance", "0", "initial deposit")

	return cmd
}

func newAccountGetCommand(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "get <account-number>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.accounts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printAccount(cmd.OutOrStdout(), acct)
			return nil
		},
	}
}

func newAccountListCommand(open appOpener) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			accts, err := a.accounts.List(cmd.Context())
			if err != nil {
				return err
			}
			if asCSV {
				return accounts.WriteAccounts(cmd.OutOrStdout(), accts)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACCOUNT\tBALANCE\tCREATED")
			for _, acct := range accts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", acct.Number, acct.Balance, acct.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")

	return cmd
}

func printAccount(w io.Writer, acct model.Account) {
	fmt.Fprintf(w, "%s balance=%s id=%s\n", acct.Number, acct.Balance, acct.ID)
}
