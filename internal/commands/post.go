package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
)

func newDepositCommand(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <account-number> <amount>",
		Short: "Credit an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := money.Parse(args[1])
			if err != nil {
				return err
			}
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.engine.Deposit(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), rec)
			return nil
		},
	}
}

func newWithdrawCommand(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <account-number> <amount>",
		Short: "Debit an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := money.Parse(args[1])
			if err != nil {
				return err
			}
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.engine.Withdraw(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), rec)
			return nil
		},
	}
}

func newTransferCommand(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <sender> <receiver> <amount>",
		Short: "Move money between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := money.Parse(args[2])
			if err != nil {
				return err
			}
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.engine.Transfer(cmd.Context(), args[0], args[1], amount)
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), rec)
			return nil
		},
	}
}

func newHistoryCommand(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "history <account-number>",
		Short: "Show the ledger records of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.engine.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIMESTAMP\tKIND\tFLOW\tAMOUNT\tCOUNTERPARTY")
			for _, t := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					t.Timestamp.Format(time.RFC3339Nano), t.Kind, t.Flow, t.Amount, t.CounterpartyNumber)
			}
			return tw.Flush()
		},
	}
}

func printTransaction(w io.Writer, t model.Transaction) {
	fmt.Fprintf(w, "%s %s %s %s", t.Kind, t.Flow, t.AccountNumber, t.Amount)
	if t.CounterpartyNumber != "" {
		fmt.Fprintf(w, " counterparty=%s", t.CounterpartyNumber)
	}
	fmt.Fprintf(w, " id=%s\n", t.ID)
}
