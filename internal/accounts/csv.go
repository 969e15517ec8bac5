package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/cleared-dev/ledgerd/internal/model"
)

const (
	numFields  = 4
	colNumber  = 0
	colBalance = 1
	colID      = 2
	colCreated = 3
)

// WriteAccounts writes accounts as CSV with a header row.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"account_number", "balance", "account_id", "created_at"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colNumber] = acct.Number
	row[colBalance] = acct.Balance.String()
	row[colID] = acct.ID.String()
	row[colCreated] = acct.CreatedAt.UTC().Format(time.RFC3339)
	return row
}
