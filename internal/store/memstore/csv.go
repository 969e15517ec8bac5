package memstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
)

// AccountsHeader is the CSV header for accounts.csv.
const AccountsHeader = "account_id,account_number,created_at"

// LedgerHeader is the CSV header for ledger.csv.
const LedgerHeader = "transaction_id,kind,flow,account_id,account_number,counterparty_id,counterparty_number,amount,timestamp"

const (
	accountsFile = "accounts.csv"
	ledgerFile   = "ledger.csv"
	tsFormat     = time.RFC3339Nano

	numAccountFields = 3
	colAcctID        = 0
	colAcctNumber    = 1
	colAcctCreated   = 2

	numLedgerFields = 9
	colTxID         = 0
	colKind         = 1
	colFlow         = 2
	colOwnerID      = 3
	colOwnerNumber  = 4
	colCpartyID     = 5
	colCpartyNumber = 6
	colAmount       = 7
	colTimestamp    = 8
)

// MarshalAccount converts an Account to an accounts.csv row. Balances are not
// stored; they are rebuilt from the ledger.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numAccountFields)
	row[colAcctID] = acct.ID.String()
	row[colAcctNumber] = acct.Number
	row[colAcctCreated] = acct.CreatedAt.UTC().Format(tsFormat)
	return row
}

// UnmarshalAccount converts an accounts.csv row to a zero-balance Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numAccountFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numAccountFields, len(record))
	}

	accountID, err := uuid.Parse(record[colAcctID])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", record[colAcctID], err)
	}

	created, err := time.Parse(tsFormat, record[colAcctCreated])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing created_at %q: %w", record[colAcctCreated], err)
	}

	return model.Account{
		ID:        accountID,
		Number:    record[colAcctNumber],
		Balance:   money.Zero,
		CreatedAt: created,
	}, nil
}

// MarshalTransaction converts a Transaction to a ledger.csv row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numLedgerFields)
	row[colTxID] = t.ID.String()
	row[colKind] = string(t.Kind)
	row[colFlow] = string(t.Flow)
	row[colOwnerID] = t.AccountID.String()
	row[colOwnerNumber] = t.AccountNumber
	if t.CounterpartyID != uuid.Nil {
		row[colCpartyID] = t.CounterpartyID.String()
	}
	row[colCpartyNumber] = t.CounterpartyNumber
	row[colAmount] = t.Amount.String()
	row[colTimestamp] = t.Timestamp.UTC().Format(tsFormat)
	return row
}

// UnmarshalTransaction converts a ledger.csv row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numLedgerFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numLedgerFields, len(record))
	}

	txID, err := uuid.Parse(record[colTxID])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing transaction_id %q: %w", record[colTxID], err)
	}

	ownerID, err := uuid.Parse(record[colOwnerID])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing account_id %q: %w", record[colOwnerID], err)
	}

	var cpartyID uuid.UUID
	if record[colCpartyID] != "" {
		cpartyID, err = uuid.Parse(record[colCpartyID])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing counterparty_id %q: %w", record[colCpartyID], err)
		}
	}

	kind := model.Kind(record[colKind])
	switch kind {
	case model.KindDeposit, model.KindWithdraw, model.KindTransfer:
	default:
		return model.Transaction{}, fmt.Errorf("unknown kind %q", record[colKind])
	}

	flow := model.Flow(record[colFlow])
	if flow != model.FlowIn && flow != model.FlowOut {
		return model.Transaction{}, fmt.Errorf("unknown flow %q", record[colFlow])
	}

	amount, err := money.Parse(record[colAmount])
	if err != nil {
		return model.Transaction{}, err
	}

	ts, err := time.Parse(tsFormat, record[colTimestamp])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return model.Transaction{
		ID:                 txID,
		Kind:               kind,
		Flow:               flow,
		AccountID:          ownerID,
		AccountNumber:      record[colOwnerNumber],
		CounterpartyID:     cpartyID,
		CounterpartyNumber: record[colCpartyNumber],
		Amount:             amount,
		Timestamp:          ts,
	}, nil
}

// readRows returns the data rows of a CSV file, without its header. A missing
// file yields no rows.
func readRows(path string, numFields int) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return readRecords(f, numFields)
}

func readRecords(r io.Reader, numFields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

// appendRows appends rows to path, writing header first if the file is new.
func appendRows(path, header string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if isNew {
		if err := cw.Write(strings.Split(header, ",")); err != nil {
			f.Close()
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return f.Close()
}
