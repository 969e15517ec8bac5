// Package batch applies CSV files of posting instructions through the ledger
// engine with a pool of workers.
package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/ledgerd/internal/money"
)

// Header is the expected first row of a batch file.
const Header = "op,account,counterparty,amount"

const (
	numFields       = 4
	colOp           = 0
	colAccount      = 1
	colCounterparty = 2
	colAmount       = 3
)

// Op is a posting operation.
type Op string

const (
	OpDeposit  Op = "deposit"
	OpWithdraw Op = "withdraw"
	OpTransfer Op = "transfer"
)

// Instruction is one row of a batch file. For transfers Account is the sender
// and Counterparty the receiver.
type Instruction struct {
	Line         int
	Op           Op
	Account      string
	Counterparty string
	Amount       money.Amount
}

// Parse reads a batch CSV. Rows are validated for shape only; amounts and
// accounts are checked by the engine when applied.
func Parse(r io.Reader) ([]Instruction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading batch CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); !strings.EqualFold(got, Header) {
		return nil, fmt.Errorf("unexpected header %q, want %q", got, Header)
	}

	var out []Instruction
	for i, rec := range records[1:] {
		in, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		in.Line = i + 2
		out = append(out, in)
	}
	return out, nil
}

func parseRow(rec []string) (Instruction, error) {
	op := Op(strings.ToLower(strings.TrimSpace(rec[colOp])))
	in := Instruction{
		Op:           op,
		Account:      strings.TrimSpace(rec[colAccount]),
		Counterparty: strings.TrimSpace(rec[colCounterparty]),
	}

	switch op {
	case OpDeposit, OpWithdraw:
		if in.Counterparty != "" {
			return Instruction{}, fmt.Errorf("%s does not take a counterparty", op)
		}
	case OpTransfer:
		if in.Counterparty == "" {
			return Instruction{}, fmt.Errorf("transfer requires a counterparty")
		}
	default:
		return Instruction{}, fmt.Errorf("unknown op %q", rec[colOp])
	}
	if in.Account == "" {
		return Instruction{}, fmt.Errorf("account is required")
	}

	amount, err := money.Parse(strings.TrimSpace(rec[colAmount]))
	if err != nil {
		return Instruction{}, err
	}
	in.Amount = amount
	return in, nil
}
