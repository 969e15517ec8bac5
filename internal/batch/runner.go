package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/cleared-dev/ledgerd/internal/ledger"
	"github.com/cleared-dev/ledgerd/internal/model"
)

// DefaultWorkers is used when a Runner is created with workers <= 0.
const DefaultWorkers = 4

// Result is the outcome of one instruction.
type Result struct {
	Instruction Instruction
	Transaction model.Transaction // zero when Err is set
	Err         error
}

// Report holds results in instruction order.
type Report struct {
	Results []Result
}

// Succeeded counts applied instructions.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts rejected instructions.
func (r Report) Failed() int { return len(r.Results) - r.Succeeded() }

// Runner applies instructions concurrently. Instructions touching the same
// accounts serialize on the engine's account locks, so their relative order
// is not preserved.
type Runner struct {
	engine  *ledger.Engine
	workers int
	logger  *slog.Logger
}

// NewRunner creates a Runner with the given concurrency.
func NewRunner(engine *ledger.Engine, workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{engine: engine, workers: workers, logger: logger}
}

// Run applies every instruction and reports each outcome. Instructions not
// dispatched before ctx ends fail with the context's error.
func (r *Runner) Run(ctx context.Context, instrs []Instruction) Report {
	results := make([]Result, len(instrs))
	for i, in := range instrs {
		results[i] = Result{Instruction: in}
	}
	if len(instrs) == 0 {
		return Report{Results: results}
	}

	indexCh := make(chan int)
	var wg sync.WaitGroup
	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				results[idx].Transaction, results[idx].Err = r.apply(ctx, instrs[idx])
			}
		}()
	}

	next := 0
Loop:
	for ; next < len(instrs); next++ {
		select {
		case indexCh <- next:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()

	for i := next; i < len(instrs); i++ {
		results[i].Err = ctx.Err()
	}

	report := Report{Results: results}
	r.logger.Info("batch applied",
		"instructions", len(instrs), "succeeded", report.Succeeded(), "failed", report.Failed())
	return report
}

func (r *Runner) apply(ctx context.Context, in Instruction) (model.Transaction, error) {
	switch in.Op {
	case OpDeposit:
		return r.engine.Deposit(ctx, in.Account, in.Amount)
	case OpWithdraw:
		return r.engine.Withdraw(ctx, in.Account, in.Amount)
	case OpTransfer:
		return r.engine.Transfer(ctx, in.Account, in.Counterparty, in.Amount)
	default:
		return model.Transaction{}, fmt.Errorf("unknown op %q", in.Op)
	}
}

// WriteReport writes one CSV row per result.
func WriteReport(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"line", "op", "account", "counterparty", "amount", "status", "transaction_id", "error"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, res := range report.Results {
		in := res.Instruction
		row := []string{strconv.Itoa(in.Line), string(in.Op), in.Account, in.Counterparty, in.Amount.String(), "ok", res.Transaction.ID.String(), ""}
		if res.Err != nil {
			row[5] = "failed"
			row[6] = ""
			row[7] = res.Err.Error()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing line %d: %w", in.Line, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
