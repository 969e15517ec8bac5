package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerd/internal/batch"
	"github.com/cleared-dev/ledgerd/internal/runlog"
)

func newBatchCommand(open appOpener) *cobra.Command {
	var (
		workers    int
		inbox      string
		withReport bool
	)

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Apply instruction CSV files",
		Long: `Apply a CSV file of deposit, withdraw and transfer instructions.

Without a file argument every CSV in the inbox directory is applied, moved
to inbox/processed/ and recorded in inbox/processed/batch-log.csv.

Expected header: ` + batch.Header,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			runner := batch.NewRunner(a.engine, workers, a.logger)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				report, err := applyFile(cmd, runner, args[0])
				if err != nil {
					return err
				}
				return printReport(out, filepath.Base(args[0]), report, withReport)
			}

			files, err := batch.Scan(inbox)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(out, "No CSV files in %s\n", inbox)
				return nil
			}

			var entries []runlog.Entry
			for _, f := range files {
				report, err := applyFile(cmd, runner, f.Path)
				if err != nil {
					return err
				}
				if err := printReport(out, f.Name, report, withReport); err != nil {
					return err
				}
				if err := batch.MarkProcessed(inbox, f.Name); err != nil {
					return err
				}
				entries = append(entries, runlog.Entry{
					Timestamp:    time.Now(),
					File:         f.Name,
					Instructions: len(report.Results),
					Succeeded:    report.Succeeded(),
					Failed:       report.Failed(),
				})
			}
			return runlog.Append(inbox, entries)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", batch.DefaultWorkers, "concurrent instructions")
	cmd.Flags().StringVar(&inbox, "inbox", inboxDirName, "directory scanned when no file is given")
	cmd.Flags().BoolVar(&withReport, "report", false, "print a CSV row per instruction")

	return cmd
}

func applyFile(cmd *cobra.Command, runner *batch.Runner, path string) (batch.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return batch.Report{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	instrs, err := batch.Parse(f)
	if err != nil {
		return batch.Report{}, fmt.Errorf("%s: %w", path, err)
	}
	return runner.Run(cmd.Context(), instrs), nil
}

func printReport(w io.Writer, name string, report batch.Report, full bool) error {
	fmt.Fprintf(w, "%s: %d applied, %d failed\n", name, report.Succeeded(), report.Failed())
	if !full {
		return nil
	}
	return batch.WriteReport(w, report)
}
