// Package runlog records one row per applied batch file in
// <inbox>/processed/batch-log.csv.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the batch log.
type Entry struct {
	Timestamp    time.Time
	File         string
	Instructions int
	Succeeded    int
	Failed       int
}

// Header is the CSV header for batch-log.csv.
const Header = "timestamp,file,instructions,succeeded,failed"

const (
	numFields       = 5
	logDir          = "processed"
	logFile         = "processed/batch-log.csv"
	colTimestamp    = 0
	colFile         = 1
	colInstructions = 2
	colSucceeded    = 3
	colFailed       = 4
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colFile] = e.File
	row[colInstructions] = strconv.Itoa(e.Instructions)
	row[colSucceeded] = strconv.Itoa(e.Succeeded)
	row[colFailed] = strconv.Itoa(e.Failed)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var counts [3]int
	for i, col := range []int{colInstructions, colSucceeded, colFailed} {
		counts[i], err = strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[col], err)
		}
	}

	return Entry{
		Timestamp:    ts,
		File:         record[colFile],
		Instructions: counts[0],
		Succeeded:    counts[1],
		Failed:       counts[2],
	}, nil
}

// Append writes entries to <inbox>/processed/batch-log.csv, creating the file
// and header if needed.
func Append(inbox string, entries []Entry) error {
	dir := filepath.Join(inbox, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	path := filepath.Join(inbox, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening batch log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries of the inbox's batch log. A missing log yields none.
func Read(inbox string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(inbox, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening batch log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading batch log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
