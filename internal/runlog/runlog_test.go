package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:    testTime,
		File:         "postings.csv",
		Instructions: 12,
		Succeeded:    10,
		Failed:       2,
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])

	data, err := os.ReadFile(filepath.Join(dir, "processed", "batch-log.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), Header+"\n"))
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	second := testEntry()
	second.File = "more.csv"
	require.NoError(t, Append(dir, []Entry{second}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "more.csv", entries[1].File)

	data, err := os.ReadFile(filepath.Join(dir, "processed", "batch-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header), "header written once")
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"a"})
	assert.ErrorContains(t, err, "expected 5 fields")

	_, err = UnmarshalEntry([]string{"yesterday", "f.csv", "1", "1", "0"})
	assert.ErrorContains(t, err, "parsing timestamp")

	_, err = UnmarshalEntry([]string{"2025-01-15T10:30:00Z", "f.csv", "one", "1", "0"})
	assert.ErrorContains(t, err, "parsing count")
}
