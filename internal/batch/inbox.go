package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProcessedDir is the subdirectory of an inbox that applied files move to.
const ProcessedDir = "processed"

// FileInfo describes a CSV file in an inbox directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns the CSV files directly inside dir. A missing dir yields none.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir to dir/processed/.
func MarkProcessed(dir, fileName string) error {
	dstDir := filepath.Join(dir, ProcessedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	src := filepath.Join(dir, fileName)
	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
