package converter

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/james-see/tracker2live/pkg/tracker"
)

// BatchStatus classifies one file's outcome in a batch run.
type BatchStatus string

const (
	StatusConverted BatchStatus = "converted"
	StatusSkipped   BatchStatus = "skipped"
	StatusFailed    BatchStatus = "failed"
)

// BatchEntry is the ledger line for one source file.
type BatchEntry struct {
	Path   string
	Status BatchStatus
	Err    error
}

// BatchResult is the full ledger of a batch run.
type BatchResult struct {
	Entries   []BatchEntry
	Converted int
	Skipped   int
	Failed    int
}

// ConvertBatch converts every module file under dir, strictly one at a
// time. Files whose project already exists are skipped, one file's
// failure never stops its siblings, and ctx cancellation stops cleanly
// between files. The ctx error is returned on interruption; per-file
// failures only show up in the ledger.
func ConvertBatch(ctx context.Context, dir string, opts Options) (*BatchResult, error) {
	files, err := findModules(dir, !opts.NoRecursive)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Found %d module file(s) in %s\n", len(files), dir)

	result := &BatchResult{}
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			fmt.Printf("\nInterrupted after %d/%d files\n", i, len(files))
			return result, err
		}

		if _, err := os.Stat(ProjectPath(path, opts.OutputDir)); err == nil {
			result.Entries = append(result.Entries, BatchEntry{Path: path, Status: StatusSkipped})
			result.Skipped++
			fmt.Printf("[%d/%d] %s: already converted, skipping\n", i+1, len(files), filepath.Base(path))
			continue
		}

		fmt.Printf("[%d/%d] %s\n", i+1, len(files), filepath.Base(path))
		if _, err := Convert(path, opts); err != nil {
			result.Entries = append(result.Entries, BatchEntry{Path: path, Status: StatusFailed, Err: err})
			result.Failed++
			fmt.Printf("  failed: %v\n", err)
			continue
		}
		result.Entries = append(result.Entries, BatchEntry{Path: path, Status: StatusConverted})
		result.Converted++
	}

	fmt.Printf("\nDone: %d converted, %d skipped, %d failed\n",
		result.Converted, result.Skipped, result.Failed)
	return result, nil
}

// findModules collects .mod/.xm files under dir, skipping anything
// already inside a converted/ output directory.
func findModules(dir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "converted" {
				return filepath.SkipDir
			}
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if tracker.DetectFormat(path) != tracker.FormatUnknown {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
