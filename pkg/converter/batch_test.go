package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFindModules(t *testing.T) {
	dir := t.TempDir()
	writeTestMOD(t, dir, "a.mod")
	writeTestMOD(t, dir, "b.mod")
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestMOD(t, sub, "c.mod")
	// Output directories and foreign files are ignored.
	conv := filepath.Join(dir, "converted")
	if err := os.MkdirAll(conv, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestMOD(t, conv, "d.mod")
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("recursive", func(t *testing.T) {
		files, err := findModules(dir, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 3 {
			t.Errorf("files = %d (%v), want 3", len(files), files)
		}
	})

	t.Run("non-recursive", func(t *testing.T) {
		files, err := findModules(dir, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 2 {
			t.Errorf("files = %d (%v), want 2", len(files), files)
		}
	})
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	writeTestMOD(t, dir, "a.mod")
	writeTestMOD(t, dir, "b.mod")
	// A corrupt sibling fails without stopping the batch.
	if err := os.WriteFile(filepath.Join(dir, "broken.mod"), make([]byte, 2000), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ConvertBatch(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("ConvertBatch() error: %v", err)
	}
	if result.Converted != 2 || result.Failed != 1 || result.Skipped != 0 {
		t.Errorf("converted/failed/skipped = %d/%d/%d, want 2/1/0",
			result.Converted, result.Failed, result.Skipped)
	}

	// A second run skips everything already converted.
	result, err = ConvertBatch(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("second ConvertBatch() error: %v", err)
	}
	if result.Skipped != 2 || result.Converted != 0 {
		t.Errorf("second run converted/skipped = %d/%d, want 0/2",
			result.Converted, result.Skipped)
	}
}

func TestConvertBatchCancelled(t *testing.T) {
	dir := t.TempDir()
	writeTestMOD(t, dir, "a.mod")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := ConvertBatch(ctx, dir, Options{})
	if err == nil {
		t.Fatal("cancelled batch should return the context error")
	}
	if result.Converted != 0 {
		t.Errorf("converted = %d, want 0", result.Converted)
	}
}
