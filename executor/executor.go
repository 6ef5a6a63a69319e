// Package executor performs a single transfer task: read task.src (whole
// object or a byte range) and write it to task.dest, creating parent
// directories as needed. It depends only on the blob collaborator and
// operates on one task value at a time, independent of every other
// package; the dispatch layer decides whether many tasks run sequentially
// or in parallel.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tacofoundation/tacobridge/blob"
	"github.com/tacofoundation/tacobridge/plantypes"
)

// Execute reads task.Src (the whole object, or [Offset, Offset+Size) when
// both are set) and writes the bytes to task.Dest, creating task.Dest's
// parent directories first. It fails with plantypes.ExecuteError on any
// read, write, or permission failure; the task may be safely re-executed
// after the root cause is fixed.
func Execute(ctx context.Context, task plantypes.Task) error {
	data, err := read(ctx, task)
	if err != nil {
		return plantypes.NewExecuteError(task.Src, task.Dest, err)
	}
	if err := write(task.Dest, data); err != nil {
		return plantypes.NewExecuteError(task.Src, task.Dest, err)
	}
	return nil
}

func read(ctx context.Context, task plantypes.Task) ([]byte, error) {
	if blob.IsRemote(task.Src) {
		if task.Partial() {
			return blob.DownloadRange(ctx, task.Src, *task.Offset, *task.Size)
		}
		return blob.DownloadBytes(ctx, task.Src)
	}
	return readLocal(task)
}

func readLocal(task plantypes.Task) ([]byte, error) {
	f, err := os.Open(task.Src)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", task.Src, err)
	}
	defer f.Close()

	if !task.Partial() {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", task.Src, err)
		}
		return data, nil
	}

	buf := make([]byte, *task.Size)
	if _, err := f.ReadAt(buf, *task.Offset); err != nil {
		return nil, fmt.Errorf("read %s at %d (%d bytes): %w", task.Src, *task.Offset, *task.Size, err)
	}
	return buf, nil
}

func write(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
