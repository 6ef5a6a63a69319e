package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tacofoundation/tacobridge/plantypes"
)

func buildTasks(t *testing.T, n int) []plantypes.Task {
	t.Helper()
	dir := t.TempDir()
	tasks := make([]plantypes.Task, n)
	for i := 0; i < n; i++ {
		src := filepath.Join(dir, "src")
		require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
		tasks[i] = plantypes.Task{Src: src, Dest: filepath.Join(dir, "dest", string(rune('a'+i)))}
	}
	return tasks
}

func TestRunSequential(t *testing.T) {
	tasks := buildTasks(t, 5)
	var progressCalls int32
	results := Run(context.Background(), tasks, Options{Progress: func(done, total int) {
		atomic.AddInt32(&progressCalls, 1)
		require.LessOrEqual(t, done, total)
	}})
	require.Len(t, results, 5)
	for _, r := range results {
		require.NoError(t, r.Err)
	}
	require.Equal(t, int32(5), progressCalls)
}

func TestRunParallel(t *testing.T) {
	tasks := buildTasks(t, 20)
	results := Run(context.Background(), tasks, Options{Parallel: true, Workers: 4})
	require.Len(t, results, 20)
	for _, r := range results {
		require.NoError(t, r.Err)
	}
}

func TestRunCollectsPerTaskErrorsWithoutStopping(t *testing.T) {
	tasks := buildTasks(t, 3)
	tasks[1].Src = "/nonexistent"
	results := Run(context.Background(), tasks, Options{})
	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	require.NoError(t, results[2].Err)
}

func TestRunEmpty(t *testing.T) {
	results := Run(context.Background(), nil, Options{})
	require.Empty(t, results)
}
