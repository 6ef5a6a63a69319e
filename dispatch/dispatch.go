// Package dispatch is the thin sequential-or-parallel task runner that
// chooses between running transfer tasks one at a time or fanning them out
// across a worker pool, optionally reporting progress as they complete. It
// is the only package in this module that imports executor for the purpose
// of running many tasks at once; metadata, planner, executor, and
// finalizer stay oblivious to concurrency entirely; they just produce or
// consume single values.
package dispatch

import (
	"context"
	"runtime"
	"sync"

	"github.com/tacofoundation/tacobridge/executor"
	"github.com/tacofoundation/tacobridge/plantypes"
)

// Result pairs a task with the error executing it produced, if any.
type Result struct {
	Task plantypes.Task
	Err  error
}

// Options controls how Run executes a task list.
type Options struct {
	// Parallel selects a worker-pool execution; false runs tasks in order
	// on the calling goroutine.
	Parallel bool
	// Workers bounds concurrency when Parallel is true. Zero or negative
	// defaults to runtime.NumCPU().
	Workers int
	// Progress, if set, is called after each task completes (success or
	// failure) with the number done so far and the total task count. Run
	// serializes calls to it internally so implementations never need
	// their own locking.
	Progress func(done, total int)
}

// Run executes every task in tasks and returns one Result per task, in the
// same order they were given regardless of execution order. A task's
// failure does not stop the others: tasks are independent and the plan
// remains valid for tasks that did not yet run.
func Run(ctx context.Context, tasks []plantypes.Task, opts Options) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	var mu sync.Mutex
	done := 0
	report := func() {
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		done++
		opts.Progress(done, len(tasks))
		mu.Unlock()
	}

	if !opts.Parallel {
		for i, task := range tasks {
			results[i] = Result{Task: task, Err: executor.Execute(ctx, task)}
			report()
		}
		return results
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = Result{Task: tasks[i], Err: executor.Execute(ctx, tasks[i])}
				report()
			}
		}()
	}
	for i := range tasks {
		indices <- i
	}
	close(indices)
	wg.Wait()
	return results
}
