package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/joshuapare/basekit/internal/logger"
	"github.com/joshuapare/basekit/thread"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var errStress = errors.New("stress check failed")

// stressResult is the outcome of one primitive's contention run.
type stressResult struct {
	Primitive string        `json:"primitive"`
	Threads   int           `json:"threads"`
	Expected  int           `json:"expected"`
	Counter   int           `json:"counter"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

func (r stressResult) ok() bool { return r.Counter == r.Expected }

func init() {
	rootCmd.AddCommand(newStressCmd())
}

func newStressCmd() *cobra.Command {
	var (
		threads    int
		iterations int
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer a shared counter through the semaphore and mutex primitives",
		Long: `The stress command starts N threads that each increment a shared counter
M times, first guarded by a binary semaphore and then by a mutex. The final
counter must equal N*M.

Example:
  basectl stress
  basectl stress --threads 16 --iterations 100000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if threads <= 0 || iterations <= 0 {
				return fmt.Errorf("threads and iterations must be positive")
			}
			return runStress(cmd.OutOrStdout(), threads, iterations)
		},
	}
	cmd.Flags().IntVarP(&threads, "threads", "n", 8, "Number of threads")
	cmd.Flags().IntVarP(&iterations, "iterations", "m", 1000, "Increments per thread")
	return cmd
}

func runStress(w io.Writer, threads, iterations int) error {
	timeout := settings.Wait.TimeoutMS

	sem, err := semaphoreCounter(threads, iterations, timeout)
	if err != nil {
		return err
	}
	mu, err := mutexCounter(threads, iterations, timeout)
	if err != nil {
		return err
	}
	results := []stressResult{sem, mu}

	if jsonOut {
		if err := printJSON(w, results); err != nil {
			return err
		}
	} else {
		p := message.NewPrinter(language.English)
		for _, r := range results {
			status := "ok"
			if !r.ok() {
				status = "MISMATCH"
			}
			p.Fprintf(w, "%-9s %d threads: counter %d of %d in %v (%s)\n",
				r.Primitive, r.Threads, r.Counter, r.Expected, r.Elapsed.Round(time.Microsecond), status)
		}
	}
	for _, r := range results {
		if !r.ok() {
			return fmt.Errorf("%w: %s counted %d, want %d", errStress, r.Primitive, r.Counter, r.Expected)
		}
	}
	return nil
}

func semaphoreCounter(threads, iterations int, timeout uint64) (stressResult, error) {
	sem, err := thread.NewSemaphore(1, 1)
	if err != nil {
		return stressResult{}, err
	}
	defer sem.Destroy()

	counter := 0
	elapsed, err := runThreads(threads, func() error {
		for range iterations {
			if err := sem.Wait(timeout); err != nil {
				return err
			}
			counter++
			if err := sem.Signal(); err != nil {
				return err
			}
		}
		return nil
	})
	return stressResult{
		Primitive: "semaphore",
		Threads:   threads,
		Expected:  threads * iterations,
		Counter:   counter,
		Elapsed:   elapsed,
	}, err
}

func mutexCounter(threads, iterations int, timeout uint64) (stressResult, error) {
	mu := thread.NewMutex()
	defer func() { _ = mu.Destroy() }()

	counter := 0
	elapsed, err := runThreads(threads, func() error {
		for range iterations {
			if err := mu.LockTimeout(timeout); err != nil {
				return err
			}
			counter++
			if err := mu.Unlock(); err != nil {
				return err
			}
		}
		return nil
	})
	return stressResult{
		Primitive: "mutex",
		Threads:   threads,
		Expected:  threads * iterations,
		Counter:   counter,
		Elapsed:   elapsed,
	}, err
}

// runThreads runs body on n threads and waits for all of them. The first
// error reported by any body is returned.
func runThreads(n int, body func() error) (time.Duration, error) {
	errs := make([]error, n)
	handles := make([]*thread.Thread, 0, n)
	start := time.Now()
	for i := range n {
		t, err := thread.Create(func(context.Context, any) uint32 {
			if err := body(); err != nil {
				errs[i] = err
				return 1
			}
			return 0
		}, nil, false)
		if err != nil {
			return 0, err
		}
		handles = append(handles, t)
	}
	for _, t := range handles {
		if err := t.Wait(); err != nil {
			return 0, err
		}
		code, _ := t.ExitCode()
		logger.Debug("stress thread finished", "thread", t.ID(), "exit", code)
		t.Destroy()
	}
	return time.Since(start), errors.Join(errs...)
}
