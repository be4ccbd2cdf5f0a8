package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/joshuapare/basekit/alloc"
	"github.com/spf13/cobra"
)

// errLeaks reports that at least one context failed the round trip.
var errLeaks = errors.New("allocator self-check failed")

// allocCheck is the outcome of one context's round trip.
type allocCheck struct {
	Context string      `json:"context"`
	OK      bool        `json:"ok"`
	Error   string      `json:"error,omitempty"`
	Stats   alloc.Stats `json:"stats"`
	Leaks   int         `json:"leaks"`
}

func init() {
	rootCmd.AddCommand(newAllocCmd())
}

func newAllocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alloc",
		Short: "Run an allocate/resize/free round trip through every allocator context",
		Long: `The alloc command allocates 64 bytes from each allocator context, resizes
the block to 128 bytes, checks the first 64 bytes survived, frees it, and
reports any block left live. Arena and pool sizes come from the settings.

Example:
  basectl alloc
  basectl alloc --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAlloc(cmd.OutOrStdout())
		},
	}
}

func runAlloc(w io.Writer) error {
	contexts, closeAll, err := allocContexts()
	if err != nil {
		return err
	}
	defer closeAll()

	checks := make([]allocCheck, 0, len(contexts))
	failed := false
	for _, c := range contexts {
		check := roundTrip(c.name, c.a)
		failed = failed || !check.OK
		checks = append(checks, check)
	}

	if jsonOut {
		if err := printJSON(w, checks); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CONTEXT\tRESULT\tALLOCS\tFREES\tPEAK\tLEAKS")
		for _, c := range checks {
			result := "ok"
			if !c.OK {
				result = "FAIL: " + c.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", c.Context, result,
				c.Stats.TotalAllocs, c.Stats.TotalFrees, c.Stats.PeakBytes, c.Leaks)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if failed {
		return errLeaks
	}
	return nil
}

type namedAllocator struct {
	name string
	a    alloc.Allocator
}

func allocContexts() ([]namedAllocator, func(), error) {
	arena := alloc.NewArena(nil, alloc.ArenaOptions{
		BlockSize:    settings.Arena.BlockSize,
		MaxBlockSize: settings.Arena.MaxBlockSize,
		Limit:        settings.Arena.Limit,
	})
	pool, err := alloc.NewPool(nil, settings.Pool.SlotSize, settings.Pool.Slots)
	if err != nil {
		return nil, nil, fmt.Errorf("pool: %w", err)
	}
	pages := alloc.NewPages()

	closeAll := func() {
		arena.Release()
		_ = pool.Close()
		pages.FreeAll()
	}
	return []namedAllocator{
		{"heap", alloc.NewHeap()},
		{"arena", arena},
		{"pool", pool},
		{"pages", pages},
		{"default-proc", alloc.ProcAllocator{}},
		{"context-proc", alloc.ProcAllocator{Proc: alloc.ContextProc, Data: arena}},
	}, closeAll, nil
}

// roundTrip runs 64 -> 128 -> free through a under a Tracking wrapper.
func roundTrip(name string, a alloc.Allocator) allocCheck {
	tr := alloc.NewTracking(a)
	check := allocCheck{Context: name}
	fail := func(err error) allocCheck {
		check.Error = err.Error()
		check.Stats = tr.Stats()
		check.Leaks = len(tr.Leaks())
		return check
	}

	block, err := tr.Allocate(64)
	if err != nil {
		return fail(fmt.Errorf("allocate: %w", err))
	}
	for i := range block {
		block[i] = byte(i)
	}
	want := bytes.Clone(block)

	grown, err := tr.Resize(block, 64, 128)
	if err != nil {
		return fail(fmt.Errorf("resize: %w", err))
	}
	if !bytes.Equal(grown[:64], want) {
		return fail(errors.New("resize lost the preserved prefix"))
	}
	if err := tr.Free(grown); err != nil {
		return fail(fmt.Errorf("free: %w", err))
	}

	check.Stats = tr.Stats()
	check.Leaks = len(tr.Leaks())
	check.OK = check.Leaks == 0
	if !check.OK {
		check.Error = "blocks left live"
	}
	return check
}
