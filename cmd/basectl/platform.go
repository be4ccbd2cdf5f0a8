package main

import (
	"fmt"
	"io"

	"github.com/joshuapare/basekit/platform"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPlatformCmd())
}

func newPlatformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Report the operating system and architecture of this build",
		Long: `The platform command prints the OS and architecture names the platform
layer resolved for this build, plus page size and CPU count.

Example:
  basectl platform
  basectl platform --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlatform(cmd.OutOrStdout())
		},
	}
}

func runPlatform(w io.Writer) error {
	info := platform.Info()
	if jsonOut {
		return printJSON(w, info)
	}

	fmt.Fprintf(w, "OS:           %s\n", info.OS)
	fmt.Fprintf(w, "Architecture: %s\n", info.Architecture)
	fmt.Fprintf(w, "Page size:    %d\n", info.PageSize)
	fmt.Fprintf(w, "CPUs:         %d\n", info.NumCPU)
	fmt.Fprintf(w, "Go:           %s\n", info.GoVersion)
	return nil
}
