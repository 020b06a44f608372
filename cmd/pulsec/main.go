// Command pulsec is the client runtime's devtool: inspect a route tree
// against candidate paths, and summarize an exported offline-cache dump.
// Grounded on the teacher's cmd/vango/main.go cobra root wiring.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "pulsec",
		Short:   "Pulse client runtime devtool",
		Long:    `pulsec inspects the route tree and offline cache a pulsewasm build runs against.`,
		Version: version,
	}

	rootCmd.AddCommand(newRoutesCommand())
	rootCmd.AddCommand(newCacheCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
