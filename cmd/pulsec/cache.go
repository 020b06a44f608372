package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect an exported offline cache dump",
	}
	cmd.AddCommand(newCacheInspectCommand())
	return cmd
}

// cacheDumpEntry mirrors pkg/offlinecache/persist_wasm.go's wireEntry: the
// shape a browser devtools session exports when copying every
// "pulse:cache:*" localStorage value out as a JSON array.
type cacheDumpEntry struct {
	Path      string `json:"path"`
	VDOM      any    `json:"vdom"`
	RouteInfo any    `json:"routeInfo"`
}

func newCacheInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <dump.json>",
		Short: "Summarize an offline cache dump exported from the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("pulsec: read %s: %w", args[0], err)
			}
			var entries []cacheDumpEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("pulsec: parse %s: %w", args[0], err)
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tVDOM BYTES\tHAS ROUTE INFO")
			for _, e := range entries {
				vdomBytes, _ := json.Marshal(e.VDOM)
				fmt.Fprintf(w, "%s\t%d\t%t\n", e.Path, len(vdomBytes), e.RouteInfo != nil)
			}
			return w.Flush()
		},
	}
}
