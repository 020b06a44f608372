package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erwinkn/pulse-ui-sub000/pkg/router"
	"github.com/spf13/cobra"
)

func newRoutesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Inspect a route tree",
	}
	cmd.AddCommand(newRoutesCheckCommand())
	cmd.AddCommand(newRoutesTUICommand())
	return cmd
}

func newRoutesCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <routes.yaml> <path>",
		Short: "Resolve a path against a route tree and print the matched chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := loadRoutes(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), describeMatch(routes, args[1]))
			return nil
		},
	}
}

// describeMatch renders router.SelectBestMatch's result as human-readable
// text: the matched route chain, params, and any catch-all remainder, or a
// "no match" line.
func describeMatch(routes []*router.Route, path string) string {
	m := router.SelectBestMatch(routes, path)
	if m == nil {
		return fmt.Sprintf("%s -> no match\n", path)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s -> matched\n", path)
	var chain []string
	for _, r := range m.Chain {
		switch {
		case r.Index:
			chain = append(chain, "(index)")
		case r.Path == "":
			chain = append(chain, "(layout)")
		default:
			chain = append(chain, r.Path)
		}
	}
	fmt.Fprintf(&b, "  chain: %s\n", strings.Join(chain, " -> "))
	if len(m.Params) > 0 {
		keys := make([]string, 0, len(m.Params))
		for k := range m.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(&b, "  params:")
		for _, k := range keys {
			fmt.Fprintf(&b, "    %s = %v\n", k, m.Params[k])
		}
	}
	if rest := m.Catchall(); len(rest) > 0 {
		fmt.Fprintf(&b, "  catchall: %s\n", strings.Join(rest, "/"))
	}
	return b.String()
}
