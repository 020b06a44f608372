package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/erwinkn/pulse-ui-sub000/cmd/pulsec/internal/ui"
	"github.com/spf13/cobra"
)

func newRoutesTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui <routes.yaml>",
		Short: "Interactively type a path and watch it resolve against a route tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := loadRoutes(args[0])
			if err != nil {
				return err
			}
			p := tea.NewProgram(ui.NewRouteModel(routes))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("pulsec: tui: %w", err)
			}
			return nil
		},
	}
}
