package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shellhost/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdWindow)
	cmdWindow.AddCommand(cmdWindowNew)
	cmdWindow.AddCommand(cmdWindowInfo)
}

var cmdWindow = &cobra.Command{
	Use:       "window <minimize|maximize|close>",
	Short:     "Send a window action to a surface (window-action)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"minimize", "maximize", "close"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return controller().WindowAction(commandContext(cmd), timeout(), args[0])
	},
}

var cmdWindowNew = &cobra.Command{
	Use:   "new",
	Short: "Open an additional surface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := controller().NewWindow(commandContext(cmd), timeout())
		if err != nil {
			return err
		}
		printSurface(cmd, s)
		return nil
	},
}

var cmdWindowInfo = &cobra.Command{
	Use:   "info",
	Short: "Describe a surface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := controller().SurfaceInfo(commandContext(cmd), timeout())
		if err != nil {
			return err
		}
		printSurface(cmd, s)
		return nil
	},
}

func printSurface(cmd *cobra.Command, s app.Surface) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "surface=%d frame=%s size=%dx%d primary=%t\n", s.Handle, s.Frame, s.Width, s.Height, s.Primary)
	fmt.Fprintf(out, "minimized=%t maximized=%t focused=%t\n", s.Minimized, s.Maximized, s.Focused)
	fmt.Fprintf(out, "rules=[%s]\n", strings.Join(s.Rules, ","))
}
