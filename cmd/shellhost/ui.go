package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shellhost/internal/tui"
)

func init() {
	rootCmd.AddCommand(cmdUI)
}

var cmdUI = &cobra.Command{
	Use:   "ui",
	Short: "Attach the terminal surface to the running host",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tui.Run(tui.FromApp(newApp(), timeout())); err != nil {
			return fmt.Errorf("ui exited with error: %w", err)
		}
		return nil
	},
}
