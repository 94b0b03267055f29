package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdRestart)
}

var cmdRestart = &cobra.Command{
	Use:   "restart",
	Short: "Ask the host to relaunch itself (request-restart)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := controller().RequestRestart(commandContext(cmd), timeout()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Restart requested.")
		return nil
	},
}
