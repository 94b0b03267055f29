package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdPing)
}

// `shellhost ping` checks that the host answers on its socket and prints
// "pong".
var cmdPing = &cobra.Command{
	Use:   "ping",
	Short: "Check host availability (expects 'pong')",
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := controller().Ping(commandContext(cmd), timeout())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}
