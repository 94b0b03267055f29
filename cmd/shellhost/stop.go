package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdStop)
	rootCmd.AddCommand(cmdStatus)
}

var stopForce bool

func init() {
	cmdStop.Flags().BoolVarP(&stopForce, "force", "f", false, "Send SIGKILL if the host ignores SIGTERM")
}

var cmdStop = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running host",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		if !ctrl.Status().Running {
			fmt.Fprintln(cmd.OutOrStdout(), "Host is not running.")
			return nil
		}
		if err := ctrl.StopHost(stopForce); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Host stopped.")
		return nil
	},
}

var cmdStatus = &cobra.Command{
	Use:   "status",
	Short: "Show whether the host is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := controller().Status()
		out := cmd.OutOrStdout()
		switch {
		case st.Running && st.PID > 0:
			fmt.Fprintf(out, "Host running (pid %d) on %s\n", st.PID, st.Socket)
		case st.Running:
			fmt.Fprintf(out, "Host running on %s\n", st.Socket)
		case st.PID > 0 && st.StalePID:
			fmt.Fprintf(out, "Host not running (stale pid file for %d)\n", st.PID)
		default:
			fmt.Fprintln(out, "Host not running")
		}
		return nil
	},
}
