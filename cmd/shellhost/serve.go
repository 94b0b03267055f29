package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"shellhost/internal/app"
	"shellhost/internal/host"
	"shellhost/internal/window"
)

func init() {
	rootCmd.AddCommand(cmdServe)
}

var serveForce bool

func init() {
	cmdServe.Flags().BoolVarP(&serveForce, "force", "f", false, "Replace a host that is already running")
}

var cmdServe = &cobra.Command{
	Use:   "serve",
	Short: "Run the host process",
	Long:  `Loads the settings file, opens the primary surface and serves the bridge until interrupted, the last surface closes, or a surface requests a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		var runSpin *spinner.Spinner
		if isatty.IsTerminal(os.Stdout.Fd()) {
			runSpin = spinner.New(spinner.CharSets[21], 120*time.Millisecond, spinner.WithWriter(os.Stdout))
			runSpin.Suffix = " Running..."
		}

		exit, err := controller().Serve(ctx, app.ServeOptions{
			Force: serveForce,
			Ready: func(socket string, primary window.Handle) {
				fmt.Fprintf(out, "Host started (pid %d) on %s, primary surface %d\n", os.Getpid(), socket, primary)
				if runSpin != nil {
					runSpin.Start()
				}
			},
		})
		if runSpin != nil {
			runSpin.Stop()
		}
		if errors.Is(err, host.ErrAlreadyRunning) {
			fmt.Fprintf(out, "%v\n", err)
			return nil
		}
		if err != nil {
			return err
		}
		switch exit {
		case host.ExitRelaunched:
			fmt.Fprintln(out, "Host relaunched.")
		case host.ExitAllClosed:
			fmt.Fprintln(out, "All surfaces closed, host stopped.")
		default:
			fmt.Fprintln(out, "Host stopped.")
		}
		return nil
	},
}
