package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shellhost/internal/app"
	"shellhost/internal/settings"
)

func init() {
	rootCmd.AddCommand(cmdConfig)
	cmdConfig.AddCommand(cmdConfigGet)
	cmdConfig.AddCommand(cmdConfigSet)
}

var cmdConfig = &cobra.Command{
	Use:   "config",
	Short: "Read or change the shell settings through the host",
}

var cmdConfigGet = &cobra.Command{
	Use:   "get",
	Short: "Print the current settings (get-config)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := controller().GetConfig(commandContext(cmd), timeout())
		if err != nil {
			return err
		}
		return printSettings(cmd, s)
	},
}

var cmdConfigSet = &cobra.Command{
	Use:   "set <menuBarVisible|hideScrollBar> <true|false>",
	Short: "Change one setting (update-config)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("value must be true or false: %w", err)
		}
		s, err := controller().SetConfig(commandContext(cmd), app.SetParams{
			Key:     args[0],
			Value:   value,
			Timeout: timeout(),
		})
		if err != nil {
			return err
		}
		return printSettings(cmd, s)
	},
}

func printSettings(cmd *cobra.Command, s settings.Settings) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
