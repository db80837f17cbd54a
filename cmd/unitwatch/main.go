package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const examples = `  # Basic usage (reads the push token from secrets/wechat_token.txt)
  unitwatch

  # Specify the push notification method
  unitwatch --wechat-method serverchan

  # Custom check interval
  unitwatch --interval 30

  # Show the browser window
  unitwatch --no-headless`

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "[FATAL]", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &AppFlags{}

	cmd := &cobra.Command{
		Use:           "unitwatch",
		Short:         "Monitor apartment unit availability and notify on changes",
		Example:       examples,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}

	flags.register(cmd.Flags())
	return cmd
}
