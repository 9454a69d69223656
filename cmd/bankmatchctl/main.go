// Command bankmatchctl is an operator toolbox: secrets, API tokens, variable symbols and QR payloads.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bankmatchctl",
		Short:         "Operator tools for the bankmatch service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(secretCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(vsCmd())
	rootCmd.AddCommand(qrCmd())

	return rootCmd
}
