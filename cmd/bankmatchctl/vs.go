package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nkiryanov/bankmatch/internal/service/varsym"
)

func vsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vs",
		Short: "Work with variable symbols",
	}

	cmd.AddCommand(vsGenerateCmd())
	cmd.AddCommand(vsValidateCmd())

	return cmd
}

func vsGenerateCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate random variable symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			for range count {
				fmt.Fprintln(cmd.OutOrStdout(), varsym.Generate())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "How many symbols to generate")

	return cmd
}

func vsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <vs>",
		Short: "Check that a variable symbol can be issued to a payer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vs := args[0]
			if !varsym.IsValid(vs) {
				return fmt.Errorf("%q is not a valid variable symbol", vs)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid, bank shows it as %s\n", vs, varsym.Normalize(vs))
			return nil
		},
	}
}
