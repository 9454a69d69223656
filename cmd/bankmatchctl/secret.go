package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nkiryanov/bankmatch/internal/service/auth/tokenmanager"
)

func secretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate a random secret key to sign API tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := tokenmanager.NewSecret()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), secret)
			return err
		},
	}
}
