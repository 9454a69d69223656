package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nkiryanov/bankmatch/internal/service/auth/tokenmanager"
)

func tokenCmd() *cobra.Command {
	var (
		secret string
		client string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a client application",
		Long: `Issue a signed API token. The secret must match the SECRET_KEY of the server.
If --secret is not given the SECRET_KEY environment variable is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("SECRET_KEY")
			}
			if secret == "" {
				return errors.New("secret is required: pass --secret or set SECRET_KEY")
			}

			tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: secret, TTL: ttl})
			if err != nil {
				return err
			}

			token, err := tm.Issue(client)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token.Value)
			fmt.Fprintf(cmd.ErrOrStderr(), "client %s, expires at %s\n", token.Client, token.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&secret, "secret", "s", "", "Secret key the server signs tokens with")
	cmd.Flags().StringVarP(&client, "client", "c", "", "Client application name")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default 90 days)")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}
