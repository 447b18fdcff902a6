package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"signal-relay/pkg/auth"
)

var (
	tokenSecret string
	tokenSub    string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an operator token for the /rooms endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenSecret == "" {
			return errors.New("--secret (or ADMIN_JWT_SECRET) is required")
		}
		tok, err := auth.New(tokenSecret).Sign(tokenSub, auth.ScopeRoomsRead, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", os.Getenv("ADMIN_JWT_SECRET"), "operator JWT secret")
	tokenCmd.Flags().StringVar(&tokenSub, "sub", "operator", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}
