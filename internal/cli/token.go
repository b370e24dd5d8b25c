package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/diary/internal/auth"
)

// TokenResult is the output of the token command.
type TokenResult struct {
	Identity string `json:"identity"`
	Token    string `json:"token"`
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var identity string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Long: `Issue a signed bearer token whose subject is the caller identity.

Requires auth.jwt_secret in the config (or $DIARY_JWT_SECRET).`,
		Example: `  diary token
  diary token --as alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if identity == "" {
				identity = cfg.Identity
			}

			authority, err := auth.NewAuthority([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to configure auth", err)
			}
			token, err := authority.Issue(identity)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to issue token", err)
			}

			return rootOpts.formatter(cmd).Success(TokenResult{Identity: identity, Token: token}, func(w io.Writer) {
				fmt.Fprintln(w, token)
			})
		},
	}

	cmd.Flags().StringVar(&identity, "as", "", "token subject (default: config identity)")
	return cmd
}
