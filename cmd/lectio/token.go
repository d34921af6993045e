package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lectio-edu/lectio/internal/auth"
)

type RoleFlag string

// Set implements pflag.Value.
func (r *RoleFlag) Set(v string) error {
	switch v {
	case auth.RoleUser, auth.RoleAdmin:
		*r = RoleFlag(v)
	default:
		return fmt.Errorf("invalid value %q, valid values are %q or %q", v, auth.RoleUser, auth.RoleAdmin)
	}
	return nil
}

// String implements pflag.Value.
func (r *RoleFlag) String() string {
	if r == nil {
		return ""
	}
	return string(*r)
}

// Type implements pflag.Value.
func (r *RoleFlag) Type() string {
	return "RoleFlag"
}

var (
	_ pflag.Value = (*RoleFlag)(nil)
)

func newTokenCommand() *cobra.Command {
	tokenCommand := &cobra.Command{
		Use:   "token",
		Short: "API token commands",
	}
	tokenCommand.AddCommand(newTokenIssueCommand())
	return tokenCommand
}

func newTokenIssueCommand() *cobra.Command {
	var userID string
	role := RoleFlag(auth.RoleUser)
	var ttl time.Duration

	command := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed API token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("LECTIO_JWT_SECRET environment variable is required")
			}
			if ttl == 0 {
				ttl = time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
			}

			token, err := auth.NewService(cfg.Auth.JWTSecret).IssueToken(userID, string(role), ttl)
			if err != nil {
				return fmt.Errorf("IssueToken() > %w", err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), token); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}

	flags := command.Flags()
	flags.StringVar(&userID, "user", "", "user id written to the token subject")
	flags.Var(&role, "role", "Role of the user. Options: user, admin")
	flags.DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to auth.token_ttl_hours")
	_ = command.MarkFlagRequired("user")

	return command
}
