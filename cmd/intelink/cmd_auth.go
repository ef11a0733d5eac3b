package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/intelink/console/internal/apperr"
	"github.com/intelink/console/internal/client"
	"github.com/intelink/console/internal/form"
)

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			f := form.New(form.LoginForm{Email: email, Password: password}, form.StructValidator[form.LoginForm]())
			err = f.HandleSubmit(cmd.Context(), func(ctx context.Context, v form.LoginForm) error {
				resp, err := s.api.Auth.Login(ctx, v)
				if err != nil {
					return err
				}
				name := v.Email
				if resp.User != nil && resp.User.Username != "" {
					name = resp.User.Username
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (profile %s)\n", name, opts.profile)
				return nil
			})
			if errors.Is(err, form.ErrInvalid) {
				return fieldErrors(f.Errors())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			// Tokens are gone locally either way.
			if err := s.api.Auth.Logout(cmd.Context()); err != nil && !apperr.IsSuppressed(err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: backend logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			user, err := s.api.Auth.Profile(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", user.Username, user.Email)
			if user.Role != "" {
				fmt.Fprintf(out, "Role: %s\n", user.Role)
			}
			if !user.CreatedAt.IsZero() {
				fmt.Fprintf(out, "Member since %s\n", humanize.Time(user.CreatedAt))
			}

			access, _, err := s.store.Tokens(cmd.Context())
			if err == nil {
				if exp, err := client.TokenExpiry(access); err == nil {
					fmt.Fprintf(out, "Access token expires %s\n", humanize.RelTime(exp, time.Now(), "ago", "from now"))
				}
			}
			return nil
		},
	}
}

// fieldErrors flattens form errors into one message, ordered by field.
func fieldErrors(errs form.Errors) error {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+errs[field])
	}
	return errors.New(strings.Join(parts, "; "))
}
