package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wordbase/wordbase/internal/client/storage"
	"github.com/wordbase/wordbase/pkg/api"
)

func newRegisterCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email := args[0]

			if password == "" {
				var err error
				password, err = readPassword("Password: ")
				if err != nil {
					return err
				}
			}

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			client := opts.newAPIClient()

			resp, err := client.Register(ctx, api.RegisterRequest{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			if err := store.SaveAuth(ctx, sessionFromAuth(email, resp)); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in to the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email := args[0]

			if password == "" {
				var err error
				password, err = readPassword("Password: ")
				if err != nil {
					return err
				}
			}

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			client := opts.newAPIClient()

			resp, err := client.Login(ctx, api.LoginRequest{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			if err := store.SaveAuth(ctx, sessionFromAuth(email, resp)); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and drop the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			client := opts.newAPIClient()

			if token, err := accessToken(ctx, client, store); err == nil {
				// Best effort: the local session is dropped either way.
				if err := client.Logout(ctx, token); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: server logout failed: %v\n", err)
				}
			}

			if err := store.DeleteAuth(ctx); err != nil {
				if errors.Is(err, storage.ErrAuthNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
					return nil
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and pending changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			auth, err := store.GetAuth(ctx)
			switch {
			case errors.Is(err, storage.ErrAuthNotFound):
				fmt.Fprintln(out, "Session:  not logged in")
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Session:  %s\n", auth.Email)
				if time.Now().UnixMilli() >= auth.ExpiresAt {
					fmt.Fprintln(out, "Token:    expired (will refresh on next sync)")
				}
			}

			cursor, err := store.GetSyncCursor(ctx)
			if err != nil {
				return err
			}
			if cursor == 0 {
				fmt.Fprintln(out, "Last sync: never")
			} else {
				fmt.Fprintf(out, "Last sync: %s\n", time.UnixMilli(cursor).Format(time.RFC3339))
			}

			entries, err := store.ListEntries(ctx, "")
			if err != nil {
				return err
			}

			pending := 0
			for _, entry := range entries {
				if entry.Dirty || len(entry.Pending) > 0 {
					pending++
				}
			}
			fmt.Fprintf(out, "Entries:  %d (%d pending sync)\n", len(entries), pending)

			return nil
		},
	}
}
