package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	syncservice "github.com/wordbase/wordbase/internal/client/sync"
)

func newSyncCmd(opts *options) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize local data with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			client := opts.newAPIClient()

			token, err := accessToken(ctx, client, store)
			if err != nil {
				return err
			}

			logOutput := io.Discard
			if verbose {
				logOutput = cmd.ErrOrStderr()
			}
			logger := slog.New(slog.NewTextHandler(logOutput, nil))

			svc := syncservice.NewService(client, store, store, logger)

			result, err := svc.Sync(ctx, token)
			if err != nil {
				return fmt.Errorf("synchronization failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Synchronized: pushed %d, pulled %d\n",
				result.Pushed, result.Pulled)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log sync details")

	return cmd
}
