// Package cli implements the wordbase command line client.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordbase/wordbase/internal/client/api"
	"github.com/wordbase/wordbase/internal/client/storage/boltdb"
)

// options are the global flags shared by every command.
type options struct {
	serverURL string
	dbPath    string
}

// NewRootCmd builds the wordbase command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "wordbase",
		Short:         "Offline-capable vocabulary client",
		Long:          "Wordbase keeps your study data locally and synchronizes it with the server on demand.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.serverURL, "server", "http://localhost:8080", "Server URL")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "wordbase-client.db", "Path to local database")

	root.AddCommand(
		newRegisterCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newSetCmd(opts),
		newGetCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newBumpCmd(opts),
		newSyncCmd(opts),
	)

	return root
}

func (o *options) openStorage(ctx context.Context) (*boltdb.Storage, error) {
	store, err := boltdb.New(ctx, o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	return store, nil
}

func (o *options) newAPIClient() *api.Client {
	return api.NewClient(o.serverURL)
}
