package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wordbase/wordbase/internal/client/storage"
	"github.com/wordbase/wordbase/internal/models"
)

func newSetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <name> <value>",
		Short: "Create or update an entry",
		Long: "Create or update an entry. The value is stored as JSON when it " +
			"parses as JSON, as a plain string otherwise.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category, name, raw := args[0], args[1], args[2]

			value := json.RawMessage(raw)
			if !json.Valid(value) {
				encoded, err := json.Marshal(raw)
				if err != nil {
					return err
				}
				value = encoded
			}

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entry := &storage.Entry{
				Category: category,
				Name:     name,
				Type:     models.TypeValue,
				Value:    value,
				UpdateAt: time.Now().UnixMilli(),
				Dirty:    true,
			}
			if err := store.PutEntry(ctx, entry); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s/%s (pending sync)\n", category, name)
			return nil
		},
	}
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <category> <name>",
		Short: "Print one entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category, name := args[0], args[1]

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.GetEntry(ctx, category, name)
			if err != nil {
				if errors.Is(err, storage.ErrEntryNotFound) {
					return fmt.Errorf("entry %s/%s not found", category, name)
				}
				return err
			}
			if entry.Removed {
				return fmt.Errorf("entry %s/%s not found", category, name)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(entry.Value))
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list [category]",
		Short: "List entries, optionally by category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			category := ""
			if len(args) == 1 {
				category = args[0]
			}

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.ListEntries(ctx, category)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			shown := 0
			for _, entry := range entries {
				if entry.Removed {
					continue
				}
				marker := " "
				if entry.Dirty || len(entry.Pending) > 0 {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s/%s\t%s\n", marker, entry.Category, entry.Name, entry.Value)
				shown++
			}

			if shown == 0 {
				fmt.Fprintln(out, "No entries")
			}
			return nil
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category> <name>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category, name := args[0], args[1]

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.GetEntry(ctx, category, name); err != nil {
				if errors.Is(err, storage.ErrEntryNotFound) {
					return fmt.Errorf("entry %s/%s not found", category, name)
				}
				return err
			}

			// A tombstone, so the deletion reaches other devices.
			entry := &storage.Entry{
				Category: category,
				Name:     name,
				Type:     models.TypeValue,
				UpdateAt: time.Now().UnixMilli(),
				Removed:  true,
				Dirty:    true,
			}
			if err := store.PutEntry(ctx, entry); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s (pending sync)\n", category, name)
			return nil
		},
	}
}

func newBumpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bump <category> <name> [amount]",
		Short: "Add to an accumulation entry",
		Long: "Queue an addition to an accumulation entry, such as a counter. " +
			"The amount defaults to 1. Additions from several devices merge " +
			"instead of overwriting each other.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			category, name := args[0], args[1]

			amount := 1.0
			if len(args) == 3 {
				var err error
				amount, err = strconv.ParseFloat(args[2], 64)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", args[2], err)
				}
			}

			store, err := opts.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.GetEntry(ctx, category, name)
			if err != nil {
				if !errors.Is(err, storage.ErrEntryNotFound) {
					return err
				}
				entry = &storage.Entry{
					Category: category,
					Name:     name,
					Type:     models.TypeAccumulation,
				}
			}

			// Always a fresh change. Folding into an earlier one would
			// reuse an ID the server may have applied already, and the
			// addition would be dropped as a duplicate on retry.
			entry.Pending = append(entry.Pending, storage.PendingChange{
				ID:    uuid.New().String(),
				Value: amount,
			})
			entry.Type = models.TypeAccumulation
			entry.UpdateAt = time.Now().UnixMilli()

			if err := store.PutEntry(ctx, entry); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Queued +%g on %s/%s (pending sync)\n", amount, category, name)
			return nil
		},
	}
}
