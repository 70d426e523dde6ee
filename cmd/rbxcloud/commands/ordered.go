package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// NewOrderedCommand creates the ordered data store command group
func NewOrderedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ordered",
		Aliases: []string{"ods"},
		Short:   "Manage ordered data stores",
		Long:    "List, create, update, and delete ordered data store entries.",
	}

	cmd.AddCommand(newOrderedListCommand())
	cmd.AddCommand(newOrderedGetCommand())
	cmd.AddCommand(newOrderedSetCommand())
	cmd.AddCommand(newOrderedIncrementCommand())
	cmd.AddCommand(newOrderedDeleteCommand())

	return cmd
}

func renderOrderedEntry(entry *opencloud.OrderedEntry) error {
	return renderOutput(entry, func() error {
		fmt.Printf("%s = %d\n", entry.ID, entry.Value)

		return nil
	})
}

func newOrderedListCommand() *cobra.Command {
	var (
		scope     string
		ascending bool
		filter    string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list <datastore>",
		Short: "List ordered data store entries by value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			universe, err := universeID()
			if err != nil {
				return err
			}

			opts := &opencloud.OrderedListOptions{
				Descending: !ascending,
				Filter:     filter,
			}

			entries, err := client.OrderedDataStores().List(cmd.Context(), universe, args[0], scope, opts, opencloud.WithLimit(limit)).All()
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			return renderOutput(entries, func() error {
				if len(entries) == 0 {
					fmt.Println("No entries found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Value")

				for _, entry := range entries {
					_ = table.Append(entry.ID, strconv.FormatInt(entry.Value, 10))
				}

				_ = table.Render()

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")
	cmd.Flags().BoolVar(&ascending, "ascending", false, "lowest values first")
	cmd.Flags().StringVar(&filter, "filter", "", "server-side filter, e.g. \"entry > 10\"")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}

func newOrderedGetCommand() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "get <datastore> <id>",
		Short: "Read an ordered data store entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			universe, err := universeID()
			if err != nil {
				return err
			}

			entry, err := client.OrderedDataStores().Get(cmd.Context(), universe, args[0], scope, args[1])
			if err != nil {
				return fmt.Errorf("failed to get entry: %w", err)
			}

			return renderOrderedEntry(entry)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")

	return cmd
}

func newOrderedSetCommand() *cobra.Command {
	var (
		scope  string
		create bool
	)

	cmd := &cobra.Command{
		Use:   "set <datastore> <id> <value>",
		Short: "Create or update an ordered data store entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			universe, err := universeID()
			if err != nil {
				return err
			}

			value, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("parsing value %q: %w", args[2], err)
			}

			var entry *opencloud.OrderedEntry
			if create {
				entry, err = client.OrderedDataStores().Create(cmd.Context(), universe, args[0], scope, args[1], value)
			} else {
				entry, err = client.OrderedDataStores().Update(cmd.Context(), universe, args[0], scope, args[1], value)
			}

			if err != nil {
				return fmt.Errorf("failed to set entry: %w", err)
			}

			return renderOrderedEntry(entry)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")
	cmd.Flags().BoolVar(&create, "create", false, "create the entry instead of updating it")

	return cmd
}

func newOrderedIncrementCommand() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "increment <datastore> <id> <delta>",
		Short: "Increment an ordered data store entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			universe, err := universeID()
			if err != nil {
				return err
			}

			delta, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("parsing delta %q: %w", args[2], err)
			}

			entry, err := client.OrderedDataStores().Increment(cmd.Context(), universe, args[0], scope, args[1], delta)
			if err != nil {
				return fmt.Errorf("failed to increment entry: %w", err)
			}

			return renderOrderedEntry(entry)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")

	return cmd
}

func newOrderedDeleteCommand() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "delete <datastore> <id>",
		Short: "Delete an ordered data store entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			universe, err := universeID()
			if err != nil {
				return err
			}

			err = client.OrderedDataStores().Delete(cmd.Context(), universe, args[0], scope, args[1])
			if err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}

			fmt.Println("Deleted", args[1])

			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")

	return cmd
}
