package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// NewDataStoreCommand creates the datastore command group
func NewDataStoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datastore",
		Aliases: []string{"ds"},
		Short:   "Manage standard data stores",
		Long:    "List data stores and read, write, and version entries.",
	}

	cmd.AddCommand(newDataStoreListCommand())
	cmd.AddCommand(newDataStoreListKeysCommand())
	cmd.AddCommand(newDataStoreGetCommand())
	cmd.AddCommand(newDataStoreSetCommand())
	cmd.AddCommand(newDataStoreIncrementCommand())
	cmd.AddCommand(newDataStoreDeleteCommand())
	cmd.AddCommand(newDataStoreVersionsCommand())

	return cmd
}

func newDataStoreListCommand() *cobra.Command {
	var (
		prefix string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List data stores in the universe",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			universe, err := universeID()
			if err != nil {
				return err
			}

			stores, err := client.DataStores().List(cmd.Context(), universe, prefix, opencloud.WithLimit(limit)).All()
			if err != nil {
				return fmt.Errorf("failed to list data stores: %w", err)
			}

			return renderOutput(stores, func() error {
				if len(stores) == 0 {
					fmt.Println("No data stores found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Name", "Created")

				for _, store := range stores {
					_ = table.Append(store.Name, formatTime(store.CreatedTime))
				}

				_ = table.Render()

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only list data stores whose name starts with prefix")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}

func newDataStoreListKeysCommand() *cobra.Command {
	var (
		scope     string
		prefix    string
		allScopes bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list-keys <datastore>",
		Short: "List keys in a data store",
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

			if allScopes {
				scope = ""
			}

			keys, err := client.DataStores().ListKeys(cmd.Context(), universe, args[0], scope, prefix, opencloud.WithLimit(limit)).All()
			if err != nil {
				return fmt.Errorf("failed to list keys: %w", err)
			}

			return renderOutput(keys, func() error {
				if len(keys) == 0 {
					fmt.Println("No keys found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Key", "Scope")

				for _, key := range keys {
					_ = table.Append(key.Key, key.Scope)
				}

				_ = table.Render()

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only list keys that start with prefix")
	cmd.Flags().BoolVar(&allScopes, "all-scopes", false, "list keys across every scope")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}

func newDataStoreGetCommand() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "get <datastore> <key>",
		Short: "Read a data store entry",
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

			entry, err := client.DataStores().GetEntry(cmd.Context(), universe, args[0], scope, args[1])
			if err != nil {
				return fmt.Errorf("failed to get entry: %w", err)
			}

			return renderOutput(entry, func() error {
				fmt.Println(compactJSON(entry.Value))
				fmt.Fprintf(os.Stderr, "version %s, updated %s\n", entry.Info.Version, entry.Info.Updated.Format(timeFormat))

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")

	return cmd
}

func newDataStoreSetCommand() *cobra.Command {
	var (
		scope           string
		matchVersion    string
		exclusiveCreate bool
		userIDs         []int64
	)

	cmd := &cobra.Command{
		Use:   "set <datastore> <key> <value>",
		Short: "Write a data store entry",
		Long: `Write a JSON value to a data store key. The value argument is parsed
as JSON; an argument that is not valid JSON is stored as a string.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			universe, err := universeID()
			if err != nil {
				return err
			}

			opts := &opencloud.SetEntryOptions{
				UserIDs:         userIDs,
				ExclusiveCreate: exclusiveCreate,
				MatchVersion:    matchVersion,
			}

			version, err := client.DataStores().SetEntry(cmd.Context(), universe, args[0], scope, args[1], parseValueArg(args[2]), opts)
			if err != nil {
				return fmt.Errorf("failed to set entry: %w", err)
			}

			return renderOutput(version, func() error {
				fmt.Println("Stored version", version.Version)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")
	cmd.Flags().StringVar(&matchVersion, "match-version", "", "only write if the current version matches")
	cmd.Flags().BoolVar(&exclusiveCreate, "exclusive-create", false, "only write if the key does not exist")
	cmd.Flags().Int64SliceVar(&userIDs, "user", nil, "user IDs to attribute the entry to (repeatable)")

	return cmd
}

func newDataStoreIncrementCommand() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "increment <datastore> <key> <delta>",
		Short: "Increment a numeric data store entry",
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

			entry, err := client.DataStores().IncrementEntry(cmd.Context(), universe, args[0], scope, args[1], delta, nil)
			if err != nil {
				return fmt.Errorf("failed to increment entry: %w", err)
			}

			return renderOutput(entry, func() error {
				fmt.Println(compactJSON(entry.Value))

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")

	return cmd
}

func newDataStoreDeleteCommand() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "delete <datastore> <key>",
		Short: "Delete a data store entry",
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

			err = client.DataStores().DeleteEntry(cmd.Context(), universe, args[0], scope, args[1])
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

func newDataStoreVersionsCommand() *cobra.Command {
	var (
		scope      string
		descending bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "versions <datastore> <key>",
		Short: "List versions of a data store entry",
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

			opts := &opencloud.ListVersionsOptions{}
			if descending {
				opts.SortOrder = opencloud.SortOrderDescending
			} else {
				opts.SortOrder = opencloud.SortOrderAscending
			}

			versions, err := client.DataStores().ListVersions(cmd.Context(), universe, args[0], scope, args[1], opts, opencloud.WithLimit(limit)).All()
			if err != nil {
				return fmt.Errorf("failed to list versions: %w", err)
			}

			return renderOutput(versions, func() error {
				if len(versions) == 0 {
					fmt.Println("No versions found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Version", "Created", "Size", "Deleted")

				for _, version := range versions {
					_ = table.Append(version.Version,
						version.CreatedTime.Format(timeFormat),
						strconv.FormatInt(version.ContentLength, 10),
						strconv.FormatBool(version.Deleted))
				}

				_ = table.Render()

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "global", "data store scope")
	cmd.Flags().BoolVar(&descending, "descending", true, "newest versions first")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}
