package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// NewMemoryStoreCommand creates the memorystore command group
func NewMemoryStoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "memorystore",
		Aliases: []string{"ms"},
		Short:   "Manage memory store sorted maps and queues",
	}

	sortedMap := &cobra.Command{
		Use:   "map",
		Short: "Manage sorted maps",
	}
	sortedMap.AddCommand(newSortedMapListCommand())
	sortedMap.AddCommand(newSortedMapGetCommand())
	sortedMap.AddCommand(newSortedMapSetCommand())
	sortedMap.AddCommand(newSortedMapDeleteCommand())

	queue := &cobra.Command{
		Use:   "queue",
		Short: "Manage queues",
	}
	queue.AddCommand(newQueueAddCommand())
	queue.AddCommand(newQueueReadCommand())
	queue.AddCommand(newQueueDiscardCommand())

	cmd.AddCommand(sortedMap)
	cmd.AddCommand(queue)

	return cmd
}

func newSortedMapListCommand() *cobra.Command {
	var (
		descending bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list <map>",
		Short: "List sorted map entries",
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

			opts := &opencloud.SortedMapListOptions{Descending: descending}

			entries, err := client.MemoryStore().SortedMapList(cmd.Context(), universe, args[0], opts, opencloud.WithLimit(limit)).All()
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			return renderOutput(entries, func() error {
				if len(entries) == 0 {
					fmt.Println("No entries found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Key", "Value", "Sort Key", "Expires")

				for _, entry := range entries {
					sortKey := NotAvailable
					if entry.SortKey != nil {
						sortKey = fmt.Sprintf("%v", entry.SortKey)
					}

					_ = table.Append(entry.Key, compactJSON(entry.Value), sortKey, formatTime(entry.ExpireTime))
				}

				_ = table.Render()

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&descending, "descending", false, "highest sort keys first")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}

func newSortedMapGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <map> <key>",
		Short: "Read a sorted map entry",
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

			entry, err := client.MemoryStore().SortedMapGet(cmd.Context(), universe, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get entry: %w", err)
			}

			return renderOutput(entry, func() error {
				fmt.Println(compactJSON(entry.Value))

				return nil
			})
		},
	}
}

func newSortedMapSetCommand() *cobra.Command {
	var (
		ttl     time.Duration
		sortKey string
	)

	cmd := &cobra.Command{
		Use:   "set <map> <key> <value>",
		Short: "Write a sorted map entry",
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

			opts := &opencloud.SortedMapSetOptions{}
			if sortKey != "" {
				opts.SortKey = parseValueArg(sortKey)
			}

			entry, err := client.MemoryStore().SortedMapSet(cmd.Context(), universe, args[0], args[1], parseValueArg(args[2]), ttl, opts)
			if err != nil {
				return fmt.Errorf("failed to set entry: %w", err)
			}

			return renderOutput(entry, func() error {
				fmt.Println("Stored", entry.Key)

				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "how long the entry lives")
	cmd.Flags().StringVar(&sortKey, "sort-key", "", "numeric or string sort key")

	return cmd
}

func newSortedMapDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <map> <key>",
		Short: "Delete a sorted map entry",
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

			err = client.MemoryStore().SortedMapDelete(cmd.Context(), universe, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}

			fmt.Println("Deleted", args[1])

			return nil
		},
	}
}

func newQueueAddCommand() *cobra.Command {
	var (
		ttl      time.Duration
		priority float64
	)

	cmd := &cobra.Command{
		Use:   "add <queue> <value>",
		Short: "Add an item to a queue",
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

			err = client.MemoryStore().QueueAdd(cmd.Context(), universe, args[0], parseValueArg(args[1]), ttl, priority)
			if err != nil {
				return fmt.Errorf("failed to add item: %w", err)
			}

			fmt.Println("Added item to", args[0])

			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "how long the item lives")
	cmd.Flags().Float64Var(&priority, "priority", 0, "higher priorities are read first")

	return cmd
}

func newQueueReadCommand() *cobra.Command {
	var (
		count        int
		allOrNothing bool
		invisibility time.Duration
	)

	cmd := &cobra.Command{
		Use:   "read <queue>",
		Short: "Read items from a queue",
		Long: `Read items from the front of a queue. Read items stay invisible to
other readers until the invisibility window lapses or they are
discarded with the printed read ID.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			universe, err := universeID()
			if err != nil {
				return err
			}

			opts := &opencloud.QueueReadOptions{
				Count:               count,
				AllOrNothing:        allOrNothing,
				InvisibilityTimeout: invisibility,
			}

			result, err := client.MemoryStore().QueueRead(cmd.Context(), universe, args[0], opts)
			if err != nil {
				return fmt.Errorf("failed to read queue: %w", err)
			}

			return renderOutput(result, func() error {
				if len(result.Items) == 0 {
					fmt.Println("Queue is empty")

					return nil
				}

				for _, item := range result.Items {
					fmt.Println(compactJSON(item))
				}

				fmt.Fprintln(os.Stderr, "read ID:", result.ReadID)

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of items to read")
	cmd.Flags().BoolVar(&allOrNothing, "all-or-nothing", false, "return nothing unless count items are available")
	cmd.Flags().DurationVar(&invisibility, "invisibility", 30*time.Second, "how long read items stay hidden")

	return cmd
}

func newQueueDiscardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discard <queue> <read-id>",
		Short: "Permanently remove previously read items",
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

			err = client.MemoryStore().QueueDiscard(cmd.Context(), universe, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to discard items: %w", err)
			}

			fmt.Println("Discarded")

			return nil
		},
	}
}
