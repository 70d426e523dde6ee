package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// NewUsersCommand creates the users command group
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Read user metadata",
	}

	cmd.AddCommand(newUsersGetCommand())
	cmd.AddCommand(newUsersInventoryCommand())

	return cmd
}

func newUsersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id>",
		Short: "Read a user's public metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			userID, err := parseID(args[0])
			if err != nil {
				return err
			}

			user, err := client.Users().Get(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}

			return renderOutput(user, func() error {
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Username", "Display Name", "Premium")
				_ = table.Append(user.ID, user.Username, user.DisplayName, strconv.FormatBool(user.Premium))
				_ = table.Render()

				return nil
			})
		},
	}
}

func newUsersInventoryCommand() *cobra.Command {
	var (
		filter string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "inventory <user-id>",
		Short: "List a user's inventory items",
		Long: `List the items in a user's inventory. Only items visible to the
authorization are returned; private inventories need OAuth2 consent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			userID, err := parseID(args[0])
			if err != nil {
				return err
			}

			opts := &opencloud.InventoryListOptions{Filter: filter}

			items, err := client.Users().ListInventoryItems(cmd.Context(), userID, opts, opencloud.WithLimit(limit)).All()
			if err != nil {
				return fmt.Errorf("failed to list inventory: %w", err)
			}

			return renderOutput(items, func() error {
				if len(items) == 0 {
					fmt.Println("No inventory items found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Path", "Kind", "ID")

				for _, item := range items {
					kind, id := describeInventoryItem(item)
					_ = table.Append(item.Path, kind, id)
				}

				_ = table.Render()

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "server-side filter, e.g. \"badgeIds=111,222\"")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}

func describeInventoryItem(item opencloud.InventoryItem) (kind, id string) {
	switch {
	case item.AssetDetails != nil:
		return item.AssetDetails.InventoryItemAssetType, item.AssetDetails.AssetID
	case item.BadgeDetails != nil:
		return "BADGE", item.BadgeDetails.BadgeID
	case item.GamePassDetails != nil:
		return "GAME_PASS", item.GamePassDetails.GamePassID
	case item.PrivateServerDetails != nil:
		return "PRIVATE_SERVER", item.PrivateServerDetails.PrivateServerID
	default:
		return Unknown, NotAvailable
	}
}
