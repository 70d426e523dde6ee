package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// NewGroupsCommand creates the groups command group
func NewGroupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Read group metadata",
	}

	cmd.AddCommand(newGroupsGetCommand())
	cmd.AddCommand(newGroupsShoutCommand())
	cmd.AddCommand(newGroupsMembersCommand())
	cmd.AddCommand(newGroupsRolesCommand())

	return cmd
}

func newGroupsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <group-id>",
		Short: "Read a group's public metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			groupID, err := parseID(args[0])
			if err != nil {
				return err
			}

			group, err := client.Groups().Get(cmd.Context(), groupID)
			if err != nil {
				return fmt.Errorf("failed to get group: %w", err)
			}

			return renderOutput(group, func() error {
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("ID", "Name", "Members", "Verified")
				_ = table.Append(group.ID, group.Name,
					strconv.Itoa(group.MemberCount),
					strconv.FormatBool(group.Verified))
				_ = table.Render()

				return nil
			})
		},
	}
}

func newGroupsShoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shout <group-id>",
		Short: "Read a group's current shout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			groupID, err := parseID(args[0])
			if err != nil {
				return err
			}

			shout, err := client.Groups().GetShout(cmd.Context(), groupID)
			if err != nil {
				return fmt.Errorf("failed to get shout: %w", err)
			}

			return renderOutput(shout, func() error {
				fmt.Println(shout.Content)

				return nil
			})
		},
	}
}

func newGroupsMembersCommand() *cobra.Command {
	var (
		filter string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "members <group-id>",
		Short: "List group members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			groupID, err := parseID(args[0])
			if err != nil {
				return err
			}

			memberships, err := client.Groups().ListMemberships(cmd.Context(), groupID, filter, opencloud.WithLimit(limit)).All()
			if err != nil {
				return fmt.Errorf("failed to list members: %w", err)
			}

			return renderOutput(memberships, func() error {
				if len(memberships) == 0 {
					fmt.Println("No members found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("User", "Role", "Joined")

				for _, membership := range memberships {
					_ = table.Append(membership.User, membership.Role, formatTime(membership.CreateTime))
				}

				_ = table.Render()

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "server-side filter, e.g. \"user == 'users/123'\"")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}

func newGroupsRolesCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "roles <group-id>",
		Short: "List group roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			groupID, err := parseID(args[0])
			if err != nil {
				return err
			}

			roles, err := client.Groups().ListRoles(cmd.Context(), groupID, opencloud.WithLimit(limit)).All()
			if err != nil {
				return fmt.Errorf("failed to list roles: %w", err)
			}

			return renderOutput(roles, func() error {
				if len(roles) == 0 {
					fmt.Println("No roles found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Rank", "Name", "Members")

				for _, role := range roles {
					_ = table.Append(strconv.Itoa(role.Rank), role.Name, strconv.Itoa(role.MemberCount))
				}

				_ = table.Render()

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}
