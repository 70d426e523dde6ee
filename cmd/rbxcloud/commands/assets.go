package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// NewAssetsCommand creates the assets command group
func NewAssetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Upload and manage assets",
	}

	cmd.AddCommand(newAssetsGetCommand())
	cmd.AddCommand(newAssetsUploadCommand())
	cmd.AddCommand(newAssetsUpdateCommand())
	cmd.AddCommand(newAssetsVersionsCommand())
	cmd.AddCommand(newAssetsRollbackCommand())

	return cmd
}

func renderAsset(asset *opencloud.Asset) error {
	return renderOutput(asset, func() error {
		moderation := NotAvailable
		if asset.Moderation != nil {
			moderation = string(asset.Moderation.ModerationState)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "Name", "Type", "Moderation")
		_ = table.Append(asset.ID.String(), asset.Name, string(asset.Type), moderation)
		_ = table.Render()

		return nil
	})
}

func newAssetsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <asset-id>",
		Short: "Read asset metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			assetID, err := parseID(args[0])
			if err != nil {
				return err
			}

			asset, err := client.Assets().Get(cmd.Context(), assetID)
			if err != nil {
				return fmt.Errorf("failed to get asset: %w", err)
			}

			return renderAsset(asset)
		},
	}
}

func newAssetsUploadCommand() *cobra.Command {
	var (
		assetType   string
		name        string
		description string
		userID      string
		groupID     string
		noWait      bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a new asset",
		Long: `Upload a file as a new asset and wait for moderation to finish. Pass
--no-wait to print the operation path and return immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			if assetType == "" {
				return ErrAssetTypeRequired
			}

			if userID == "" && groupID == "" {
				return ErrCreatorRequired
			}

			if name == "" {
				name = filepath.Base(args[0])
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening asset file: %w", err)
			}
			defer func() { _ = file.Close() }()

			request := &opencloud.AssetUploadRequest{
				Type:        opencloud.AssetType(assetType),
				Name:        name,
				Description: description,
				Creator: opencloud.AssetCreator{
					UserID:  userID,
					GroupID: groupID,
				},
			}

			operation, err := client.Assets().Upload(cmd.Context(), request, filepath.Base(args[0]), file)
			if err != nil {
				return fmt.Errorf("failed to upload asset: %w", err)
			}

			if noWait {
				fmt.Println("Upload accepted, operation", operation.Path())

				return nil
			}

			asset, err := operation.Wait(cmd.Context(), opencloud.DefaultWaitOptions())
			if err != nil {
				return fmt.Errorf("waiting for upload: %w", err)
			}

			return renderAsset(asset)
		},
	}

	cmd.Flags().StringVar(&assetType, "type", "", "asset type (Audio, Decal, Model, Video)")
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the file name)")
	cmd.Flags().StringVar(&description, "description", "", "asset description")
	cmd.Flags().StringVar(&userID, "user", "", "user ID that owns the asset")
	cmd.Flags().StringVar(&groupID, "group", "", "group ID that owns the asset")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "do not wait for moderation")

	return cmd
}

func newAssetsUpdateCommand() *cobra.Command {
	var (
		name        string
		description string
		filePath    string
	)

	cmd := &cobra.Command{
		Use:   "update <asset-id>",
		Short: "Update an asset's metadata or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			assetID, err := parseID(args[0])
			if err != nil {
				return err
			}

			if name == "" && description == "" && filePath == "" {
				return ErrNothingToUpdate
			}

			request := &opencloud.AssetUploadRequest{
				Name:        name,
				Description: description,
			}

			var (
				file     *os.File
				filename string
			)

			if filePath != "" {
				file, err = os.Open(filePath)
				if err != nil {
					return fmt.Errorf("opening asset file: %w", err)
				}
				defer func() { _ = file.Close() }()

				filename = filepath.Base(filePath)
			}

			var operation *opencloud.Operation[*opencloud.Asset]
			if file != nil {
				operation, err = client.Assets().Update(cmd.Context(), assetID, request, filename, file)
			} else {
				operation, err = client.Assets().Update(cmd.Context(), assetID, request, "", nil)
			}

			if err != nil {
				return fmt.Errorf("failed to update asset: %w", err)
			}

			asset, err := operation.Wait(cmd.Context(), opencloud.DefaultWaitOptions())
			if err != nil {
				return fmt.Errorf("waiting for update: %w", err)
			}

			return renderAsset(asset)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&filePath, "file", "", "new content file")

	return cmd
}

func newAssetsVersionsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "versions <asset-id>",
		Short: "List versions of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			assetID, err := parseID(args[0])
			if err != nil {
				return err
			}

			versions, err := client.Assets().ListVersions(cmd.Context(), assetID, opencloud.WithLimit(limit)).All()
			if err != nil {
				return fmt.Errorf("failed to list versions: %w", err)
			}

			return renderOutput(versions, func() error {
				if len(versions) == 0 {
					fmt.Println("No versions found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Path", "Moderation")

				for _, version := range versions {
					moderation := NotAvailable
					if version.Moderation != nil {
						moderation = string(version.Moderation.ModerationState)
					}

					_ = table.Append(version.Path, moderation)
				}

				_ = table.Render()

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for all)")

	return cmd
}

func newAssetsRollbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <asset-id> <version-path>",
		Short: "Roll an asset back to a previous version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			assetID, err := parseID(args[0])
			if err != nil {
				return err
			}

			version, err := client.Assets().RollbackVersion(cmd.Context(), assetID, args[1])
			if err != nil {
				return fmt.Errorf("failed to roll back asset: %w", err)
			}

			return renderOutput(version, func() error {
				fmt.Println("Rolled back to", version.Path)

				return nil
			})
		},
	}
}
