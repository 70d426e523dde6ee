package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// NewPlacesCommand creates the places command group
func NewPlacesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "places",
		Short: "Upload place files",
	}

	cmd.AddCommand(newPlacesPublishCommand())

	return cmd
}

func newPlacesPublishCommand() *cobra.Command {
	var (
		placeID int64
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Upload a place file as a new version",
		Long: `Upload a .rbxl or .rbxlx file as a new version of a place. The version
is saved by default; pass --live to publish it to players.`,
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

			if placeID == 0 {
				return ErrPlaceRequired
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening place file: %w", err)
			}
			defer func() { _ = file.Close() }()

			versionType := opencloud.PlaceVersionSaved
			if publish {
				versionType = opencloud.PlaceVersionPublished
			}

			version, err := client.Places().UploadVersion(cmd.Context(), universe, placeID, file, versionType)
			if err != nil {
				return fmt.Errorf("failed to upload place: %w", err)
			}

			return renderOutput(version, func() error {
				fmt.Println("Uploaded version", version.VersionNumber)

				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&placeID, "place", 0, "place ID within the universe")
	cmd.Flags().BoolVar(&publish, "live", false, "publish the version to players")

	return cmd
}
