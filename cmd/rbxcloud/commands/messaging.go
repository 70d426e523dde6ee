package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMessagingCommand creates the messaging command group
func NewMessagingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messaging",
		Short: "Publish to live game servers",
	}

	cmd.AddCommand(newMessagingPublishCommand())

	return cmd
}

func newMessagingPublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <topic> <message>",
		Short: "Publish a message to a topic",
		Long: `Publish a message to every live server of the universe subscribed to
the topic through MessagingService.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			universe, err := universeID()
			if err != nil {
				return err
			}

			err = client.Messaging().Publish(cmd.Context(), universe, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to publish message: %w", err)
			}

			fmt.Println("Published to", args[0])

			return nil
		},
	}
}
