package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
)

// MessagingClient implements opencloud.MessagingClient. Messages are
// delivered to live game servers subscribed to the topic; they are not
// persisted.
type MessagingClient struct {
	httpClient *http.Client
}

// NewMessagingClient creates a new messaging client.
func NewMessagingClient(httpClient *http.Client) *MessagingClient {
	return &MessagingClient{httpClient: httpClient}
}

// Publish sends a message to every live server subscribed to the topic.
func (c *MessagingClient) Publish(ctx context.Context, universeID int64, topic, message string) error {
	path := constants.APIPathMessaging + "/" + strconv.FormatInt(universeID, 10) +
		"/topics/" + url.PathEscape(topic)

	_, err := c.httpClient.Do(ctx, &http.Request{
		Method:         nethttp.MethodPost,
		Path:           path,
		Body:           map[string]string{"message": message},
		ExpectedStatus: []int{200},
	})
	if err != nil {
		return fmt.Errorf("publishing message: %w", err)
	}

	return nil
}
