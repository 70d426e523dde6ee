// Package client implements the Open Cloud resource clients behind the
// interfaces in pkg/opencloud.
package client

import (
	"fmt"

	"github.com/rbxcloud-io/rbxcloud/internal/auth"
	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// Client is the concrete implementation of opencloud.Client.
type Client struct {
	httpClient *http.Client

	datastores  *DataStoresClient
	ordered     *OrderedDataStoresClient
	memorystore *MemoryStoreClient
	messaging   *MessagingClient
	places      *PlacesClient
	assets      *AssetsClient
	operations  *OperationsClient
	groups      *GroupsClient
	users       *UsersClient
}

// New creates a client from config.
func New(config *opencloud.Config) (*Client, error) {
	if config == nil {
		return nil, opencloud.ErrConfigRequired
	}

	credentials, err := buildCredentials(config)
	if err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}

	opts, err := buildHTTPOptions(config)
	if err != nil {
		return nil, err
	}

	httpClient := http.NewClient(baseURL, credentials, opts...)

	client := &Client{httpClient: httpClient}
	client.datastores = NewDataStoresClient(httpClient)
	client.ordered = NewOrderedDataStoresClient(httpClient)
	client.messaging = NewMessagingClient(httpClient)
	client.operations = NewOperationsClient(httpClient)
	client.memorystore = NewMemoryStoreClient(httpClient, client.operations)
	client.places = NewPlacesClient(httpClient)
	client.assets = NewAssetsClient(httpClient, client.operations)
	client.groups = NewGroupsClient(httpClient)
	client.users = NewUsersClient(httpClient)

	return client, nil
}

func buildCredentials(config *opencloud.Config) (auth.CredentialSource, error) {
	switch {
	case config.APIKey != "":
		return auth.NewAPIKeyCredential(config.APIKey), nil
	case config.ClientID != "" && config.ClientSecret != "":
		return auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.TokenURL,
			AccessToken:  config.BearerToken,
			RefreshToken: config.RefreshToken,
		}), nil
	case config.BearerToken != "":
		return auth.NewBearerCredential(config.BearerToken), nil
	default:
		return nil, opencloud.ErrNoCredential
	}
}

func buildHTTPOptions(config *opencloud.Config) ([]http.Option, error) {
	var opts []http.Option

	if config.Logger != nil {
		opts = append(opts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, http.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 {
		waitMin := config.RetryWaitMin
		if waitMin <= 0 {
			waitMin = constants.DefaultRetryWaitMin
		}

		waitMax := config.RetryWaitMax
		if waitMax <= 0 {
			waitMax = constants.DefaultRetryWaitMax
		}

		opts = append(opts, http.WithRetryConfig(config.RetryMax, waitMin, waitMax))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.Cache != nil {
		cache, err := opencloud.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("building response cache: %w", err)
		}

		opts = append(opts, http.WithCache(cache, config.Cache.TTL))
	}

	return opts, nil
}

// DataStores implements opencloud.StorageClients.
func (c *Client) DataStores() opencloud.DataStoresClient {
	return c.datastores
}

// OrderedDataStores implements opencloud.StorageClients.
func (c *Client) OrderedDataStores() opencloud.OrderedDataStoresClient {
	return c.ordered
}

// MemoryStore implements opencloud.StorageClients.
func (c *Client) MemoryStore() opencloud.MemoryStoreClient {
	return c.memorystore
}

// Messaging implements opencloud.Client.
func (c *Client) Messaging() opencloud.MessagingClient {
	return c.messaging
}

// Places implements opencloud.CreationClients.
func (c *Client) Places() opencloud.PlacesClient {
	return c.places
}

// Assets implements opencloud.CreationClients.
func (c *Client) Assets() opencloud.AssetsClient {
	return c.assets
}

// Operations implements opencloud.CreationClients.
func (c *Client) Operations() opencloud.OperationsClient {
	return c.operations
}

// Groups implements opencloud.SocialClients.
func (c *Client) Groups() opencloud.GroupsClient {
	return c.groups
}

// Users implements opencloud.SocialClients.
func (c *Client) Users() opencloud.UsersClient {
	return c.users
}

// parseBody unmarshals a response body into out with a consistent error.
func parseBody(resp *http.Response, out any, what string) error {
	err := resp.JSON(out)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", what, err)
	}

	return nil
}
