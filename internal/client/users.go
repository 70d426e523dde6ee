package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// UsersClient implements opencloud.UsersClient.
type UsersClient struct {
	httpClient *http.Client
}

// NewUsersClient creates a new users client.
func NewUsersClient(httpClient *http.Client) *UsersClient {
	return &UsersClient{httpClient: httpClient}
}

func (c *UsersClient) userPath(userID int64) string {
	return constants.APIPathUsers + "/" + strconv.FormatInt(userID, 10)
}

// Get fetches a user's public metadata.
func (c *UsersClient) Get(ctx context.Context, userID int64) (*opencloud.User, error) {
	resp, err := c.httpClient.Get(ctx, c.userPath(userID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	var user opencloud.User

	err = parseBody(resp, &user, "user")
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// ListInventoryItemsPage fetches one page of the user's inventory.
// Items the authorization cannot see are omitted by the API.
func (c *UsersClient) ListInventoryItemsPage(ctx context.Context, userID int64, opts *opencloud.InventoryListOptions, cursor string) ([]opencloud.InventoryItem, string, error) {
	if opts == nil {
		opts = &opencloud.InventoryListOptions{}
	}

	pageSize := opts.MaxPageSize
	if pageSize <= 0 || pageSize > constants.DefaultPageLimit {
		pageSize = constants.DefaultPageLimit
	}

	query := opencloud.NewQueryParams().
		Set("maxPageSize", pageSize).
		SetOptional("filter", opts.Filter).
		SetOptional("pageToken", cursor)

	resp, err := c.httpClient.Get(ctx, c.userPath(userID)+"/inventory-items", query.ToValues())
	if err != nil {
		return nil, "", fmt.Errorf("listing inventory items: %w", err)
	}

	var page struct {
		InventoryItems []opencloud.InventoryItem `json:"inventoryItems"`
		NextPageToken  string                    `json:"nextPageToken"`
	}

	err = parseBody(resp, &page, "inventory items page")
	if err != nil {
		return nil, "", err
	}

	return page.InventoryItems, page.NextPageToken, nil
}

// ListInventoryItems iterates the user's inventory.
func (c *UsersClient) ListInventoryItems(ctx context.Context, userID int64, opts *opencloud.InventoryListOptions, pagerOpts ...opencloud.PagerOption) *opencloud.Pager[opencloud.InventoryItem] {
	return opencloud.NewPager(ctx, func(ctx context.Context, cursor string) ([]opencloud.InventoryItem, string, error) {
		return c.ListInventoryItemsPage(ctx, userID, opts, cursor)
	}, pagerOpts...)
}
