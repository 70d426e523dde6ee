package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
	"github.com/rbxcloud-io/rbxcloud/internal/http"
	"github.com/rbxcloud-io/rbxcloud/pkg/opencloud"
)

// GroupsClient implements opencloud.GroupsClient.
type GroupsClient struct {
	httpClient *http.Client
}

// NewGroupsClient creates a new groups client.
func NewGroupsClient(httpClient *http.Client) *GroupsClient {
	return &GroupsClient{httpClient: httpClient}
}

func (c *GroupsClient) groupPath(groupID int64) string {
	return constants.APIPathGroups + "/" + strconv.FormatInt(groupID, 10)
}

// Get fetches a group's public metadata.
func (c *GroupsClient) Get(ctx context.Context, groupID int64) (*opencloud.Group, error) {
	resp, err := c.httpClient.Get(ctx, c.groupPath(groupID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting group: %w", err)
	}

	var group opencloud.Group

	err = parseBody(resp, &group, "group")
	if err != nil {
		return nil, err
	}

	return &group, nil
}

// GetShout fetches the group's current shout.
func (c *GroupsClient) GetShout(ctx context.Context, groupID int64) (*opencloud.GroupShout, error) {
	resp, err := c.httpClient.Get(ctx, c.groupPath(groupID)+"/shout", nil)
	if err != nil {
		return nil, fmt.Errorf("getting group shout: %w", err)
	}

	var shout opencloud.GroupShout

	err = parseBody(resp, &shout, "group shout")
	if err != nil {
		return nil, err
	}

	return &shout, nil
}

// ListMembershipsPage fetches one page of memberships. filter is the
// API's filter expression, e.g. "user == 'users/123'" or
// "role == 'groups/1/roles/2'".
func (c *GroupsClient) ListMembershipsPage(ctx context.Context, groupID int64, filter, cursor string) ([]opencloud.GroupMembership, string, error) {
	query := opencloud.NewQueryParams().
		Set("maxPageSize", 99).
		SetOptional("filter", filter).
		SetOptional("pageToken", cursor)

	resp, err := c.httpClient.Get(ctx, c.groupPath(groupID)+"/memberships", query.ToValues())
	if err != nil {
		return nil, "", fmt.Errorf("listing group memberships: %w", err)
	}

	var page struct {
		GroupMemberships []opencloud.GroupMembership `json:"groupMemberships"`
		NextPageToken    string                      `json:"nextPageToken"`
	}

	err = parseBody(resp, &page, "group memberships page")
	if err != nil {
		return nil, "", err
	}

	return page.GroupMemberships, page.NextPageToken, nil
}

// ListMemberships iterates a group's memberships.
func (c *GroupsClient) ListMemberships(ctx context.Context, groupID int64, filter string, opts ...opencloud.PagerOption) *opencloud.Pager[opencloud.GroupMembership] {
	return opencloud.NewPager(ctx, func(ctx context.Context, cursor string) ([]opencloud.GroupMembership, string, error) {
		return c.ListMembershipsPage(ctx, groupID, filter, cursor)
	}, opts...)
}

// ListRolesPage fetches one page of group roles.
func (c *GroupsClient) ListRolesPage(ctx context.Context, groupID int64, cursor string) ([]opencloud.GroupRole, string, error) {
	query := opencloud.NewQueryParams().
		Set("maxPageSize", 20).
		SetOptional("pageToken", cursor)

	resp, err := c.httpClient.Get(ctx, c.groupPath(groupID)+"/roles", query.ToValues())
	if err != nil {
		return nil, "", fmt.Errorf("listing group roles: %w", err)
	}

	var page struct {
		GroupRoles    []opencloud.GroupRole `json:"groupRoles"`
		NextPageToken string                `json:"nextPageToken"`
	}

	err = parseBody(resp, &page, "group roles page")
	if err != nil {
		return nil, "", err
	}

	return page.GroupRoles, page.NextPageToken, nil
}

// ListRoles iterates a group's roles, lowest rank first.
func (c *GroupsClient) ListRoles(ctx context.Context, groupID int64, opts ...opencloud.PagerOption) *opencloud.Pager[opencloud.GroupRole] {
	return opencloud.NewPager(ctx, func(ctx context.Context, cursor string) ([]opencloud.GroupRole, string, error) {
		return c.ListRolesPage(ctx, groupID, cursor)
	}, opts...)
}
